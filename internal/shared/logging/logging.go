package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup builds the process logger. format is "json" or "text".
func Setup(level, format string) (*logrus.Logger, error) {
	return SetupWithOutput(level, format, os.Stdout)
}

func SetupWithOutput(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var formatter logrus.Formatter
	switch strings.ToLower(format) {
	case "", "json":
		formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "loglevel",
			},
		}
	case "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return &logrus.Logger{
		Formatter: formatter,
		Out:       out,
		Level:     lvl,
		Hooks:     make(logrus.LevelHooks),
	}, nil
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWithOutput("debug", "json", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.Level)

	logger.WithField("item_id", "i1").Info("Transaction sync completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["loglevel"])
	assert.Equal(t, "i1", entry["item_id"])
	assert.Equal(t, "Transaction sync completed", entry["msg"])
}

func TestSetupWithOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWithOutput("warn", "text", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetup_Invalid(t *testing.T) {
	_, err := Setup("loud", "json")
	assert.Error(t, err)

	_, err = Setup("info", "xml")
	assert.Error(t, err)
}

package messages

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Render substitutes {name} placeholders in the title and body.
func (m MessageText) Render(vars map[string]string) MessageText {
	if len(vars) == 0 {
		return m
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return MessageText{Title: r.Replace(m.Title), Body: r.Replace(m.Body)}
}

type Messages struct {
	SyncComplete   MessageText `json:"sync_complete"`
	RelinkRequired MessageText `json:"relink_required"`
}

// Default returns the built-in notification texts.
func Default() *Messages {
	return &Messages{
		SyncComplete: MessageText{
			Title: "Transactions updated",
			Body:  "{count} new transactions were imported.",
		},
		RelinkRequired: MessageText{
			Title: "Reconnect your bank",
			Body:  "Your bank connection needs attention. Open the app to sign in again.",
		},
	}
}

// Load reads the notifications JSON file. Texts missing from the file keep
// their defaults; an empty path returns the defaults.
func Load(path string) (*Messages, error) {
	msgs := Default()
	if path == "" {
		return msgs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}
	var fromFile Messages
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}

	overlay(&msgs.SyncComplete, fromFile.SyncComplete)
	overlay(&msgs.RelinkRequired, fromFile.RelinkRequired)
	return msgs, nil
}

func overlay(dst *MessageText, src MessageText) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Body != "" {
		dst.Body = src.Body
	}
}

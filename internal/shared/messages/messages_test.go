package messages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	msgs, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), msgs)
}

func TestLoad_OverridesPerField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sync_complete":{"title":"Novas transações"}}`), 0o600))

	msgs, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Novas transações", msgs.SyncComplete.Title)
	assert.Equal(t, Default().SyncComplete.Body, msgs.SyncComplete.Body)
	assert.Equal(t, Default().RelinkRequired, msgs.RelinkRequired)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	m := MessageText{Title: "{count} new", Body: "Item {item} has {count} new transactions"}
	got := m.Render(map[string]string{"count": "3", "item": "Chase"})
	assert.Equal(t, "3 new", got.Title)
	assert.Equal(t, "Item Chase has 3 new transactions", got.Body)

	assert.Equal(t, m, m.Render(nil))
}

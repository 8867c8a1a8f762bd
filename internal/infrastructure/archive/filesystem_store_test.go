package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFilesystemStore_PutWritesUnderRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root, zaptest.NewLogger(t))
	require.NoError(t, err)

	body := []byte(`{"score":"24"}`)
	location, err := store.Put(context.Background(), "cards/abc/v1.json", "application/json", body)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "cards", "abc", "v1.json"), location)

	written, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, body, written)
}

func TestFilesystemStore_PutOverwritesExistingBody(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "cards/x/v1.json", "application/json", []byte("first"))
	require.NoError(t, err)

	location, err := store.Put(ctx, "cards/x/v1.json", "application/json", []byte("second"))
	require.NoError(t, err)

	written, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "second", string(written))
}

func TestFilesystemStore_PutRejectsEscapingPaths(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "../outside.json", "application/json", []byte("x"))
	require.Error(t, err)

	_, err = store.Put(ctx, "/etc/outside.json", "application/json", []byte("x"))
	require.Error(t, err)
}

func TestFilesystemStore_RequiresDirectory(t *testing.T) {
	_, err := NewFilesystemStore("", zaptest.NewLogger(t))
	require.Error(t, err)
}

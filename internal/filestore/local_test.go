package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kontrakwise/backend/internal/config"
)

func configFor(typ string) config.FileStoreConfig {
	return config.FileStoreConfig{Type: typ, Data: map[string]interface{}{}}
}

type memFile struct {
	*bytes.Reader
}

func (m *memFile) Close() error { return nil }

func newMemFile(data []byte) *memFile {
	return &memFile{Reader: bytes.NewReader(data)}
}

func TestLocalStoreSaveOpenDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := createLocalStore(map[string]interface{}{"dir": dir})
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("%PDF-1.4 test content")
	require.NoError(t, store.Save(ctx, "u1_d1.pdf", newMemFile(data), int64(len(data))))

	f, err := store.Open(ctx, "u1_d1.pdf")
	require.NoError(t, err)
	read, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, data, read)

	require.NoError(t, store.Delete(ctx, "u1_d1.pdf"))
	_, err = os.Stat(filepath.Join(dir, "u1_d1.pdf"))
	require.True(t, os.IsNotExist(err))

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete(ctx, "u1_d1.pdf"))
}

func TestLocalStoreRejectsPathTraversal(t *testing.T) {
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	err = store.Save(ctx, "../escape.pdf", newMemFile([]byte("x")), 1)
	require.Error(t, err)
	_, err = store.Open(ctx, "a/b.pdf")
	require.Error(t, err)
}

func TestNewUnknownStoreType(t *testing.T) {
	_, err := New(configFor("ftp"))
	require.Error(t, err)
}

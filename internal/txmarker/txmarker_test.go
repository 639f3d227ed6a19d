package txmarker_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/txmarker"
)

func TestCreateReadRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer-transaction")
	m := txmarker.New(path)

	assert.False(t, m.Exists())

	require.NoError(t, m.Create("hammer-20240102030405"))
	assert.True(t, m.Exists())

	name, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "hammer-20240102030405", name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Deployment string `json:"deployment"`
		ID         string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "hammer-20240102030405", doc.Deployment)
	assert.NotEmpty(t, doc.ID)

	require.NoError(t, m.Remove())
	assert.False(t, m.Exists())

	// removing an already-absent marker is not an error
	require.NoError(t, m.Remove())
}

func TestReadMissing(t *testing.T) {
	m := txmarker.New(filepath.Join(t.TempDir(), "absent"))
	name, err := m.Read()
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestReadLegacyRawName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer-transaction")
	require.NoError(t, os.WriteFile(path, []byte("hammer-20240102030405\n"), 0644))

	m := txmarker.New(path)
	name, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "hammer-20240102030405", name)
}

func TestReadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer-transaction")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	m := txmarker.New(path)
	name, err := m.Read()
	require.NoError(t, err)
	assert.Empty(t, name)
}

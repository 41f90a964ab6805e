package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSnapshot(t *testing.T) {
	assert := require.New(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "projects.json")
	err := os.WriteFile(path, []byte(`[{"id": 1, "owner_id": 2, "title": "Payments", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z", "technologies": ["Go"]}]`), 0644)
	assert.NoError(err)

	projects, err := readSnapshot(path)
	assert.NoError(err)
	assert.Len(projects, 1)
	assert.Equal(int64(1), projects[0].ID)
	assert.Equal(int64(2), projects[0].OwnerID)
	assert.Equal([]string{"Go"}, projects[0].Technologies)

	malformed := filepath.Join(dir, "malformed.json")
	assert.NoError(os.WriteFile(malformed, []byte(`{"id": 1}`), 0644))
	_, err = readSnapshot(malformed)
	assert.Error(err)

	_, err = readSnapshot(filepath.Join(dir, "missing.json"))
	assert.Error(err)
}

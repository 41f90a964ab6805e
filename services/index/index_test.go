package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meghashyamc/facetsearch/db/kvdb"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/meghashyamc/facetsearch/validation"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	service  *Service
	searchDB *searchdb.BleveDB
	kvDB     *kvdb.BoltDB
}

func newTestLogger() logger.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func setupTestService(t *testing.T, assert *require.Assertions) *testEnv {
	testLogger := newTestLogger()

	searchDB, err := searchdb.NewInMemory(testLogger)
	assert.NoError(err, "could not create search database")
	kvDB, err := kvdb.Open(testLogger, filepath.Join(t.TempDir(), "kv.db"))
	assert.NoError(err, "could not create kv database")
	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		searchDB.Close()
		kvDB.Close()
	})

	return &testEnv{
		service:  New(ctx, testLogger, searchDB, kvDB, validator),
		searchDB: searchDB,
		kvDB:     kvDB,
	}
}

func newProject(id int64, title string) searchdb.Document {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return searchdb.Document{
		ID:           id,
		OwnerID:      1,
		Title:        title,
		CreatedAt:    now,
		UpdatedAt:    now,
		Technologies: []string{"Go"},
		Industries:   []string{"Retail"},
	}
}

func (e *testEnv) docCount(assert *require.Assertions) int {
	count, err := e.searchDB.GetDocCount()
	assert.NoError(err, "could not get document count")
	return int(count)
}

func TestRebuildIndexesValidProjects(t *testing.T) {
	assert := require.New(t)
	env := setupTestService(t, assert)

	invalid := newProject(4, "")
	projects := []searchdb.Document{newProject(1, "One"), newProject(2, "Two"), newProject(3, "Three"), invalid}

	summary, err := env.service.Rebuild(context.Background(), projects, "first")
	assert.NoError(err)
	assert.Equal(&BuildSummary{Indexed: 3, Invalid: 1}, summary)
	assert.Equal(3, env.docCount(assert))

	status, err := env.service.GetStatus("first")
	assert.NoError(err)
	assert.Equal(ProgressStatusComplete, status)
}

func TestRebuildSkipsUnchangedAndRemovesStale(t *testing.T) {
	assert := require.New(t)
	env := setupTestService(t, assert)

	_, err := env.service.Rebuild(context.Background(), []searchdb.Document{newProject(1, "One"), newProject(2, "Two"), newProject(3, "Three")}, "first")
	assert.NoError(err)

	renamed := newProject(2, "Two, renamed")
	summary, err := env.service.Rebuild(context.Background(), []searchdb.Document{newProject(1, "One"), renamed}, "second")
	assert.NoError(err)
	assert.Equal(&BuildSummary{Indexed: 1, Unchanged: 1, Deleted: 1}, summary)
	assert.Equal(2, env.docCount(assert))

	keys, err := env.kvDB.GetAllKeys(kvdb.ProjectsBucket)
	assert.NoError(err)
	assert.ElementsMatch([]string{"1", "2"}, keys)

	response, err := env.searchDB.Search(context.Background(), searchdb.Request{OwnerID: 1, Size: 10})
	assert.NoError(err)
	assert.Len(response.Documents, 2)
	assert.Equal("Two, renamed", response.Documents[1].Title)
}

func TestRebuildKeepsLastVersionOfDuplicates(t *testing.T) {
	assert := require.New(t)
	env := setupTestService(t, assert)

	summary, err := env.service.Rebuild(context.Background(), []searchdb.Document{newProject(1, "Old"), newProject(1, "New")}, "dup")
	assert.NoError(err)
	assert.Equal(1, summary.Indexed)

	response, err := env.searchDB.Search(context.Background(), searchdb.Request{OwnerID: 1, Size: 10})
	assert.NoError(err)
	assert.Len(response.Documents, 1)
	assert.Equal("New", response.Documents[0].Title)
}

func TestUpsertAndDelete(t *testing.T) {
	assert := require.New(t)
	env := setupTestService(t, assert)

	err := env.service.Upsert(newProject(0, "No id"))
	assert.True(errors.Is(err, ErrInvalidDocument))

	assert.NoError(env.service.Upsert(newProject(1, "One")))
	assert.NoError(env.service.Upsert(newProject(1, "One")), "upserting unchanged content should succeed")
	assert.Equal(1, env.docCount(assert))

	assert.NoError(env.service.Delete(1))
	assert.Equal(0, env.docCount(assert))
	assert.NoError(env.service.Delete(42), "deleting an unknown project should succeed")
}

func TestBuildRunsInBackground(t *testing.T) {
	assert := require.New(t)
	env := setupTestService(t, assert)

	assert.NoError(env.service.Build([]searchdb.Document{newProject(1, "One"), newProject(2, "Two")}, "async"))

	deadline := time.Now().Add(10 * time.Second)
	for {
		status, err := env.service.GetStatus("async")
		assert.NoError(err)
		if status == ProgressStatusComplete {
			break
		}
		assert.NotEqual(ProgressStatusFailed, status)
		assert.True(time.Now().Before(deadline), "timed out waiting for index build")
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(2, env.docCount(assert))
}

func TestBuildRejectsConcurrentRequests(t *testing.T) {
	assert := require.New(t)
	env := setupTestService(t, assert)

	env.service.building.Store(true)
	err := env.service.Build([]searchdb.Document{newProject(1, "One")}, "rejected")
	assert.True(errors.Is(err, ErrIndexingInProgress))

	_, err = env.service.GetStatus("rejected")
	assert.True(errors.Is(err, ErrRequestNotFound), "rejected requests should not be tracked")
}

func TestGetProgressPercentage(t *testing.T) {
	assert := require.New(t)

	assert.Equal(20, getProgressPercentage(0, 10, 20, 99))
	assert.Equal(59, getProgressPercentage(5, 10, 20, 99))
	assert.Equal(99, getProgressPercentage(10, 10, 20, 99))
	assert.Equal(20, getProgressPercentage(3, 0, 20, 99))
}

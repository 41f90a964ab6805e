// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/facetsearch/config"
	"github.com/meghashyamc/facetsearch/db/kvdb"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/meghashyamc/facetsearch/services/index"
	"github.com/meghashyamc/facetsearch/services/search"
	"github.com/meghashyamc/facetsearch/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

type testCase struct {
	name             string
	requestHeaders   map[string]string
	requestBody      map[string]any
	queryParams      url.Values
	expectedStatus   int
	expectedResponse map[string]any
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func setupTestServer(t *testing.T, assert *require.Assertions) *gin.Engine {

	cfg, err := config.Load("test")
	assert.NoError(err, "could not load config")

	testLogger := newTestLogger()

	searchDB, err := searchdb.NewInMemory(testLogger)
	assert.NoError(err, "could not create search database")

	kvDB, err := kvdb.Open(testLogger, filepath.Join(t.TempDir(), cfg.GetKVDBPath()))
	assert.NoError(err, "could not create kv database")

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	ctx, cancel := context.WithCancel(context.Background())
	searchService := search.New(testLogger, searchDB, search.NewOptions(cfg))
	indexService := index.New(ctx, testLogger, searchDB, kvDB, validator)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupSearch(router, testLogger, searchService, validator, cfg.GetDefaultPageSize())
	SetupProjects(router, testLogger, indexService, validator)
	SetupIndex(router, testLogger, indexService, validator)

	t.Cleanup(func() {
		cancel()
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return router
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]any, queryParams url.Values) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		endpoint = endpoint + "?" + queryParams.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func decodeResponse(assert *require.Assertions, w *httptest.ResponseRecorder) map[string]any {
	var responseMap map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &responseMap)
	assert.NoError(err, "response body is not json: %s", w.Body.String())
	return responseMap
}

func ownerHeaders(ownerID string) map[string]string {
	return map[string]string{"Content-Type": "application/json", HeaderOwnerID: ownerID}
}

func testProject(id int64, ownerID int64, title string, technologies []string, industries []string) map[string]any {
	return map[string]any{
		"id":           id,
		"owner_id":     ownerID,
		"title":        title,
		"description":  title + " description",
		"created_at":   "2024-01-01T00:00:00Z",
		"updated_at":   "2024-01-02T00:00:00Z",
		"technologies": technologies,
		"industries":   industries,
	}
}

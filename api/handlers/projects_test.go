package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleUpsertProject(t *testing.T) {
	testCases := []struct {
		testCase
		path string
	}{
		{
			testCase: testCase{
				name:           "NoRequestBody",
				requestHeaders: defaultTestRequestHeaders,
				expectedStatus: http.StatusUnprocessableEntity,
			},
			path: "/projects/1",
		},
		{
			testCase: testCase{
				name:           "NonNumericID",
				requestHeaders: defaultTestRequestHeaders,
				requestBody:    testProject(1, 1, "Payments", []string{"Go"}, nil),
				expectedStatus: http.StatusUnprocessableEntity,
			},
			path: "/projects/abc",
		},
		{
			testCase: testCase{
				name:           "ZeroID",
				requestHeaders: defaultTestRequestHeaders,
				requestBody:    testProject(0, 1, "Payments", []string{"Go"}, nil),
				expectedStatus: http.StatusNotAcceptable,
			},
			path: "/projects/0",
		},
		{
			testCase: testCase{
				name:           "MismatchedID",
				requestHeaders: defaultTestRequestHeaders,
				requestBody:    testProject(2, 1, "Payments", []string{"Go"}, nil),
				expectedStatus: http.StatusNotAcceptable,
			},
			path: "/projects/1",
		},
		{
			testCase: testCase{
				name:           "MissingTitle",
				requestHeaders: defaultTestRequestHeaders,
				requestBody:    testProject(1, 1, "", []string{"Go"}, nil),
				expectedStatus: http.StatusNotAcceptable,
			},
			path: "/projects/1",
		},
		{
			testCase: testCase{
				name:           "BlankLabel",
				requestHeaders: defaultTestRequestHeaders,
				requestBody:    testProject(1, 1, "Payments", []string{"  "}, nil),
				expectedStatus: http.StatusNotAcceptable,
			},
			path: "/projects/1",
		},
		{
			testCase: testCase{
				name:           "Success",
				requestHeaders: defaultTestRequestHeaders,
				requestBody:    testProject(1, 1, "Payments", []string{"Go"}, []string{"Fintech"}),
				expectedStatus: http.StatusNoContent,
			},
			path: "/projects/1",
		},
		{
			testCase: testCase{
				name:           "SuccessUnchanged",
				requestHeaders: defaultTestRequestHeaders,
				requestBody:    testProject(1, 1, "Payments", []string{"Go"}, []string{"Fintech"}),
				expectedStatus: http.StatusNoContent,
			},
			path: "/projects/1",
		},
	}

	assert := require.New(t)
	router := setupTestServer(t, assert)

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(router, assert, http.MethodPut, testCase.path, testCase.requestHeaders, testCase.requestBody, nil)
			assert.Equal(testCase.expectedStatus, w.Code, fmt.Sprintf("response gotten was %s", w.Body.String()))
		})
	}
}

func TestHandleDeleteProject(t *testing.T) {
	assert := require.New(t)
	router := setupTestServer(t, assert)

	w := makeTestHTTPRequest(router, assert, http.MethodPut, "/projects/1", defaultTestRequestHeaders, testProject(1, 1, "Payments", []string{"Go"}, nil), nil)
	assert.Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = makeTestHTTPRequest(router, assert, http.MethodGet, "/projects/search", ownerHeaders("1"), nil, nil)
	assert.Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Len(decodeResponse(assert, w)["data"].(map[string]any)["results"], 1)

	w = makeTestHTTPRequest(router, assert, http.MethodDelete, "/projects/1", nil, nil, nil)
	assert.Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = makeTestHTTPRequest(router, assert, http.MethodGet, "/projects/search", ownerHeaders("1"), nil, nil)
	assert.Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Empty(decodeResponse(assert, w)["data"].(map[string]any)["results"])

	// Deleting a project that is not indexed is not an error.
	w = makeTestHTTPRequest(router, assert, http.MethodDelete, "/projects/42", nil, nil, nil)
	assert.Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = makeTestHTTPRequest(router, assert, http.MethodDelete, "/projects/abc", nil, nil, nil)
	assert.Equal(http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IANDYI/eldercare-service/internal/adapters/middleware"
	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/stretchr/testify/require"
)

var (
	elder     = domain.ElderCaller{ID: 10, FullName: "Alice", ElderID: 1}
	caretaker = domain.CaretakerCaller{ID: 20, FullName: "Bob", ElderIDs: []int64{1}}
)

func int64Ptr(v int64) *int64 { return &v }

// newRequest builds a request carrying caller, as RequireCaller would leave it
func newRequest(t *testing.T, method, target string, body any, caller domain.Caller) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req = req.WithContext(middleware.WithCaller(req.Context(), caller))
	}
	return req
}

// serve routes req through a mux so path values are populated
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

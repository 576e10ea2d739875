package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) HandleConfig {
	cfg := DefaultHandleConfig()
	cfg.Endpoint = endpoint
	cfg.Prefix = "1234"
	cfg.Username = "admin"
	cfg.Password = "secret"
	cfg.RequestTimeout = 2 * time.Second
	cfg.Retry.MaxElapsedTime = 100 * time.Millisecond
	return cfg
}

func TestHandleClient_CanonicalURL(t *testing.T) {
	client, err := NewHandleClient(testConfig("http://localhost:8000/handle-service"))
	require.NoError(t, err)
	assert.Equal(t, "http://hdl.handle.net/1234/obj:1", client.CanonicalURL("obj:1"))
}

func TestHandleClient_Exists(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		expectedExists bool
		expectedError  bool
	}{
		{name: "204 means exists", status: http.StatusNoContent, expectedExists: true},
		{name: "200 means exists", status: http.StatusOK, expectedExists: true},
		{name: "404 means absent", status: http.StatusNotFound, expectedExists: false},
		{name: "other codes are errors", status: http.StatusBadGateway, expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				assert.Equal(t, "/handles/1234/obj:1", r.URL.Path)
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "admin", user)
				assert.Equal(t, "secret", pass)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client, err := NewHandleClient(testConfig(srv.URL + "/handles"))
			require.NoError(t, err)

			exists, err := client.Exists(context.Background(), "obj:1")
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedExists, exists)
		})
	}
}

func TestHandleClient_Create(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedError string
	}{
		{name: "201 carries no error", status: http.StatusCreated},
		{name: "failure carries the body", status: http.StatusConflict, body: "handle already bound", expectedError: "handle already bound"},
		{name: "empty failure body falls back to status", status: http.StatusInternalServerError, expectedError: "500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewHandleClient(testConfig(srv.URL))
			require.NoError(t, err)

			resp, err := client.Create(context.Background(), "obj:1")
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.expectedError, resp.Error)
		})
	}
}

func TestHandleClient_Delete(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(status)
		}))

		client, err := NewHandleClient(testConfig(srv.URL))
		require.NoError(t, err)

		resp, err := client.Delete(context.Background(), "obj:1")
		require.NoError(t, err)
		assert.Equal(t, status, resp.Code)

		srv.Close()
	}
}

func TestHandleClient_RetriesTransportErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Drop the first connection without a response.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry.MaxElapsedTime = 2 * time.Second
	client, err := NewHandleClient(cfg)
	require.NoError(t, err)

	exists, err := client.Exists(context.Background(), "obj:1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestHandleClient_PidEscaping(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewHandleClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.Exists(context.Background(), "weird/pid")
	require.NoError(t, err)
	assert.Equal(t, "/1234/weird%2Fpid", gotPath)
}

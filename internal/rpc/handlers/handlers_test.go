package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var globalLoggerReplaceMu sync.Mutex

// observeLogs swaps the global logger for an observer until the test ends.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	globalLoggerReplaceMu.Lock()
	core, recorded := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(func() {
		restore()
		globalLoggerReplaceMu.Unlock()
	})
	return recorded
}

func setupTestServer(t *testing.T, handlersMap MethodHandlers) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	SetupHandlers(mux, handlersMap)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestCreateApiPath(t *testing.T) {
	tests := []struct {
		input string
		want  Path
	}{
		{"", "/api/v1/"},
		{"/sales", "/api/v1/sales"},
		{"sales", "/api/v1/sales"},
		{"sales/", "/api/v1/sales/"},
		{"///status", "/api/v1///status"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CreateApiPath(ApiV1, tt.input), "input %q", tt.input)
	}
}

func TestSetupHandlers_EncodesJSON(t *testing.T) {
	server := setupTestServer(t, MethodHandlers{
		CreateApiPath(ApiV1, "status"): {
			HTTP_GET: func(r *http.Request) (any, error) {
				return StatusGetHandler(r)
			},
		},
	})

	status, body, header := get(t, server.URL+"/api/v1/status")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.JSONEq(t, `{"status":"OK"}`, body)
}

func TestSetupHandlers_MethodNotAllowed(t *testing.T) {
	server := setupTestServer(t, MethodHandlers{
		CreateApiPath(ApiV1, "sales"): {
			HTTP_GET: func(r *http.Request) (any, error) { return nil, nil },
		},
	})

	resp, err := http.Post(server.URL+"/api/v1/sales", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSetupHandlers_Errors(t *testing.T) {
	tests := []struct {
		name       string
		result     any
		err        error
		wantStatus int
		wantLog    string
	}{
		{"handler failure", nil, errors.New("database is locked"), http.StatusInternalServerError, "failed to handle request"},
		{"unencodable response", map[string]any{"ch": make(chan int)}, nil, http.StatusInternalServerError, "failed to encode response"},
		{"not found", nil, NotFound("sale not found"), http.StatusNotFound, ""},
		{"bad request", nil, BadRequest("token id must be a decimal integer"), http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorded := observeLogs(t)
			server := setupTestServer(t, MethodHandlers{
				CreateApiPath(ApiV1, "x"): {
					HTTP_GET: func(r *http.Request) (any, error) { return tt.result, tt.err },
				},
			})

			status, body, _ := get(t, server.URL+"/api/v1/x")
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantLog != "" {
				assert.Equal(t, 1, recorded.FilterMessage(tt.wantLog).Len())
				return
			}
			assert.Equal(t, tt.err.Error()+"\n", body)
			assert.Zero(t, recorded.FilterMessage("failed to handle request").Len())
		})
	}
}

func TestSetupHandlers_NilResponseHasEmptyBody(t *testing.T) {
	server := setupTestServer(t, MethodHandlers{
		CreateApiPath(ApiV1, "empty"): {
			HTTP_GET: func(r *http.Request) (any, error) { return nil, nil },
		},
	})

	status, body, _ := get(t, server.URL+"/api/v1/empty")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestSetupHandlers_UnknownPath(t *testing.T) {
	server := setupTestServer(t, MethodHandlers{})

	status, _, _ := get(t, server.URL+"/api/v1/nonExistent")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSetupHandlers_ConcurrentRequests(t *testing.T) {
	server := setupTestServer(t, MethodHandlers{
		CreateApiPath(ApiV1, "concurrent"): {
			HTTP_GET: func(r *http.Request) (any, error) {
				return map[string]string{"message": "hello"}, nil
			},
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(server.URL + "/api/v1/concurrent")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			var body map[string]string
			assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "hello", body["message"])
		}()
	}
	wg.Wait()
}

package judge0

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func newTestClient(url string) *Client {
	return &Client{
		BaseURL:      url,
		APIKey:       "key",
		Host:         "judge0.test",
		PollInterval: time.Millisecond,
		MaxPolls:     5,
		HTTPClient:   http.DefaultClient,
	}
}

func TestExecutePollsUntilFinished(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "judge0.test", r.Header.Get("X-RapidAPI-Host"))
		assert.Equal(t, "true", r.URL.Query().Get("base64_encoded"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/submissions":
			var body Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, b64("print(input())"), body.SourceCode)
			assert.Equal(t, b64("hi"), body.Stdin)
			assert.Equal(t, 71, body.LanguageID)
			_, _ = w.Write([]byte(`{"token":"abc"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/submissions/abc":
			n := atomic.AddInt32(&polls, 1)
			if n < 3 {
				_, _ = w.Write([]byte(`{"status":{"id":2,"description":"Processing"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"stdout": b64("hi\n"),
				"status": map[string]any{"id": 3, "description": "Accepted"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), Request{
		SourceCode: "print(input())",
		LanguageID: 71,
		Stdin:      "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", res.Stdout)
	assert.Equal(t, "Accepted", res.StatusDescription())
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestExecuteStopsAtMaxPolls(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"token":"t"}`))
			return
		}
		atomic.AddInt32(&polls, 1)
		_, _ = w.Write([]byte(`{"status":{"id":1,"description":"In Queue"}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), Request{SourceCode: "x", LanguageID: 63})
	require.NoError(t, err)
	assert.Equal(t, "In Queue", res.StatusDescription())
	assert.Equal(t, int32(5), atomic.LoadInt32(&polls))
}

func TestExecuteDecodesCompileOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"token":"t"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"compile_output": b64("main.c:1: error"),
			"status":         map[string]any{"id": 6, "description": "Compilation Error"},
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Execute(context.Background(), Request{SourceCode: "x", LanguageID: 50})
	require.NoError(t, err)
	assert.Equal(t, "main.c:1: error", res.ErrorOutput())
}

func TestExecuteRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Execute(context.Background(), Request{SourceCode: "x", LanguageID: 63})
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
	assert.True(t, strings.Contains(err.Error(), "429"))
}

func TestExecuteHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"token":"t"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":{"id":1}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.PollInterval = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Execute(ctx, Request{SourceCode: "x", LanguageID: 63})
	require.Error(t, err)
	assert.True(t, IsTimeoutError(err))
}

func TestLanguagesFallsBackToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	langs := newTestClient(srv.URL).Languages(context.Background())
	assert.NotNil(t, langs)
	assert.Empty(t, langs)
}

func TestLanguages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":71,"name":"Python (3.8.1)"}]`))
	}))
	defer srv.Close()

	langs := newTestClient(srv.URL).Languages(context.Background())
	require.Len(t, langs, 1)
	assert.Equal(t, 71, langs[0].ID)
}

func TestRunBudgetCoversEveryPoll(t *testing.T) {
	c := &Client{PollInterval: time.Second, MaxPolls: 20, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
	assert.Equal(t, 36*time.Second, c.RunBudget())

	c.HTTPClient = nil
	assert.Equal(t, 21*time.Second, c.RunBudget())
}

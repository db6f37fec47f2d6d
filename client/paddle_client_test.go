package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenLines(t *testing.T) {
	out := []byte(`[2024/01/01 10:00:00] ppocr DEBUG: loading model
{"box": [[10, 20], [90, 20], [90, 40], [10, 40]], "text": "Amount:", "conf": 0.98}
{"box": [[100, 20.5], [160, 20.5], [160, 40], [100, 40]], "text": "20,000", "conf": 0.91}
{"box": null, "text": "   ", "conf": 0.5}
{broken json
`)

	tokens := parseTokenLines(out)

	require.Len(t, tokens, 2)
	assert.Equal(t, "Amount:", tokens[0].Text)
	require.Len(t, tokens[1].Box, 4)
	assert.Equal(t, 20.5, tokens[1].Box[0].Y)
	require.NotNil(t, tokens[1].Conf)
	assert.InDelta(t, 0.91, *tokens[1].Conf, 1e-9)
}

func TestParseTokenLinesEmpty(t *testing.T) {
	tokens := parseTokenLines(nil)
	assert.NotNil(t, tokens)
	assert.Empty(t, tokens)
}

func writeImageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o600))
	return path
}

func TestPaddleAPITokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Images []string `json:"images"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			assert.Len(t, body.Images, 1)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [[
			{"text": "Account:", "confidence": 0.99, "text_region": [[10,10],[80,10],[80,30],[10,30]]},
			{"text": "", "confidence": 0.2, "text_region": []},
			{"text": "123456789", "confidence": 0.95, "text_region": [[100,10],[200,10],[200,30],[100,30]]}
		]]}`))
	}))
	defer srv.Close()

	p := NewPaddleClient(PaddleConfig{APIURL: srv.URL, Delay: time.Millisecond}, nil)
	tokens, err := p.Tokens(context.Background(), writeImageFile(t))

	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "123456789", tokens[1].Text)
	assert.Len(t, tokens[1].Box, 4)
	assert.Equal(t, "paddle", p.Name())
}

func TestPaddleAPIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results": [[{"text": "Rs", "confidence": 0.9, "text_region": [[0,0],[10,0],[10,10],[0,10]]}]]}`))
	}))
	defer srv.Close()

	p := NewPaddleClient(PaddleConfig{APIURL: srv.URL, Attempts: 3, Delay: time.Millisecond}, nil)
	tokens, err := p.Tokens(context.Background(), writeImageFile(t))

	require.NoError(t, err)
	assert.Len(t, tokens, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPaddleAPIClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewPaddleClient(PaddleConfig{APIURL: srv.URL, Attempts: 5, Delay: time.Millisecond}, nil)
	_, err := p.Tokens(context.Background(), writeImageFile(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPaddleAPIMissingImage(t *testing.T) {
	p := NewPaddleClient(PaddleConfig{APIURL: "http://127.0.0.1:1"}, nil)
	_, err := p.Tokens(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "failed to read image")
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mtr-normalizer/internal/common"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{APIKey: "test-key"}},
		{name: "missing API key", config: Config{}, wantErr: true},
		{name: "custom model and settings", config: Config{APIKey: "test-key", Model: "gpt-4", Temperature: 0.5, MaxTokens: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrMissingConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultOpenAIURL, client.baseURL)
		})
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL + "/", Model: "gpt-4o"})
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), Request{System: "sys", Prompt: "hello", MaxTokens: 42})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, content)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.InDelta(t, 42, got["max_tokens"], 0)
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "hello", messages[1].(map[string]any)["content"])
}

func TestOpenAIClient_Complete_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		target    error
		permanent bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down", target: common.ErrRateLimit},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", target: common.ErrOracleUnavailable},
		{name: "bad request", status: http.StatusBadRequest, body: "bad", permanent: true},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, target: common.ErrEmptyResponse},
		{name: "invalid json", status: http.StatusOK, body: `not json`, target: common.ErrInvalidResponse, permanent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), Request{Prompt: "x"})
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Equal(t, tt.permanent, isPermanent(err))
		})
	}
}

func TestOpenAIClient_Complete_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"x"}}]}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Complete(ctx, Request{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

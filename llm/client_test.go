package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/snipai/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := newClient("groq", srv.URL, config.LLMConfig{
		APIKey:      "test-key",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.7,
	})
	return c
}

func completionResponse(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestSendTurnRequestShape(t *testing.T) {
	var captured struct {
		Model       string              `json:"model"`
		Messages    []map[string]string `json:"messages"`
		Temperature float64             `json:"temperature"`
	}
	var auth string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionResponse("Sure, what about it?")))
	})

	history := []Turn{
		{Role: RoleUser, Text: "look at this text"},
		{Role: RoleAssistant, Text: "What should I do with it?"},
		{Role: RoleUser, Text: "explain it"},
	}
	reply, err := c.SendTurn(context.Background(), history)

	require.NoError(t, err)
	assert.Equal(t, "Sure, what about it?", reply.Text)
	assert.False(t, reply.Pasteable)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "llama-3.3-70b-versatile", captured.Model)
	assert.Equal(t, 0.7, captured.Temperature)

	// System prompt first, then the history in order.
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0]["role"])
	assert.Equal(t, "user", captured.Messages[1]["role"])
	assert.Equal(t, "look at this text", captured.Messages[1]["content"])
	assert.Equal(t, "assistant", captured.Messages[2]["role"])
	assert.Equal(t, "explain it", captured.Messages[3]["content"])
}

func TestSendTurnPasteableReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("Fixed it.\n```json\n{\"enhanced_content\": \"the quick fox\"}\n```")))
	})

	reply, err := c.SendTurn(context.Background(), []Turn{{Role: RoleUser, Text: "fix typo"}})

	require.NoError(t, err)
	assert.True(t, reply.Pasteable)
	assert.Equal(t, "the quick fox", reply.Candidate)
	assert.Equal(t, "Fixed it.", reply.Text)
}

func TestSendTurnUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	})

	_, err := c.SendTurn(context.Background(), []Turn{{Role: RoleUser, Text: "hello"}})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "API key rejected")
}

func TestSendTurnServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.SendTurn(context.Background(), []Turn{{Role: RoleUser, Text: "hello"}})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "503")
}

func TestSendTurnEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := c.SendTurn(context.Background(), []Turn{{Role: RoleUser, Text: "hello"}})
	assert.Error(t, err)
}

func TestSendTurnCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SendTurn(ctx, []Turn{{Role: RoleUser, Text: "hello"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProvider(t *testing.T) {
	cfg := config.LLMConfig{Provider: "groq", APIKey: "k", Model: "m"}
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())

	cfg.Provider = "openai"
	p, err = NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	cfg.Provider = "anthropic"
	_, err = NewProvider(cfg)
	assert.Error(t, err)
}

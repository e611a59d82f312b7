package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"markestedt/snipai/config"
)

const (
	groqEndpoint   = "https://api.groq.com/openai/v1/chat/completions"
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
)

// APIError is a non-2xx response from the provider
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return fmt.Sprintf("API key rejected (status %d); check llm.api_key in the config", e.Status)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}

// client speaks the OpenAI-compatible chat completions wire format, which
// both Groq and OpenAI serve.
type client struct {
	name        string
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	http        *http.Client
}

func newClient(name, endpoint string, cfg config.LLMConfig) *client {
	return &client{
		name:        name,
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name returns the provider name
func (c *client) Name() string {
	return c.name
}

// SendTurn sends the full conversation history, system prompt prepended, and
// classifies the assistant's reply.
func (c *client) SendTurn(ctx context.Context, history []Turn) (Reply, error) {
	messages := make([]map[string]string, 0, len(history)+1)
	messages = append(messages, map[string]string{
		"role":    string(RoleSystem),
		"content": systemPrompt,
	})
	for _, t := range history {
		messages = append(messages, map[string]string{
			"role":    string(t.Role),
			"content": t.Text,
		})
	}

	reqBody := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to call %s API: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Reply{}, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Reply{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return Reply{}, fmt.Errorf("no response from %s", c.name)
	}

	raw := strings.TrimSpace(result.Choices[0].Message.Content)
	if raw == "" {
		return Reply{}, fmt.Errorf("empty response from %s", c.name)
	}

	return ExtractEnhanced(raw), nil
}

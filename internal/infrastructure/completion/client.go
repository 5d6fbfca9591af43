// Package completion is the HTTP boundary to the external language-model
// service used for fallback parsing. The reply is opaque text; the
// interpreter decides whether it is usable.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/ports"
)

const systemPrompt = "You translate natural-language requests into safe, " +
	"minimal shell commands and reply only with the requested JSON."

// Client talks a chat-completions shaped API.
type Client struct {
	config     domain.CompletionConfig
	httpClient *http.Client
}

// NewClient builds a completion client from configuration. A nil
// httpClient falls back to a default with the standard timeout.
func NewClient(config domain.CompletionConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: domain.DefaultHTTPClientTimeout}
	}
	return &Client{config: config, httpClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements ports.CompletionService.
func (c *Client) Complete(ctx context.Context, prompt string, _ domain.PromptContext) (string, error) {
	endpoint := c.config.Endpoint
	if endpoint == "" {
		return "", fmt.Errorf("completion endpoint not configured")
	}
	apiKey := ""
	if c.config.AuthEnvVar != "" {
		apiKey = os.Getenv(c.config.AuthEnvVar)
	}

	payload := chatRequest{
		Model:     c.config.Model,
		MaxTokens: valueOrDefaultInt(c.config.MaxTokens, 512),
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("content-type", "application/json")
	if apiKey != "" {
		req.Header.Set("authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("completion service: %s", resp.Status)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion service returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

func valueOrDefaultInt(value int, def int) int {
	if value == 0 {
		return def
	}
	return value
}

var _ ports.CompletionService = (*Client)(nil)

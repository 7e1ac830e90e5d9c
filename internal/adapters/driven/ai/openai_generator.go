package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
	"github.com/plantops/advisor-core/internal/core/ports/driven"
)

// Ensure OpenAIGenerator implements Generator
var _ driven.Generator = (*OpenAIGenerator)(nil)

// OpenAIGenerator implements Generator against an OpenAI-compatible
// chat-completions API. The base URL is configurable so any compatible
// backend (OpenAI, vLLM, Ollama's compat endpoint) works.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIGenerator creates a new chat-completions generator
func NewOpenAIGenerator(apiKey, model, baseURL string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIGenerator{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// chatMessage is one message in a chat-completions request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat-completions API
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatResponse is the response from the chat-completions API
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Generate turns a context bundle into a response. Any transport or API
// failure wraps domain.ErrGenerationFailed so the caller can hard-fail
// the request.
func (g *OpenAIGenerator) Generate(ctx context.Context, bundle domain.ContextBundle) (string, error) {
	messages := buildMessages(bundle)

	body, err := json.Marshal(chatRequest{Model: g.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrGenerationFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrGenerationFailed, err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", domain.ErrGenerationFailed, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: API error: %s (type: %s, code: %s)",
			domain.ErrGenerationFailed, chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API returned status %d", domain.ErrGenerationFailed, resp.StatusCode)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// buildMessages flattens the bundle into a chat transcript: a system
// prompt carrying retrieved context and profile traits, recent history,
// then the current query.
func buildMessages(bundle domain.ContextBundle) []chatMessage {
	var system strings.Builder
	system.WriteString("You are a plant operations advisor. Answer using the knowledge excerpts when they are relevant.")

	if len(bundle.Chunks) > 0 {
		system.WriteString("\n\nKnowledge excerpts:\n")
		for i, chunk := range bundle.Chunks {
			fmt.Fprintf(&system, "%d. %s\n", i+1, chunk.Content)
		}
	}

	if len(bundle.Profile) > 0 {
		system.WriteString("\nUser traits:\n")
		for k, v := range bundle.Profile {
			fmt.Fprintf(&system, "- %s: %s\n", k, v)
		}
	}

	messages := []chatMessage{{Role: "system", Content: system.String()}}

	for _, turn := range bundle.History {
		messages = append(messages,
			chatMessage{Role: "user", Content: turn.UserText},
			chatMessage{Role: "assistant", Content: turn.ResponseText},
		)
	}

	return append(messages, chatMessage{Role: "user", Content: bundle.Query})
}

// HealthCheck verifies the generation backend is reachable
func (g *OpenAIGenerator) HealthCheck(ctx context.Context) error {
	_, err := g.Generate(ctx, domain.ContextBundle{Query: "health check"})
	return err
}

// Close releases resources held by the generator
func (g *OpenAIGenerator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

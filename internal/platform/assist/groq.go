// Package assist wraps the hosted AI collaborators used by the practice:
// speech-to-text dictation and chat completions (Groq's OpenAI-compatible
// API) and multimodal image Q&A (the Gemini REST API). Every call is a
// single synchronous pass-through with no retry or backoff; transient
// upstream failures surface to the caller as terminal errors.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

var (
	// ErrNotConfigured means the API key for the requested service is absent.
	ErrNotConfigured = errors.New("assist service not configured")
	// ErrUpstream means the hosted API rejected or failed the call.
	ErrUpstream = errors.New("assist upstream error")
)

const defaultTimeout = 60 * time.Second

// GroqConfig configures the Groq-compatible client.
type GroqConfig struct {
	APIKey          string
	BaseURL         string // e.g. https://api.groq.com/openai/v1
	TranscribeModel string // e.g. whisper-large-v3
	ChatModel       string // e.g. mixtral-8x7b-32768
}

// GroqClient calls the Groq OpenAI-compatible endpoints.
type GroqClient struct {
	cfg  GroqConfig
	http *http.Client
}

func NewGroqClient(cfg GroqConfig) *GroqClient {
	return &GroqClient{
		cfg:  cfg,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// Configured reports whether an API key is present.
func (c *GroqClient) Configured() bool { return c.cfg.APIKey != "" }

// Transcribe sends recorded audio to the transcription endpoint and returns
// the plain-text transcript.
func (c *GroqClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := w.WriteField("model", c.cfg.TranscribeModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError("transcription", resp)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode transcription response: %v", ErrUpstream, err)
	}
	return out.Text, nil
}

// ChatMessage is one turn of a chat-completions conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat sends a conversation to the chat-completions endpoint and returns
// the assistant's reply.
func (c *GroqClient) Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload := map[string]interface{}{
		"model":    c.cfg.ChatModel,
		"messages": messages,
	}
	if maxTokens > 0 {
		payload["max_tokens"] = maxTokens
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError("chat", resp)
	}

	var out struct {
		Choices []struct {
			Message ChatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode chat response: %v", ErrUpstream, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response contained no choices", ErrUpstream)
	}
	return out.Choices[0].Message.Content, nil
}

func upstreamError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %s returned %d: %s", ErrUpstream, op, resp.StatusCode, bytes.TrimSpace(snippet))
}

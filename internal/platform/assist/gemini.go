package assist

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// GeminiConfig configures the multimodal Q&A client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string // e.g. https://generativelanguage.googleapis.com/v1beta
	Model   string // e.g. gemini-1.5-flash
}

// GeminiClient answers free-text questions about an image via the Gemini
// generateContent REST endpoint.
type GeminiClient struct {
	cfg  GeminiConfig
	http *http.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	return &GeminiClient{
		cfg:  cfg,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// Configured reports whether an API key is present.
func (c *GeminiClient) Configured() bool { return c.cfg.APIKey != "" }

// AnalyzeImage sends the image bytes and question in a single request and
// returns the answer text.
func (c *GeminiClient) AnalyzeImage(ctx context.Context, image []byte, mimeType, question string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]string{
							"mime_type": mimeType,
							"data":      base64.StdEncoding.EncodeToString(image),
						},
					},
					{"text": question},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generateContent request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError("image analysis", resp)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode generateContent response: %v", ErrUpstream, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: generateContent response contained no candidates", ErrUpstream)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var _ Generator = (*HTTPGenerator)(nil)

// Config holds configuration for the HTTP generator.
type Config struct {
	APIKey     string
	BaseURL    string // optional, defaults to https://api.openai.com/v1
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// HTTPGenerator talks to an OpenAI compatible API.
type HTTPGenerator struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *http.Client
}

// NewHTTP creates an HTTPGenerator instance.
func NewHTTP(cfg Config) (*HTTPGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generator: api key required")
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPGenerator{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Generate performs one request. It never retries.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}
	switch req.Kind {
	case KindText, "":
		return g.text(ctx, req.Prompt)
	case KindImage:
		return g.image(ctx, req.Prompt)
	default:
		return Result{}, fmt.Errorf("generator: unsupported kind %q", req.Kind)
	}
}

func (g *HTTPGenerator) text(ctx context.Context, prompt string) (Result, error) {
	payload := map[string]interface{}{
		"model":    g.textModel,
		"messages": []chatMessage{{Role: "user", Content: prompt}},
		"stream":   false,
	}
	var resp chatResponse
	if err := g.post(ctx, "/chat/completions", payload, &resp); err != nil {
		return Result{}, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Result{}, errors.New("generator: empty completion")
	}
	return Result{Text: strings.TrimSpace(resp.Choices[0].Message.Content), Model: resp.Model}, nil
}

func (g *HTTPGenerator) image(ctx context.Context, prompt string) (Result, error) {
	payload := map[string]interface{}{
		"model":  g.imageModel,
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	}
	// gpt-image models only answer with b64_json and reject response_format
	if strings.HasPrefix(g.imageModel, "dall-e") {
		payload["response_format"] = "url"
	}
	var resp imageResponse
	if err := g.post(ctx, "/images/generations", payload, &resp); err != nil {
		return Result{}, err
	}
	if len(resp.Data) == 0 {
		return Result{}, errors.New("generator: no image returned")
	}
	img := resp.Data[0]
	switch {
	case img.URL != "":
		return Result{ImageURL: img.URL, Model: g.imageModel}, nil
	case img.B64JSON != "":
		return Result{ImageURL: "data:image/png;base64," + img.B64JSON, Model: g.imageModel}, nil
	default:
		return Result{}, errors.New("generator: image without url")
	}
}

func (g *HTTPGenerator) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("generator: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("generator: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("generator: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("generator: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("generator: %s (type=%s)", errResp.Error.Message, errResp.Error.Type)
		}
		return fmt.Errorf("generator: http %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("generator: unmarshal response: %w", err)
	}
	return nil
}

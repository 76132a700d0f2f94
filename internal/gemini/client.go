// Package gemini is a typed net/http client for the generative-language
// REST API: text generation, vision input, image generation, and model
// listing. One blocking call at a time; no retry, no backoff — a transient
// failure is fatal for that single call.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"askgemini/internal/apperr"
	"askgemini/internal/config"
)

// defaultSafetySettings mirror the thresholds the tool has always sent.
var defaultSafetySettings = []SafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Client issues requests against one API root with one credential.
type Client struct {
	apiKey     string
	baseURL    string
	generation GenerationConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client from configuration. The logger may be nil.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		generation: GenerationConfig{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Generate sends the assembled turns to model and extracts the first
// candidate's first text part. Outcomes:
//
//   - text present: (text, nil, nil)
//   - provider error payload: api-kind error, nothing else
//   - no text but a non-STOP completion reason: ("", diagnostic, nil)
//   - network/HTTP/decode failure: transport-kind error
func (c *Client) Generate(ctx context.Context, model string, contents []Content) (string, *Diagnostic, error) {
	if c.apiKey == "" {
		return "", nil, apperr.Newf(apperr.KindConfig, "API key not configured")
	}
	if len(contents) == 0 {
		return "", nil, apperr.Newf(apperr.KindUsage, "empty request: no turns to send")
	}

	reqBody := Request{
		Contents:         contents,
		GenerationConfig: c.generation,
		SafetySettings:   defaultSafetySettings,
	}

	start := time.Now()
	c.logger.Debug("generate request",
		zap.String("model", model),
		zap.Int("turns", len(contents)))

	resp, err := c.post(ctx, fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey), reqBody)
	if err != nil {
		return "", nil, err
	}

	if resp.Error != nil {
		return "", nil, apperr.Newf(apperr.KindAPI, "API error: %s", resp.Error.Message)
	}

	text, diag := extractText(resp)
	c.logger.Debug("generate response",
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(text)),
		zap.Bool("partial", diag != nil))
	return text, diag, nil
}

// extractText pulls the first candidate's first text part, or builds a
// diagnostic when generation stopped for a non-STOP reason.
func extractText(resp *Response) (string, *Diagnostic) {
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return strings.TrimSpace(part.Text), nil
			}
		}
		// A candidate with no text: report why generation stopped.
		diag := &Diagnostic{
			FinishReason:  cand.FinishReason,
			SafetyRatings: cand.SafetyRatings,
		}
		if resp.PromptFeedback != nil {
			diag.BlockReason = resp.PromptFeedback.BlockReason
			if len(diag.SafetyRatings) == 0 {
				diag.SafetyRatings = resp.PromptFeedback.SafetyRatings
			}
		}
		return "", diag
	}

	diag := &Diagnostic{}
	if resp.PromptFeedback != nil {
		diag.BlockReason = resp.PromptFeedback.BlockReason
		diag.SafetyRatings = resp.PromptFeedback.SafetyRatings
	}
	return "", diag
}

// GenerateImage asks an image-capable model for a picture and returns the
// raw bytes of the first inline-data part plus its MIME type.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	if c.apiKey == "" {
		return nil, "", apperr.Newf(apperr.KindConfig, "API key not configured")
	}

	gen := c.generation
	gen.ResponseModalities = []string{"TEXT", "IMAGE"}
	reqBody := Request{
		Contents:         []Content{UserTurn(prompt)},
		GenerationConfig: gen,
	}

	resp, err := c.post(ctx, fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey), reqBody)
	if err != nil {
		return nil, "", err
	}
	if resp.Error != nil {
		return nil, "", apperr.Newf(apperr.KindAPI, "API error: %s", resp.Error.Message)
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, "", apperr.New(apperr.KindAPI, "failed to decode inline image data", err)
			}
			return raw, part.InlineData.MIMEType, nil
		}
	}
	return nil, "", apperr.Newf(apperr.KindAPI, "response contained no image data")
}

// ListModels fetches the available model catalog.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if c.apiKey == "" {
		return nil, apperr.Newf(apperr.KindConfig, "API key not configured")
	}

	url := fmt.Sprintf("%s/models?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "failed to create request", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "request failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "failed to read response", err)
	}

	var listResp modelListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, apperr.New(apperr.KindTransport,
			fmt.Sprintf("failed to parse response (status %d)", httpResp.StatusCode), err)
	}
	if listResp.Error != nil {
		return nil, apperr.Newf(apperr.KindAPI, "API error: %s", listResp.Error.Message)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindTransport,
			"API request failed with status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}
	return listResp.Models, nil
}

// post issues one JSON POST and decodes the response envelope. The provider
// reports request-level errors inside the body even on non-200 statuses, so
// the envelope error wins over the HTTP status.
func (c *Client) post(ctx context.Context, url string, reqBody Request) (*Response, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "request failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindTransport, "failed to read response", err)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.New(apperr.KindTransport,
			fmt.Sprintf("failed to parse response (status %d)", httpResp.StatusCode), err)
	}

	if resp.Error == nil && httpResp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindTransport,
			"API request failed with status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &resp, nil
}

// ImagePart reads an image file into an inline-data part for vision input.
func ImagePart(path string) (Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Part{}, apperr.Newf(apperr.KindUsage, "image file not found: %s", path)
		}
		return Part{}, apperr.New(apperr.KindUsage, "failed to read image file", err)
	}

	mimeType := mimeTypeForImage(path, data)
	return Part{InlineData: &InlineData{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}

// mimeTypeForImage prefers the extension and falls back to content sniffing.
func mimeTypeForImage(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}

// ExtensionForMIME maps an image MIME type to a file extension for saving
// generated images.
func ExtensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".bin"
}

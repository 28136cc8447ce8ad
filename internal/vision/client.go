// Package vision provides the client for the external vision-language
// service that performs table extraction from screenshots.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gridsnap/gridsnap/internal/domain"
	"github.com/gridsnap/gridsnap/internal/observability"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1/chat/completions"
	defaultModel     = "gpt-4o"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 4096

	// Low temperature keeps the cell transcription deterministic.
	extractionTemperature = 0.1
)

// Client handles communication with an OpenAI-compatible chat-completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	maxTokens  int
	httpClient *http.Client
	logger     *observability.Logger
}

// ClientConfig holds vision client settings.
type ClientConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
	Logger    *observability.Logger
}

// Message represents a chat message.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image).
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message.
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents the API request structure.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// Response represents the API response structure.
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice.
type Choice struct {
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChoiceMessage represents the assistant message in a completion choice.
type ChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewClient creates a new vision client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.Nop()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{},
		logger:     cfg.Logger.WithComponent("vision"),
	}
}

// ExtractTable sends the image to the vision service and parses the reply
// into a table. One outbound call per invocation; no retries.
func (c *Client) ExtractTable(ctx context.Context, image []byte, contentType string) (*domain.Table, error) {
	if c.apiKey == "" {
		return nil, domain.ExtractionError("vision API credential is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(c.buildRequest(image, contentType))
	if err != nil {
		return nil, domain.ExtractionError("marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, domain.ExtractionError("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn().Dur("elapsed", time.Since(start)).Msg("Vision call abandoned on timeout")
			return nil, domain.TimeoutError(fmt.Sprintf("vision call exceeded %s", c.timeout))
		}
		return nil, domain.ExtractionError("send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.ExtractionError(
			fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, domain.ExtractionError("decode API response", err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, domain.ExtractionError("no choices in API response", nil)
	}

	table, err := ParseTableContent(apiResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int("headers", len(table.Headers)).
		Int("rows", len(table.Rows)).
		Msg("Extraction complete")

	return table, nil
}

// buildRequest constructs the API request with the encoded image.
func (c *Client) buildRequest(image []byte, contentType string) *Request {
	if contentType == "" {
		contentType = "image/png"
	}

	imageURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)

	msg := Message{
		Role: "user",
		Content: []ContentPart{
			{
				Type: "text",
				Text: buildPrompt(),
			},
			{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: imageURL},
			},
		},
	}

	return &Request{
		Model:       c.model,
		Messages:    []Message{msg},
		MaxTokens:   c.maxTokens,
		Temperature: extractionTemperature,
	}
}

// buildPrompt creates the fixed extraction instruction.
func buildPrompt() string {
	return `Analyze this image and extract any table data you find.
Return ONLY a valid JSON object with this exact structure:
{
    "headers": ["Column1", "Column2", ...],
    "rows": [
        ["cell1", "cell2", ...],
        ["cell1", "cell2", ...]
    ]
}

Rules:
- Extract all visible table data accurately
- Preserve the exact text content of each cell
- Headers should be the first row or the column labels
- Each row must have the same number of cells as there are headers
- Return ONLY the JSON, no other text or markdown
- If no table is found, return empty arrays for headers and rows`
}

// isTimeout reports whether the transport error is the bounded-deadline
// expiring rather than some other failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

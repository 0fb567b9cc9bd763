// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vision sends encoded page images to a multimodal model through the
// OpenRouter chat-completions API and returns the Markdown it produces.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/pagemark/internal/httputil"
	"github.com/pdiddy/pagemark/pkg/types"
)

// openRouterURL is the chat-completions endpoint. Package-level var for
// test substitution.
var openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

const defaultTimeout = 2 * time.Minute

// systemPrompt instructs the model to return page content as bare Markdown.
const systemPrompt = `Convert the following document to markdown.
Return only the markdown with no explanation text. Do not include delimiters like ` + "```markdown or ```html" + `.

RULES:
  - You must include all information on the page. Do not exclude headers, footers, or subtext.
  - Return tables in an HTML format.
  - Charts & infographics must be interpreted to a markdown format. Prefer table format when applicable.
  - Logos should be wrapped in brackets. Ex: <logo>Coca-Cola<logo>
  - Watermarks should be wrapped in brackets. Ex: <watermark>OFFICIAL COPY<watermark>
  - Page numbers should be wrapped in brackets. Ex: <page_number>14<page_number> or <page_number>9/22<page_number>
  - Prefer using ☐ and ☑ for check boxes.`

// Caller abstracts the model endpoint so the pipeline can be tested with a
// mock. One encoded image and a prompt go in; Markdown for that page comes
// out.
type Caller interface {
	Markdown(ctx context.Context, img types.EncodedImage, prompt string) (string, error)
}

// Client calls the OpenRouter API.
type Client struct {
	cfg    types.ModelConfig
	client *http.Client
}

// NewClient creates an OpenRouter client from the model configuration.
func NewClient(cfg types.ModelConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = types.DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// contentPart is one part of a message: text or an image.
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Markdown submits one image plus the prompt and returns the model's
// Markdown for that page.
func (c *Client) Markdown(ctx context.Context, img types.EncodedImage, prompt string) (string, error) {
	dataURL := "data:" + img.Encoding.MIME() + ";base64," +
		base64.StdEncoding.EncodeToString(img.Data)

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: []contentPart{{Type: "text", Text: systemPrompt}},
			},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	// Optional attribution headers for OpenRouter rankings.
	if c.cfg.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
	}
	if c.cfg.AppName != "" {
		req.Header.Set("X-Title", c.cfg.AppName)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling model API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("model API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding model response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("model API returned no choices")
	}

	return cResp.Choices[0].Message.Content, nil
}

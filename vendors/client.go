// Package vendors talks to the OpenAI-compatible model endpoints: a vision
// call for OCR and a text call for task analysis.
package vendors

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/models"
)

var logger = log.GetLogger("Vendors")

// requestTimeout bounds one chat completion. Both models can be slow, so
// this is generous; cancellation still flows through the request context.
const requestTimeout = 60 * time.Second

// ChatClient is the surface the pipeline needs from a model endpoint.
// Implemented by Client; tests substitute fakes.
type ChatClient interface {
	ChatText(ctx context.Context, system, user string) (string, error)
	ChatVision(ctx context.Context, prompt string, jpegData []byte) (string, error)
}

// Client wraps a go-openai client configured for one endpoint
type Client struct {
	api   *openai.Client
	model string
}

// appIDTransport adds the X-App-ID header some gateways require
type appIDTransport struct {
	appID string
	base  http.RoundTripper
}

func (t appIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("X-App-ID", t.appID)
	return t.base.RoundTrip(clone)
}

// NewClient builds a chat client from a model configuration
func NewClient(cfg models.ModelConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key not configured")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("model name not configured")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	if cfg.AppID != "" {
		httpClient.Transport = appIDTransport{appID: cfg.AppID, base: http.DefaultTransport}
	}
	clientConfig.HTTPClient = httpClient

	return &Client{
		api:   openai.NewClientWithConfig(clientConfig),
		model: cfg.ModelName,
	}, nil
}

// ChatText performs a plain text completion
func (c *Client) ChatText(ctx context.Context, system, user string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return firstChoice(resp)
}

// ChatVision performs a completion with one inline JPEG image part
func (c *Client) ChatVision(ctx context.Context, prompt string, jpegData []byte) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a precise OCR engine. Output raw text only.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	return firstChoice(resp)
}

func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

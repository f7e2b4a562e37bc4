package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2048

// AnthropicClient implements Completer on the Anthropic Messages API
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a client; baseURL may be empty for the public API
func NewAnthropicClient(apiKey, baseURL string, timeout time.Duration) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...)}
}

// Complete sends one message and concatenates the text blocks of the reply
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if req.Image != nil {
		encoded := base64.StdEncoding.EncodeToString(req.Image.Data)
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.Image.MediaType, encoded))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	// the Messages API has no JSON mode
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n" + jsonOnlyInstruction)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", errors.New("no response from API")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

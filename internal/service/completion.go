package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultChatURL     = "https://api.openai.com/v1/chat/completions"
	defaultLLMTimeout  = 90 * time.Second
	maxErrorBodyLength = 1024
)

// ImageInput is an image attached to a completion request
type ImageInput struct {
	Data      []byte
	MediaType string
}

// CompletionRequest is a single-turn prompt to a chat model
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Image       *ImageInput
	Temperature float64
	// JSON asks the model to answer with a single JSON object
	JSON bool
}

// Completer sends a prompt to a language model and returns its text reply
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint
type ChatClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewChatClient creates a client for the given endpoint; an empty URL means OpenAI
func NewChatClient(apiKey, apiURL string, timeout time.Duration) *ChatClient {
	if apiURL == "" {
		apiURL = defaultChatURL
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &ChatClient{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Message represents a message in the chat. Content is either a string or a
// list of content parts when an image is attached.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Request represents a chat completions request
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature"`
}

// Complete sends one request and returns the first choice's content
func (c *ChatClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]Message, 0, 2)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}

	if req.Image != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.Image.MediaType, base64.StdEncoding.EncodeToString(req.Image.Data))
		messages = append(messages, Message{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		})
	} else {
		messages = append(messages, Message{Role: "user", Content: req.Prompt})
	}

	reqBody := Request{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.JSON {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

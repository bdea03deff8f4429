// Package chatapi is a client for the financial-assistant chat backend.
package chatapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultBaseURL is the hosted chat backend.
	DefaultBaseURL = "https://hacknu-4bou.onrender.com/api/v1"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 20 * time.Second
)

// MessageDTO is a chat message as the backend returns it. Every field may be
// missing.
type MessageDTO struct {
	ID        string `json:"id,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// GetChatResponse is the body of GET /get-chat/{chatId}.
type GetChatResponse struct {
	ID   string `json:"id"`
	Data struct {
		Messages []MessageDTO `json:"messages"`
	} `json:"data"`
}

type promptRequest struct {
	Content string `json:"content"`
}

// APIError is returned for transport failures and non-2xx responses.
type APIError struct {
	Status  int    // 0 for transport failures
	Message string // "message" field of the error body, if any
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Status != 0:
		return fmt.Sprintf("HTTP %d", e.Status)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "Unknown error"
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorMessage returns the text shown to the user for a failed request.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}

// Client talks to the chat backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. An empty baseURL selects DefaultBaseURL and a
// non-positive timeout selects DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendPrompt posts a user prompt to a chat. The response shape is defined by
// the backend and returned raw.
func (c *Client) SendPrompt(ctx context.Context, chatID, content string) (json.RawMessage, error) {
	body, err := json.Marshal(promptRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, "/llm-prompt/"+url.PathEscape(chatID), body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// GetChat fetches a chat with its full message history.
func (c *Client) GetChat(ctx context.Context, chatID string) (*GetChatResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/get-chat/"+url.PathEscape(chatID), nil)
	if err != nil {
		return nil, err
	}
	var resp GetChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &APIError{Err: fmt.Errorf("decode chat: %w", err)}
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &errBody)
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: errBody.Message,
			Err:     fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode),
		}
	}
	return data, nil
}

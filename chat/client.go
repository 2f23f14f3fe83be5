// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/plateforge/plateforge/lib/netutil"
	"github.com/plateforge/plateforge/lib/secret"
)

// API is the surface the bot front-end consumes. Client implements
// it; tests substitute a fake.
type API interface {
	// GetMe returns the bot's own identity. Used at startup to
	// verify the token.
	GetMe(ctx context.Context) (*User, error)

	// GetUpdates long-polls for updates after offset. Blocks up to
	// timeoutSeconds server-side; an empty slice means the poll
	// timed out with nothing new.
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error)

	// SendMessage posts a text message to a chat.
	SendMessage(ctx context.Context, chatID int64, text string) (*Message, error)

	// EditMessageText replaces the text of a previously sent
	// message. Used for in-place progress updates.
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string) (*Message, error)

	// SendDocument uploads a file to a chat.
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) (*Message, error)
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API base (e.g. "https://api.telegram.org").
	// Required.
	BaseURL string
	// Token is the bot token. Required. The client borrows the
	// buffer; the caller keeps it alive for the client's lifetime.
	Token *secret.Buffer
	// HTTPClient is used for all requests. If nil,
	// http.DefaultClient is used. GetUpdates needs a client whose
	// timeout exceeds the long-poll window (or none at all).
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client talks to the bot messaging API over HTTP.
type Client struct {
	baseURL    string
	token      *secret.Buffer
	httpClient *http.Client
	logger     *slog.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a bot API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("chat: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("chat: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if config.Token == nil {
		return nil, fmt.Errorf("chat: Token is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetMe returns the bot's own identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	result, err := c.doRequest(ctx, "getMe", nil)
	if err != nil {
		return nil, fmt.Errorf("chat: getMe failed: %w", err)
	}
	var user User
	if err := json.Unmarshal(result, &user); err != nil {
		return nil, fmt.Errorf("chat: failed to parse getMe result: %w", err)
	}
	return &user, nil
}

// GetUpdates long-polls for updates with update_id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	params := map[string]any{
		"offset":  offset,
		"timeout": timeoutSeconds,
		// Only message updates; everything else is noise for a
		// command bot.
		"allowed_updates": []string{"message"},
	}
	result, err := c.doRequest(ctx, "getUpdates", params)
	if err != nil {
		return nil, fmt.Errorf("chat: getUpdates failed: %w", err)
	}
	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("chat: failed to parse updates: %w", err)
	}
	return updates, nil
}

// SendMessage posts a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (*Message, error) {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	result, err := c.doRequest(ctx, "sendMessage", params)
	if err != nil {
		return nil, fmt.Errorf("chat: sendMessage failed: %w", err)
	}
	return parseMessage(result)
}

// EditMessageText replaces the text of a previously sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) (*Message, error) {
	params := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	result, err := c.doRequest(ctx, "editMessageText", params)
	if err != nil {
		return nil, fmt.Errorf("chat: editMessageText failed: %w", err)
	}
	return parseMessage(result)
}

// SendDocument uploads a file as a multipart form. The content is
// held in memory — generated archives are small enough that streaming
// is not worth the complexity.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) (*Message, error) {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	if err := writer.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return nil, fmt.Errorf("chat: building upload form: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return nil, fmt.Errorf("chat: building upload form: %w", err)
		}
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return nil, fmt.Errorf("chat: building upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("chat: building upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("chat: building upload form: %w", err)
	}

	result, err := c.doRequestRaw(ctx, "sendDocument", writer.FormDataContentType(), &form)
	if err != nil {
		return nil, fmt.Errorf("chat: sendDocument failed: %w", err)
	}
	return parseMessage(result)
}

func parseMessage(result json.RawMessage) (*Message, error) {
	var message Message
	if err := json.Unmarshal(result, &message); err != nil {
		return nil, fmt.Errorf("chat: failed to parse message result: %w", err)
	}
	return &message, nil
}

// doRequest performs a JSON API call and returns the result payload.
// On an API-level failure (ok=false) it returns an *APIError.
func (c *Client) doRequest(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if params != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	return c.send(request, method)
}

// doRequestRaw performs an API call with a caller-built body (for
// multipart uploads).
func (c *Client) doRequestRaw(ctx context.Context, method, contentType string, body io.Reader) (json.RawMessage, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", contentType)
	return c.send(request, method)
}

// methodURL builds the per-method endpoint. The token is part of the
// URL path — the platform's convention, not ours.
func (c *Client) methodURL(method string) string {
	return c.baseURL + "/bot" + c.token.String() + "/" + method
}

func (c *Client) send(request *http.Request, method string) (json.RawMessage, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request for %s failed: %w", method, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadBody(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", method, err)
	}

	// Every response, success or failure, carries the envelope.
	var envelope apiResponse
	if err := json.Unmarshal(responseBody, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected %d response for %s: %s",
			response.StatusCode, method, string(responseBody))
	}
	if !envelope.OK {
		return nil, &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	return envelope.Result, nil
}

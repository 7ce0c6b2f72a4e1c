// Package telegram is a minimal Bot API client: the bot only ever needs
// sendMessage.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
}

// NewClient builds a client for the given bot token. A nil httpc gets a
// client with a 10s timeout.
func NewClient(token string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{token: token, baseURL: defaultBaseURL, httpc: httpc}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers one plain-text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	url := c.baseURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("read sendMessage response: %w", err)
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return fmt.Errorf("decode sendMessage response (status %d): %w", resp.StatusCode, err)
	}
	if !api.OK {
		return fmt.Errorf("sendMessage rejected (status %d): %s", resp.StatusCode, api.Description)
	}
	return nil
}

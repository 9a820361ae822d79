package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.telegram.org"

type Client struct {
	token  string
	client *resty.Client
}

func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)

	return &Client{
		token:  token,
		client: client,
	}
}

type sendMessageReq struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
	// Markdown stays off: error texts carry arbitrary characters.
	DisableWebPagePreview bool `json:"disable_web_page_preview"`
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("token", c.token).
		SetBody(sendMessageReq{
			ChatID:                chatID,
			Text:                  text,
			DisableWebPagePreview: true,
		}).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram api returned status: %s, body: %s", resp.Status(), resp.String())
	}
	return nil
}

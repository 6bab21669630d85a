// Package line adapts the LINE Messaging API webhook and reply endpoints.
package line

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the request body.
const SignatureHeader = "X-Line-Signature"

// ErrInvalidSignature is returned when a webhook body fails verification.
var ErrInvalidSignature = webhook.ErrInvalidSignature

// TextMessage is a text message event from an identified sender.
type TextMessage struct {
	ReplyToken string
	UserID     string
	Text       string
}

// ParseTextMessages verifies the webhook signature of r and returns its text
// message events in delivery order. ignored counts the other events.
func ParseTextMessages(channelSecret string, r *http.Request) (messages []TextMessage, ignored int, err error) {
	if channelSecret == "" {
		return nil, 0, ErrInvalidSignature
	}

	cb, err := webhook.ParseRequest(channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return nil, 0, ErrInvalidSignature
		}
		return nil, 0, fmt.Errorf("failed to parse webhook: %w", err)
	}

	for _, event := range cb.Events {
		msg, ok := textMessage(event)
		if !ok {
			ignored++
			continue
		}
		messages = append(messages, msg)
	}
	return messages, ignored, nil
}

func textMessage(event webhook.EventInterface) (TextMessage, bool) {
	e, ok := event.(webhook.MessageEvent)
	if !ok {
		return TextMessage{}, false
	}
	content, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		return TextMessage{}, false
	}

	var userID string
	switch s := e.Source.(type) {
	case webhook.UserSource:
		userID = s.UserId
	case webhook.GroupSource:
		userID = s.UserId
	case webhook.RoomSource:
		userID = s.UserId
	}
	if userID == "" {
		return TextMessage{}, false
	}

	return TextMessage{
		ReplyToken: e.ReplyToken,
		UserID:     userID,
		Text:       content.Text,
	}, true
}

// maxTextLength is the LINE limit for one text message.
const maxTextLength = 5000

// Client sends replies through the Messaging API.
type Client struct {
	api *messaging_api.MessagingApiAPI
}

// NewClient creates a reply client. An empty baseURL uses the SDK default.
func NewClient(baseURL, accessToken string) (*Client, error) {
	var opts []messaging_api.MessagingApiAPIOption
	if baseURL != "" {
		opts = append(opts, messaging_api.WithEndpoint(baseURL))
	}

	api, err := messaging_api.NewMessagingApiAPI(accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging API client: %w", err)
	}
	return &Client{api: api}, nil
}

// Reply sends text as the single reply to replyToken.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	if r := []rune(text); len(r) > maxTextLength {
		text = string(r[:maxTextLength])
	}

	_, err := c.api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

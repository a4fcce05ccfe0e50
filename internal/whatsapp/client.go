// Package whatsapp implements the WhatsApp Cloud API outbound client and the
// webhook payload types consumed by the bot.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/piumal/stingraybot/internal/config"
)

// ErrDelivery indicates the Cloud API rejected or failed an outbound request.
var ErrDelivery = errors.New("whatsapp: delivery failed")

// Client sends messages through the WhatsApp Cloud API Graph endpoint.
type Client struct {
	httpClient    *http.Client
	log           *slog.Logger
	baseURL       string
	apiVersion    string
	phoneNumberID string
	token         string
}

// NewClient creates a Cloud API client from the given configuration.
func NewClient(cfg config.WhatsAppConfig, log *slog.Logger) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		log:           log.With("component", "whatsapp_client"),
		baseURL:       cfg.BaseURL,
		apiVersion:    cfg.APIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.Token,
	}
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
}

type messageContext struct {
	MessageID string `json:"message_id"`
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendTextRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	RecipientType    string          `json:"recipient_type"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Context          *messageContext `json:"context,omitempty"`
	Text             textPayload     `json:"text"`
}

type markReadRequest struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// SendText sends a text message to the given recipient. If replyToID is
// non-empty the message is threaded as a reply to that inbound message.
func (c *Client) SendText(ctx context.Context, to, body, replyToID string) error {
	req := sendTextRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textPayload{Body: body},
	}
	if replyToID != "" {
		req.Context = &messageContext{MessageID: replyToID}
	}

	if err := c.post(ctx, req); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}

	c.log.DebugContext(ctx, "Message sent", "recipient", to)
	return nil
}

// MarkRead marks an inbound message as read.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	req := markReadRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	}

	if err := c.post(ctx, req); err != nil {
		return fmt.Errorf("failed to mark message %s as read: %w", messageID, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, string(respBody))
	}

	return nil
}

package bot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/piumal/stingraybot/internal/whatsapp"
)

// Sender delivers replies back to the chat platform. The Cloud API client
// satisfies this; tests substitute fakes.
type Sender interface {
	SendText(ctx context.Context, to, body, replyToID string) error
	MarkRead(ctx context.Context, messageID string) error
}

// WebhookHandler serves the WhatsApp Cloud API webhook endpoints: the
// GET verification handshake and the POST message delivery endpoint.
type WebhookHandler struct {
	logger       *slog.Logger
	orchestrator *Orchestrator
	sender       Sender
	verifyToken  string
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(logger *slog.Logger, orchestrator *Orchestrator, sender Sender, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		logger:       logger.With("component", "webhook"),
		orchestrator: orchestrator,
		sender:       sender,
		verifyToken:  verifyToken,
	}
}

// RegisterRoutes attaches the webhook routes to the echo instance.
func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/whatsapp/webhook", h.Verify)
	e.POST("/whatsapp/webhook", h.Receive)
}

// Verify implements the Cloud API webhook verification handshake: echo the
// challenge when the mode and verify token match, refuse otherwise.
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		h.logger.Info("Webhook verified")
		return c.String(http.StatusOK, challenge)
	}

	h.logger.Warn("Webhook verification failed", "mode", mode)
	return c.String(http.StatusForbidden, "verification failed")
}

// Receive handles inbound message delivery. It always answers 200: downstream
// failures must not make the transport retry, the dedup gate already protects
// against genuine redelivery.
func (h *WebhookHandler) Receive(c echo.Context) error {
	var payload whatsapp.Payload
	if err := c.Bind(&payload); err != nil {
		h.logger.Warn("Dropping malformed webhook payload", "error", err)
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	for _, msg := range payload.Messages() {
		h.handleMessage(ctx, msg)
	}

	return c.NoContent(http.StatusOK)
}

func (h *WebhookHandler) handleMessage(ctx context.Context, msg whatsapp.InboundMessage) {
	if msg.Type != "text" || msg.Text == nil {
		h.logger.WarnContext(ctx, "Skipping unsupported message type",
			"type", msg.Type, "message_id", msg.ID)
		return
	}

	if err := h.sender.MarkRead(ctx, msg.ID); err != nil {
		h.logger.DebugContext(ctx, "Failed to mark message as read",
			"message_id", msg.ID, "error", err)
	}

	reply, err := h.orchestrator.HandleText(ctx, Event{
		ID:     msg.ID,
		Sender: msg.From,
		Text:   msg.Text.Body,
	})
	if errors.Is(err, ErrDuplicateEvent) {
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to process message",
			"message_id", msg.ID, "error", err)
		return
	}
	if reply == "" {
		return
	}

	if err := h.sender.SendText(ctx, msg.From, reply, msg.ID); err != nil {
		h.logger.ErrorContext(ctx, "Failed to deliver reply",
			"message_id", msg.ID, "error", err)
	}
}

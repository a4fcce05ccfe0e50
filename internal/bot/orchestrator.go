// Package bot implements the conversation orchestrator, the webhook
// transport, and lifecycle management for the WhatsApp relay bot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/piumal/stingraybot/internal/ai"
	"github.com/piumal/stingraybot/internal/dedup"
	"github.com/piumal/stingraybot/internal/session"
)

// ErrDuplicateEvent is returned when an inbound event id has already been
// processed; callers drop the event silently.
var ErrDuplicateEvent = errors.New("bot: duplicate event")

// Event is one inbound text message from the transport.
type Event struct {
	ID     string
	Sender string
	Text   string
}

// Orchestrator runs the per-event conversation loop: admit through the dedup
// gate, record the user turn, invoke the model with the accumulated history,
// record the reply, and hand the reply text back for outbound delivery.
type Orchestrator struct {
	logger    *slog.Logger
	store     session.Store
	gate      *dedup.Gate
	aiClient  ai.Client
	locks     *sessionLocks
	aiTimeout time.Duration
	apology   string
}

// NewOrchestrator creates an orchestrator. apology is the fixed user-visible
// reply substituted when the model call fails.
func NewOrchestrator(
	logger *slog.Logger,
	store session.Store,
	gate *dedup.Gate,
	aiClient ai.Client,
	aiTimeout time.Duration,
	apology string,
) *Orchestrator {
	return &Orchestrator{
		logger:    logger.With("component", "orchestrator"),
		store:     store,
		gate:      gate,
		aiClient:  aiClient,
		locks:     newSessionLocks(),
		aiTimeout: aiTimeout,
		apology:   apology,
	}
}

// HandleText processes one inbound text event and returns the reply text to
// deliver. It returns ErrDuplicateEvent for redelivered events, before any
// side-effecting work happens. An empty reply with a nil error means the
// backend produced no content and nothing should be sent.
func (o *Orchestrator) HandleText(ctx context.Context, evt Event) (string, error) {
	if evt.ID == "" || evt.Sender == "" {
		return "", fmt.Errorf("bot: malformed event: missing id or sender")
	}

	if !o.gate.CheckAndMark(evt.ID) {
		o.logger.DebugContext(ctx, "Dropping duplicate event", "event_id", evt.ID)
		return "", ErrDuplicateEvent
	}

	// Serialize processing per conversation so a second message from the
	// same user cannot interleave its store operations with this one.
	unlock := o.locks.lock(evt.Sender)
	defer unlock()

	userEntry := session.Entry{Role: session.RoleUser, Content: evt.Text}
	history, err := o.store.AppendAndRead(ctx, evt.Sender, userEntry)
	if err != nil {
		// Degraded path: the turn is not persisted, but the model can still
		// answer from the current message alone.
		o.logger.ErrorContext(ctx, "Session store unavailable, continuing without history",
			"event_id", evt.ID, "error", err)
		history = []session.Entry{userEntry}
	}

	aiCtx, cancel := context.WithTimeout(ctx, o.aiTimeout)
	defer cancel()
	reply, err := o.aiClient.GenerateReply(aiCtx, history)
	if err != nil {
		// The failed turn is never persisted as an assistant entry.
		o.logger.ErrorContext(ctx, "Model call failed, substituting fallback reply",
			"event_id", evt.ID, "error", err)
		return o.apology, nil
	}

	if reply == "" {
		o.logger.WarnContext(ctx, "Model returned empty reply", "event_id", evt.ID)
		return "", nil
	}

	if err := o.store.Append(ctx, evt.Sender, session.Entry{Role: session.RoleAssistant, Content: reply}); err != nil {
		o.logger.ErrorContext(ctx, "Failed to record assistant turn",
			"event_id", evt.ID, "error", err)
	}

	return reply, nil
}

// Package ai provides the interface and implementations for the
// conversational model backends used by the bot.
package ai

import (
	"context"

	"github.com/piumal/stingraybot/internal/session"
)

// Client generates a reply from an ordered conversation history. The fixed
// system instruction is supplied at construction and is present on every
// call; history is submitted in arrival order. An empty reply with a nil
// error means the backend returned no content.
type Client interface {
	GenerateReply(ctx context.Context, history []session.Entry) (string, error)
}

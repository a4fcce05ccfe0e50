// Package session stores per-user conversation history with a sliding idle
// expiry. A session is an ordered, append-only sequence of role-tagged
// entries; every append refreshes the idle timeout, after which the whole
// session is discarded.
package session

import "context"

// Role tags who produced a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Entry is a single conversation turn. Entries are immutable once appended
// and are replayed to the model in arrival order.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Store defines the session store operations. Raw user identifiers are hashed
// internally; callers never handle derived keys. A missing or expired session
// reads as an empty history, not an error; store errors indicate the backing
// store itself is unreachable or failed.
type Store interface {
	// Append adds entry to the session and refreshes its idle expiry as one
	// atomic unit.
	Append(ctx context.Context, rawID string, entry Entry) error

	// History returns the full current sequence for the session, or an empty
	// slice if the session does not exist or has expired.
	History(ctx context.Context, rawID string) ([]Entry, error)

	// AppendAndRead appends entry and returns the resulting full sequence
	// atomically, with no window where another operation could observe the
	// append without the refreshed expiry or miss the appended entry.
	AppendAndRead(ctx context.Context, rawID string, entry Entry) ([]Entry, error)

	// Ping checks the backing store connection.
	Ping(ctx context.Context) error
}

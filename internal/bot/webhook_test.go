package bot_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/piumal/stingraybot/internal/bot"
	"github.com/piumal/stingraybot/internal/logger"
)

type sentMessage struct {
	To        string
	Body      string
	ReplyToID string
}

// fakeSender records outbound deliveries.
type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	markRead []string
}

func (s *fakeSender) SendText(_ context.Context, to, body, replyToID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{To: to, Body: body, ReplyToID: replyToID})
	return nil
}

func (s *fakeSender) MarkRead(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markRead = append(s.markRead, messageID)
	return nil
}

func (s *fakeSender) sentMessages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

const verifyToken = "verify-secret"

func newTestServer(t *testing.T, aiClient *fakeAI) (*fakeStore, *fakeSender, http.Handler) {
	t.Helper()

	store := newFakeStore()
	sender := &fakeSender{}
	orch := newTestOrchestrator(store, aiClient)
	log := logger.NewLogger("error", false)
	handler := bot.NewWebhookHandler(log, orch, sender, verifyToken)
	return store, sender, bot.NewServer(log, handler)
}

func webhookPayload(messageID, from, text string) string {
	return `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "123",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [{
						"id": "` + messageID + `",
						"from": "` + from + `",
						"type": "text",
						"timestamp": "1725100000",
						"text": {"body": "` + text + `"}
					}]
				}
			}]
		}]
	}`
}

func TestVerify_Handshake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		query         string
		wantStatus    int
		wantChallenge string
	}{
		{
			name:          "valid handshake",
			query:         "hub.mode=subscribe&hub.verify_token=" + verifyToken + "&hub.challenge=12345",
			wantStatus:    http.StatusOK,
			wantChallenge: "12345",
		},
		{
			name:       "wrong token",
			query:      "hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing mode",
			query:      "hub.verify_token=" + verifyToken + "&hub.challenge=12345",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "empty token",
			query:      "hub.mode=subscribe&hub.challenge=12345",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, server := newTestServer(t, &fakeAI{reply: "hello"})

			req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook?"+tt.query, nil)
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantChallenge != "" && rec.Body.String() != tt.wantChallenge {
				t.Errorf("got body %q, want challenge %q", rec.Body.String(), tt.wantChallenge)
			}
		})
	}
}

func TestReceive_TextMessageProducesReply(t *testing.T) {
	t.Parallel()

	_, sender, server := newTestServer(t, &fakeAI{reply: "hello there"})

	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook",
		strings.NewReader(webhookPayload("evt-1", "94770000000", "hi")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}

	sent := sender.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("got %d outbound messages, want 1", len(sent))
	}
	if sent[0].To != "94770000000" || sent[0].Body != "hello there" || sent[0].ReplyToID != "evt-1" {
		t.Errorf("unexpected outbound message: %+v", sent[0])
	}
}

func TestReceive_RedeliveredEventSentOnce(t *testing.T) {
	t.Parallel()

	aiClient := &fakeAI{reply: "hello"}
	store, sender, server := newTestServer(t, aiClient)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook",
			strings.NewReader(webhookPayload("evt-1", "94770000000", "hi")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: got status %d, want 200", i+1, rec.Code)
		}
	}

	if got := len(sender.sentMessages()); got != 1 {
		t.Errorf("got %d outbound sends, want exactly 1", got)
	}
	if aiClient.callCount() != 1 {
		t.Errorf("model called %d times, want exactly 1", aiClient.callCount())
	}

	var userTurns int
	for _, e := range store.entries("94770000000") {
		if e.Role == "user" {
			userTurns++
		}
	}
	if userTurns != 1 {
		t.Errorf("session shows %d user turns, want 1", userTurns)
	}
}

func TestReceive_UnsupportedTypeSkipped(t *testing.T) {
	t.Parallel()

	aiClient := &fakeAI{reply: "hello"}
	_, sender, server := newTestServer(t, aiClient)

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "123",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [{"id": "evt-1", "from": "94770000000", "type": "image", "timestamp": "1725100000"}]
				}
			}]
		}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if len(sender.sentMessages()) != 0 {
		t.Error("unsupported message type should not produce a reply")
	}
	if aiClient.callCount() != 0 {
		t.Error("unsupported message type should not reach the model")
	}
}

func TestReceive_MalformedPayloadDropped(t *testing.T) {
	t.Parallel()

	_, sender, server := newTestServer(t, &fakeAI{reply: "hello"})

	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("malformed payload must still answer 200, got %d", rec.Code)
	}
	if len(sender.sentMessages()) != 0 {
		t.Error("malformed payload should not produce a reply")
	}
}

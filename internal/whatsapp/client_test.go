package whatsapp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/piumal/stingraybot/internal/config"
	"github.com/piumal/stingraybot/internal/logger"
	"github.com/piumal/stingraybot/internal/whatsapp"
)

type recordedRequest struct {
	Path          string
	Authorization string
	Body          map[string]any
}

func newTestClient(t *testing.T, status int) (*whatsapp.Client, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}
		var body map[string]any
		if err := json.Unmarshal(data, &body); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		requests = append(requests, recordedRequest{
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	client := whatsapp.NewClient(config.WhatsAppConfig{
		Token:         "token-1",
		PhoneNumberID: "555000",
		APIVersion:    "v21.0",
		VerifyToken:   "verify",
		BaseURL:       server.URL,
		Timeout:       5 * time.Second,
	}, logger.NewLogger("error", false))

	return client, &requests
}

func TestSendText(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, http.StatusOK)

	if err := client.SendText(context.Background(), "94770000000", "hello", "evt-1"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if len(*requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(*requests))
	}
	req := (*requests)[0]

	if req.Path != "/v21.0/555000/messages" {
		t.Errorf("got path %q, want /v21.0/555000/messages", req.Path)
	}
	if req.Authorization != "Bearer token-1" {
		t.Errorf("got authorization %q", req.Authorization)
	}
	if req.Body["messaging_product"] != "whatsapp" {
		t.Errorf("got messaging_product %v", req.Body["messaging_product"])
	}
	if req.Body["to"] != "94770000000" {
		t.Errorf("got to %v", req.Body["to"])
	}

	text, ok := req.Body["text"].(map[string]any)
	if !ok || text["body"] != "hello" {
		t.Errorf("got text %v", req.Body["text"])
	}
	msgContext, ok := req.Body["context"].(map[string]any)
	if !ok || msgContext["message_id"] != "evt-1" {
		t.Errorf("got context %v", req.Body["context"])
	}
}

func TestSendText_NoReplyContext(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, http.StatusOK)

	if err := client.SendText(context.Background(), "94770000000", "hello", ""); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if _, present := (*requests)[0].Body["context"]; present {
		t.Error("context field should be omitted when replyToID is empty")
	}
}

func TestSendText_APIError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.StatusBadRequest)

	err := client.SendText(context.Background(), "94770000000", "hello", "evt-1")
	if !errors.Is(err, whatsapp.ErrDelivery) {
		t.Fatalf("got %v, want ErrDelivery", err)
	}
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	client, requests := newTestClient(t, http.StatusOK)

	if err := client.MarkRead(context.Background(), "evt-1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	body := (*requests)[0].Body
	if body["status"] != "read" || body["message_id"] != "evt-1" {
		t.Errorf("unexpected mark-read body: %v", body)
	}
}

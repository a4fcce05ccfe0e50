package whatsapp_test

import (
	"encoding/json"
	"testing"

	"github.com/piumal/stingraybot/internal/whatsapp"
)

func TestPayload_Messages(t *testing.T) {
	t.Parallel()

	raw := `{
		"object": "whatsapp_business_account",
		"entry": [
			{
				"id": "1",
				"changes": [
					{
						"field": "messages",
						"value": {
							"messaging_product": "whatsapp",
							"messages": [
								{"id": "evt-1", "from": "94770000000", "type": "text", "timestamp": "1725100000", "text": {"body": "hi"}},
								{"id": "evt-2", "from": "94770000001", "type": "image", "timestamp": "1725100001"}
							]
						}
					}
				]
			},
			{
				"id": "2",
				"changes": [
					{
						"field": "messages",
						"value": {
							"messaging_product": "whatsapp",
							"messages": [
								{"id": "evt-3", "from": "94770000000", "type": "text", "timestamp": "1725100002", "text": {"body": "again"}}
							]
						}
					}
				]
			}
		]
	}`

	var payload whatsapp.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	messages := payload.Messages()
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}

	if messages[0].ID != "evt-1" || messages[0].Text == nil || messages[0].Text.Body != "hi" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Type != "image" || messages[1].Text != nil {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
	if messages[2].ID != "evt-3" || messages[2].From != "94770000000" {
		t.Errorf("unexpected third message: %+v", messages[2])
	}
}

func TestPayload_Empty(t *testing.T) {
	t.Parallel()

	var payload whatsapp.Payload
	if err := json.Unmarshal([]byte(`{"object": "whatsapp_business_account", "entry": []}`), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if got := payload.Messages(); len(got) != 0 {
		t.Errorf("expected no messages, got %+v", got)
	}
}

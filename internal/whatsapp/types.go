package whatsapp

// Payload is the WhatsApp Cloud API webhook envelope. Only the fields the bot
// consumes are modelled.
type Payload struct {
	Object string         `json:"object"`
	Entry  []PayloadEntry `json:"entry"`
}

// PayloadEntry is one account-level entry in the webhook envelope.
type PayloadEntry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field change notification inside an entry.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue carries the messages delivered by a change notification.
type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is one message received from a user. The Cloud API may
// redeliver the same message id; ID is the dedup key.
type InboundMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Type      string    `json:"type"`
	Timestamp string    `json:"timestamp"`
	Text      *TextBody `json:"text,omitempty"`
}

// TextBody holds the text content of a text-type message.
type TextBody struct {
	Body string `json:"body"`
}

// Messages flattens all inbound messages across entries and changes,
// preserving delivery order.
func (p *Payload) Messages() []InboundMessage {
	var messages []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			messages = append(messages, change.Value.Messages...)
		}
	}
	return messages
}

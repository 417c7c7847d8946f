package models

// Inbound event types as delivered by the chat platform webhook.
const (
	EventTypeMessage  = "message"
	EventTypeFollow   = "follow"
	EventTypePostback = "postback"
)

// WebhookRequest is the inbound webhook payload.
type WebhookRequest struct {
	Destination string         `json:"destination,omitempty"`
	Events      []InboundEvent `json:"events"`
}

// InboundEvent is one event from the webhook batch. Message and Postback are
// set depending on Type; events are created per request and never persisted.
type InboundEvent struct {
	Type       string         `json:"type"`
	ReplyToken string         `json:"replyToken,omitempty"`
	Timestamp  int64          `json:"timestamp,omitempty"`
	Source     EventSource    `json:"source"`
	Message    *EventMessage  `json:"message,omitempty"`
	Postback   *EventPostback `json:"postback,omitempty"`
}

// EventSource identifies where the event originated. UserID may be empty in
// group contexts.
type EventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
}

// EventMessage carries the message content for message events.
type EventMessage struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// EventPostback carries the structured action code of a button press.
type EventPostback struct {
	Data string `json:"data"`
}

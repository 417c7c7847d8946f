package models

// Conversation roles for generative prompts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one bounded history turn fed to the generative
// fallback, oldest-first.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InteractionLog is one append-only audit row for FAQ/chat interactions.
// Similarity is nil for fallback responses.
type InteractionLog struct {
	Timestamp  string   `bson:"timestamp" json:"timestamp"` // ISO-8601
	UserID     string   `bson:"user_id" json:"user_id"`
	Message    string   `bson:"message" json:"message"`
	Response   string   `bson:"response" json:"response"`
	Similarity *float64 `bson:"similarity,omitempty" json:"similarity,omitempty"`
}

// Member is one membership roster row.
type Member struct {
	UserID  string `bson:"user_id" json:"user_id"`
	AddedAt string `bson:"added_at" json:"added_at"` // ISO-8601
}

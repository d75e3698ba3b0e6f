package domain

import "time"

// Message is an immutable chat message between two users. At least one of
// Text and Image is present; Image is a durable URL, never raw bytes.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SendMessageRequest is the body of POST /api/messages/send/:id.
// Image, when present, is a base64 data URL uploaded before persisting.
type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// HasContent reports whether the request carries anything to send.
func (r *SendMessageRequest) HasContent() bool {
	return r.Text != "" || r.Image != ""
}

package marketchat

import (
	"encoding/json"
	"strings"
)

const (
	frameAuth        = "AUTH"
	frameSendMessage = "SEND_MESSAGE"
	frameMarkAsRead  = "MARK_AS_READ"

	frameNewMessage  = "NEW_MESSAGE"
	frameMessageRead = "MESSAGE_READ"
	frameTyping      = "TYPING"
	frameError       = "ERROR"
)

// Frame is the envelope server -> client.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command is the envelope client -> server.
type Command struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// AuthPayload is sent right after the socket opens.
type AuthPayload struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// SendMessagePayload carries a message that has no id, timestamp or read flag yet.
// The server assigns those and echoes the result back as NEW_MESSAGE.
type SendMessagePayload struct {
	Message Draft `json:"message"`
}

// Draft is an outbound message before the server has accepted it.
type Draft struct {
	Content     string       `json:"content"`
	RecipientID string       `json:"recipient"`
	OrderID     string       `json:"orderId"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Validate reports whether the draft can be sent.
func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.OrderID) == "":
		return NewError(ErrorInvalidMessage, "conversation id is required")
	case strings.TrimSpace(d.RecipientID) == "":
		return NewError(ErrorInvalidMessage, "recipient id is required")
	case strings.TrimSpace(d.Content) == "" && len(d.Attachments) == 0:
		return NewError(ErrorInvalidMessage, "message must have content or attachments")
	}
	return nil
}

// MarkAsReadPayload asks the server to flag messages read.
type MarkAsReadPayload struct {
	OrderID    string   `json:"orderId"`
	MessageIDs []string `json:"messageIds"`
}

// Error describes a server error frame.
type Error struct {
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// UnmarshalData decodes RawMessage into target.
func UnmarshalData(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}

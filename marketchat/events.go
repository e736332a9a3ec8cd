package marketchat

import (
	"encoding/json"
	"errors"
	"time"
)

// AttachmentKind classifies a message attachment.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
	AttachmentOther    AttachmentKind = "other"
)

// UnmarshalJSON maps anything that is not image or document to other.
func (k *AttachmentKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch AttachmentKind(s) {
	case AttachmentImage, AttachmentDocument:
		*k = AttachmentKind(s)
	default:
		*k = AttachmentOther
	}
	return nil
}

// Attachment is a file linked to a message.
type Attachment struct {
	URL  string         `json:"url"`
	Kind AttachmentKind `json:"type"`
	Name string         `json:"name"`
	Size int64          `json:"size"`
}

// Message is a chat message inside one order conversation.
type Message struct {
	ID             string       `json:"id"`
	Content        string       `json:"content"`
	SenderID       string       `json:"sender"`
	RecipientID    string       `json:"recipient"`
	ConversationID string       `json:"orderId"`
	CreatedAt      time.Time    `json:"createdAt"`
	Read           bool         `json:"read"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Event is one decoded server frame. The concrete type is one of
// NewMessageEvent, MessageReadEvent, TypingEvent or ErrorEvent.
type Event interface {
	FrameType() string
	isEvent()
}

// NewMessageEvent carries a message accepted by the server.
type NewMessageEvent struct {
	Message Message `json:"message"`
}

// MessageReadEvent marks messages of a conversation read.
type MessageReadEvent struct {
	OrderID    string   `json:"orderId"`
	MessageIDs []string `json:"messageIds"`
}

// TypingEvent toggles the typing state of a user in a conversation.
type TypingEvent struct {
	UserID   string `json:"userId"`
	OrderID  string `json:"orderId"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorEvent is an application error reported by the server.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (NewMessageEvent) FrameType() string  { return frameNewMessage }
func (MessageReadEvent) FrameType() string { return frameMessageRead }
func (TypingEvent) FrameType() string      { return frameTyping }
func (ErrorEvent) FrameType() string       { return frameError }

func (NewMessageEvent) isEvent()  {}
func (MessageReadEvent) isEvent() {}
func (TypingEvent) isEvent()      {}
func (ErrorEvent) isEvent()       {}

// DecodeFrame parses a raw server frame into a typed Event.
// Unknown frame types yield an ErrorUnknownFrame error. Bad JSON and payloads
// missing their identifying fields yield an ErrorSerialization error.
func DecodeFrame(raw []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, WrapError(ErrorSerialization, "failed to unmarshal frame", err)
	}
	switch f.Type {
	case frameNewMessage:
		return decodePayload[NewMessageEvent](f)
	case frameMessageRead:
		return decodePayload[MessageReadEvent](f)
	case frameTyping:
		return decodePayload[TypingEvent](f)
	case frameError:
		return decodePayload[ErrorEvent](f)
	default:
		return nil, NewError(ErrorUnknownFrame, "unknown frame type "+f.Type)
	}
}

func decodePayload[T Event](f Frame) (Event, error) {
	var ev T
	if len(f.Payload) == 0 {
		return nil, NewError(ErrorSerialization, "empty payload for "+f.Type)
	}
	if err := UnmarshalData(f.Payload, &ev); err != nil {
		return nil, WrapError(ErrorSerialization, "failed to unmarshal "+f.Type+" payload", err)
	}
	if v, ok := any(ev).(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, WrapError(ErrorSerialization, "invalid "+f.Type+" payload", err)
		}
	}
	return ev, nil
}

func (e NewMessageEvent) validate() error {
	switch {
	case e.Message.ID == "":
		return errors.New("message id is required")
	case e.Message.ConversationID == "":
		return errors.New("message orderId is required")
	}
	return nil
}

func (e MessageReadEvent) validate() error {
	if e.OrderID == "" {
		return errors.New("orderId is required")
	}
	return nil
}

func (e TypingEvent) validate() error {
	switch {
	case e.UserID == "":
		return errors.New("userId is required")
	case e.OrderID == "":
		return errors.New("orderId is required")
	}
	return nil
}

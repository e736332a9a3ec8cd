package marketchat

import (
	"sync"

	"github.com/google/uuid"
)

// NotificationLevel says how prominently a notification should be shown.
type NotificationLevel string

const (
	NotifyInfo  NotificationLevel = "info"
	NotifyError NotificationLevel = "error"
	NotifyFatal NotificationLevel = "fatal"
)

// Notification is a user-visible toast.
type Notification struct {
	ID             string
	Level          NotificationLevel
	Text           string
	ConversationID string
	Link           string
}

// Notifier displays notifications to the user.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type noopNotifier struct{}

func (noopNotifier) Notify(Notification) {}

// ConversationLink is the route that opens a conversation.
func ConversationLink(conversationID string) string {
	return "/messages/" + conversationID
}

// NotificationBridge decides which inbound messages deserve a toast.
// A message is announced only when its conversation is not the one open in
// the UI and it was not sent by the current user.
type NotificationBridge struct {
	mu       sync.RWMutex
	notifier Notifier
	active   string
}

// NewNotificationBridge returns a bridge that emits through n.
func NewNotificationBridge(n Notifier) *NotificationBridge {
	if n == nil {
		n = noopNotifier{}
	}
	return &NotificationBridge{notifier: n}
}

// SetNotifier replaces the notification sink.
func (b *NotificationBridge) SetNotifier(n Notifier) {
	if n == nil {
		return
	}
	b.mu.Lock()
	b.notifier = n
	b.mu.Unlock()
}

// SetActiveConversation records the conversation currently open in the UI.
// An empty id means no conversation is open.
func (b *NotificationBridge) SetActiveConversation(conversationID string) {
	b.mu.Lock()
	b.active = conversationID
	b.mu.Unlock()
}

// ActiveConversation returns the conversation currently open in the UI.
func (b *NotificationBridge) ActiveConversation() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// ShouldNotify applies the suppression rule to m.
func (b *NotificationBridge) ShouldNotify(m Message, currentUserID string) bool {
	if m.SenderID == currentUserID {
		return false
	}
	return m.ConversationID != b.ActiveConversation()
}

// RouteMessage emits a toast for m when ShouldNotify allows it and reports whether it did.
func (b *NotificationBridge) RouteMessage(m Message, currentUserID string) bool {
	if !b.ShouldNotify(m, currentUserID) {
		return false
	}
	b.emit(Notification{
		Level:          NotifyInfo,
		Text:           "New message received",
		ConversationID: m.ConversationID,
		Link:           ConversationLink(m.ConversationID),
	})
	return true
}

// Error shows an error toast.
func (b *NotificationBridge) Error(text string) {
	b.emit(Notification{Level: NotifyError, Text: text})
}

// Fatal shows a toast for a condition the session cannot recover from.
func (b *NotificationBridge) Fatal(text string) {
	b.emit(Notification{Level: NotifyFatal, Text: text})
}

func (b *NotificationBridge) emit(n Notification) {
	n.ID = uuid.NewString()
	b.mu.RLock()
	notifier := b.notifier
	b.mu.RUnlock()
	notifier.Notify(n)
}

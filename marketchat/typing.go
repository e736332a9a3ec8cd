package marketchat

import (
	"sort"
	"sync"
	"time"
)

// TypingState is the set of users typing in one conversation.
type TypingState struct {
	ConversationID string
	UserIDs        []string
}

type typingEntry struct {
	timer Timer
	seq   uint64
}

// TypingCoordinator tracks who is typing where. Each (conversation, user)
// pair is idle or typing; it turns idle when the debounce window passes
// without activity or when StopTyping is called.
type TypingCoordinator struct {
	mu       sync.Mutex
	clock    Clock
	window   time.Duration
	seq      uint64
	typing   map[string]map[string]*typingEntry
	onChange func(TypingState)
}

// NewTypingCoordinator returns a coordinator expiring entries after window.
func NewTypingCoordinator(clock Clock, window time.Duration) *TypingCoordinator {
	if clock == nil {
		clock = realClock{}
	}
	return &TypingCoordinator{
		clock:  clock,
		window: window,
		typing: make(map[string]map[string]*typingEntry),
	}
}

// OnChange registers a callback fired whenever a conversation's typing set changes.
func (t *TypingCoordinator) OnChange(fn func(TypingState)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

func (t *TypingCoordinator) setClock(c Clock) {
	t.mu.Lock()
	t.clock = c
	t.mu.Unlock()
}

// StartTyping marks userID typing in conversationID and restarts its debounce timer.
func (t *TypingCoordinator) StartTyping(conversationID, userID string) {
	t.mu.Lock()
	users, ok := t.typing[conversationID]
	if !ok {
		users = make(map[string]*typingEntry)
		t.typing[conversationID] = users
	}
	entry, active := users[userID]
	if active {
		entry.timer.Stop()
	} else {
		entry = &typingEntry{}
		users[userID] = entry
	}
	t.seq++
	seq := t.seq
	entry.seq = seq
	entry.timer = t.clock.AfterFunc(t.window, func() { t.expire(conversationID, userID, seq) })
	state, fn := t.snapshot(conversationID)
	t.mu.Unlock()

	if !active && fn != nil {
		fn(state)
	}
}

// StopTyping marks userID idle in conversationID and cancels its timer.
func (t *TypingCoordinator) StopTyping(conversationID, userID string) {
	t.mu.Lock()
	entry, ok := t.typing[conversationID][userID]
	if !ok {
		t.mu.Unlock()
		return
	}
	entry.timer.Stop()
	t.remove(conversationID, userID)
	state, fn := t.snapshot(conversationID)
	t.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// Typists returns the users typing in conversationID, sorted.
func (t *TypingCoordinator) Typists(conversationID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.users(conversationID)
}

// IsTyping reports whether userID is typing in conversationID.
func (t *TypingCoordinator) IsTyping(conversationID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.typing[conversationID][userID]
	return ok
}

// Reset cancels every timer and forgets all typing state.
func (t *TypingCoordinator) Reset() {
	t.mu.Lock()
	for _, users := range t.typing {
		for _, entry := range users {
			entry.timer.Stop()
		}
	}
	t.typing = make(map[string]map[string]*typingEntry)
	t.mu.Unlock()
}

func (t *TypingCoordinator) expire(conversationID, userID string, seq uint64) {
	t.mu.Lock()
	entry, ok := t.typing[conversationID][userID]
	if !ok || entry.seq != seq {
		// restarted or stopped since this timer was armed
		t.mu.Unlock()
		return
	}
	t.remove(conversationID, userID)
	state, fn := t.snapshot(conversationID)
	t.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

func (t *TypingCoordinator) remove(conversationID, userID string) {
	users := t.typing[conversationID]
	delete(users, userID)
	if len(users) == 0 {
		delete(t.typing, conversationID)
	}
}

func (t *TypingCoordinator) users(conversationID string) []string {
	users := t.typing[conversationID]
	out := make([]string, 0, len(users))
	for id := range users {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (t *TypingCoordinator) snapshot(conversationID string) (TypingState, func(TypingState)) {
	return TypingState{ConversationID: conversationID, UserIDs: t.users(conversationID)}, t.onChange
}

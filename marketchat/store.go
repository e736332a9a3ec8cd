package marketchat

import (
	"slices"
	"sort"
	"sync"
)

// Store holds the messages of every conversation seen during a session.
// Messages keep arrival order; a message id is stored at most once per conversation.
type Store struct {
	mu            sync.RWMutex
	conversations map[string][]Message
	index         map[string]map[string]int // conversation -> message id -> position
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string][]Message),
		index:         make(map[string]map[string]int),
	}
}

// ApplyNewMessage appends m to its conversation. It reports false and leaves
// the store untouched when the id is already known.
func (s *Store) ApplyNewMessage(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexFor(m.ConversationID)
	if _, ok := idx[m.ID]; ok {
		return false
	}
	m.Attachments = slices.Clone(m.Attachments)
	idx[m.ID] = len(s.conversations[m.ConversationID])
	s.conversations[m.ConversationID] = append(s.conversations[m.ConversationID], m)
	return true
}

// ApplyReadReceipt flags the listed messages read. Unknown ids are ignored.
// It returns how many messages changed from unread to read.
func (s *Store) ApplyReadReceipt(conversationID string, messageIDs []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[conversationID]
	if !ok {
		return 0
	}
	msgs := s.conversations[conversationID]
	changed := 0
	for _, id := range messageIDs {
		pos, ok := idx[id]
		if !ok || msgs[pos].Read {
			continue
		}
		msgs[pos].Read = true
		changed++
	}
	return changed
}

// Conversation returns a copy of the conversation's messages, empty but never nil.
func (s *Store) Conversation(conversationID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.conversations[conversationID]
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		m.Attachments = slices.Clone(m.Attachments)
		out[i] = m
	}
	return out
}

// MergeHistory combines fetched history with what the store already holds.
// Missing messages are added, a message read on either side stays read, and
// the conversation is re-sorted by creation time. It returns the number added.
func (s *Store) MergeHistory(conversationID string, history []Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexFor(conversationID)
	msgs := s.conversations[conversationID]
	added := 0
	for _, m := range history {
		if m.ConversationID == "" {
			m.ConversationID = conversationID
		}
		if m.ConversationID != conversationID {
			continue
		}
		if pos, ok := idx[m.ID]; ok {
			if m.Read {
				msgs[pos].Read = true
			}
			continue
		}
		m.Attachments = slices.Clone(m.Attachments)
		idx[m.ID] = len(msgs)
		msgs = append(msgs, m)
		added++
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	for i, m := range msgs {
		idx[m.ID] = i
	}
	s.conversations[conversationID] = msgs
	return added
}

// UnreadCount counts unread messages addressed to userID.
func (s *Store) UnreadCount(conversationID, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.conversations[conversationID] {
		if !m.Read && m.RecipientID == userID {
			n++
		}
	}
	return n
}

// Conversations lists the known conversation ids in sorted order.
func (s *Store) Conversations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset drops every conversation.
func (s *Store) Reset() {
	s.mu.Lock()
	s.conversations = make(map[string][]Message)
	s.index = make(map[string]map[string]int)
	s.mu.Unlock()
}

func (s *Store) indexFor(conversationID string) map[string]int {
	idx, ok := s.index[conversationID]
	if !ok {
		idx = make(map[string]int)
		s.index[conversationID] = idx
	}
	return idx
}

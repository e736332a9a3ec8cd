package marketchat

import "context"

// HistorySource fetches persisted messages of a conversation, typically over
// the REST API (see rest.Client).
type HistorySource interface {
	ConversationHistory(ctx context.Context, conversationID string) ([]Message, error)
}

// LoadHistory fetches the conversation from the configured HistorySource and
// merges it into the store. It returns the number of messages added.
func (c *Client) LoadHistory(ctx context.Context, conversationID string) (int, error) {
	c.mu.Lock()
	src := c.history
	c.mu.Unlock()
	if src == nil {
		return 0, NewError(ErrorHistoryUnavailable, "no history source configured")
	}
	msgs, err := src.ConversationHistory(ctx, conversationID)
	if err != nil {
		return 0, WrapError(ErrorHistoryUnavailable, "fetch history for "+conversationID, err)
	}
	return c.store.MergeHistory(conversationID, msgs), nil
}

// refreshHistory re-pulls every known conversation after a reconnect so
// messages sent while the socket was down show up. The fetched history is
// merged into the existing view instead of rebuilding it from scratch, so
// live events received meanwhile are kept; read flags only move to read.
func (c *Client) refreshHistory(ctx context.Context) {
	ids := c.store.Conversations()
	if active := c.bridge.ActiveConversation(); active != "" {
		ids = appendUnique(ids, active)
	}
	for _, id := range ids {
		added, err := c.LoadHistory(ctx, id)
		if err != nil {
			c.logger.Warn("history refresh failed", Fields{"conversation": id, "error": err.Error()})
			continue
		}
		if added > 0 {
			c.logger.Debug("history refreshed", Fields{"conversation": id, "added": added})
		}
	}
}

func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

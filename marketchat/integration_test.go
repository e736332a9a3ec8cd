package marketchat_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/marketchat-sdk-go/internal/echoserver"
	"github.com/vovakirdan/marketchat-sdk-go/marketchat"
	"github.com/vovakirdan/marketchat-sdk-go/marketchat/rest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notes struct {
	mu  sync.Mutex
	got []marketchat.Notification
}

func (n *notes) Notify(note marketchat.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note)
}

func (n *notes) all() []marketchat.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]marketchat.Notification(nil), n.got...)
}

type backend struct {
	chat *echoserver.Server
	http *httptest.Server
}

func startBackend(t *testing.T) *backend {
	t.Helper()
	chat := echoserver.New(nil)
	srv := httptest.NewServer(chat.Handler())
	t.Cleanup(srv.Close)
	return &backend{chat: chat, http: srv}
}

func (b *backend) wsURL() string { return "ws" + strings.TrimPrefix(b.http.URL, "http") + "/ws" }

func (b *backend) connect(t *testing.T, user string, tune func(*marketchat.Config)) (*marketchat.Client, *notes) {
	t.Helper()
	cfg := marketchat.DefaultConfig()
	cfg.URL = b.wsURL()
	if tune != nil {
		tune(&cfg)
	}
	c := marketchat.NewClient(cfg, marketchat.StaticSession{ID: user, AccessToken: "tok-" + user})
	n := &notes{}
	c.SetNotifier(n)
	t.Cleanup(func() { _ = c.Close() })

	online := b.chat.Online()
	require.NoError(t, c.Connect(context.Background()))
	require.Eventually(t, func() bool { return b.chat.Online() == online+1 }, 2*time.Second, 10*time.Millisecond)
	return c, n
}

func TestSendIsEchoedIntoStore(t *testing.T) {
	b := startBackend(t)
	alice, _ := b.connect(t, "alice", nil)

	require.NoError(t, alice.SendMessage(context.Background(), "Hello", "bob", "order-42"))

	require.Eventually(t, func() bool { return len(alice.Messages("order-42")) == 1 }, 2*time.Second, 10*time.Millisecond)
	m := alice.Messages("order-42")[0]
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Hello", m.Content)
	assert.Equal(t, "alice", m.SenderID)
	assert.Equal(t, "bob", m.RecipientID)
	assert.False(t, m.Read)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestRecipientNotifiedOutsideOpenConversation(t *testing.T) {
	b := startBackend(t)
	alice, aliceNotes := b.connect(t, "alice", nil)
	bob, bobNotes := b.connect(t, "bob", nil)
	bob.SetActiveConversation("order-1")

	require.NoError(t, alice.SendMessage(context.Background(), "in the open chat", "bob", "order-1"))
	require.NoError(t, alice.SendMessage(context.Background(), "elsewhere", "bob", "order-2"))

	require.Eventually(t, func() bool { return len(bob.Messages("order-2")) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(bob.Messages("order-1")) == 1 }, 2*time.Second, 10*time.Millisecond)

	got := bobNotes.all()
	require.Len(t, got, 1)
	assert.Equal(t, marketchat.NotifyInfo, got[0].Level)
	assert.Equal(t, "order-2", got[0].ConversationID)
	assert.Empty(t, aliceNotes.all(), "the sender is never notified of its own messages")
	assert.Equal(t, 1, bob.UnreadCount("order-2"))
}

func TestReadReceiptRoundTrip(t *testing.T) {
	b := startBackend(t)
	alice, _ := b.connect(t, "alice", nil)
	bob, _ := b.connect(t, "bob", nil)

	receipts := make(chan marketchat.ReadReceipt, 1)
	alice.OnRead(func(r marketchat.ReadReceipt) { receipts <- r })

	require.NoError(t, alice.SendMessage(context.Background(), "invoice attached", "bob", "order-5"))
	require.Eventually(t, func() bool { return len(bob.Messages("order-5")) == 1 }, 2*time.Second, 10*time.Millisecond)

	id := bob.Messages("order-5")[0].ID
	require.NoError(t, bob.MarkAsRead(context.Background(), "order-5", []string{id}))
	assert.Equal(t, 0, bob.UnreadCount("order-5"))

	select {
	case r := <-receipts:
		assert.Equal(t, "order-5", r.ConversationID)
		assert.Equal(t, []string{id}, r.MessageIDs)
	case <-time.After(2 * time.Second):
		t.Fatal("no read receipt delivered")
	}
	assert.True(t, alice.Messages("order-5")[0].Read)
}

func TestReconnectRefreshesHistory(t *testing.T) {
	b := startBackend(t)
	alice, _ := b.connect(t, "alice", func(cfg *marketchat.Config) {
		cfg.ReconnectBaseDelay = 20 * time.Millisecond
	})
	api := rest.NewClient(b.http.URL + "/api")
	api.SetToken("tok-alice")
	api.SetRateLimit(0, 0)
	alice.SetHistorySource(api)

	require.NoError(t, alice.SendMessage(context.Background(), "before the drop", "bob", "order-42"))
	require.Eventually(t, func() bool { return len(alice.Messages("order-42")) == 1 }, 2*time.Second, 10*time.Millisecond)

	var mu sync.Mutex
	var states []marketchat.ConnectionState
	alice.OnStateChanged(func(ev marketchat.StateEvent) {
		mu.Lock()
		states = append(states, ev.NewState)
		mu.Unlock()
	})

	// only reachable through history
	b.chat.Seed(marketchat.Message{
		ID:             "offline-1",
		Content:        "are you there?",
		SenderID:       "bob",
		RecipientID:    "alice",
		ConversationID: "order-42",
		CreatedAt:      time.Now().UTC(),
	})
	b.chat.DropAll()

	require.Eventually(t, func() bool { return len(alice.Messages("order-42")) == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.True(t, alice.IsConnected())
	assert.Equal(t, 0, alice.ReconnectAttempts())
	assert.Equal(t, "offline-1", alice.Messages("order-42")[1].ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, states, marketchat.StateDisconnected)
	assert.Equal(t, marketchat.StateConnected, states[len(states)-1])
}

func TestLoadHistoryWithoutSource(t *testing.T) {
	c := marketchat.NewClient(marketchat.DefaultConfig(), marketchat.StaticSession{ID: "alice", AccessToken: "tok"})
	_, err := c.LoadHistory(context.Background(), "order-42")
	var ce *marketchat.ChatError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, marketchat.ErrorHistoryUnavailable, ce.Code)
}

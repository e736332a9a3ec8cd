package marketchat

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat/internal"

	"github.com/coder/websocket"
)

type dialFunc func(ctx context.Context, url string) (*websocket.Conn, error)

func defaultDial(ctx context.Context, u string) (*websocket.Conn, error) {
	ws, _, err := websocket.Dial(ctx, u, nil)
	return ws, err
}

// Client is the messaging service of one authenticated session. It owns the
// socket, the message store and the typing state. Connect it on login and
// Close it on logout.
type Client struct {
	cfg        Config
	session    Session
	logger     Logger
	metrics    Metrics
	clock      Clock
	dial       dialFunc
	store      *Store
	typing     *TypingCoordinator
	bridge     *NotificationBridge
	dispatcher Dispatcher

	mu             sync.Mutex
	state          ConnectionState
	conn           *internal.Conn
	cancel         context.CancelFunc
	gen            uint64
	attempts       int
	exhausted      bool
	closed         bool
	everConnected  bool
	reconnectTimer Timer
	history        HistorySource
}

// NewClient constructs a client with provided config for the given session.
// Use DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config, session Session) *Client {
	c := &Client{
		cfg:     cfg,
		session: session,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		clock:   realClock{},
		dial:    defaultDial,
		store:   NewStore(),
		typing:  NewTypingCoordinator(realClock{}, cfg.TypingTimeout),
		bridge:  NewNotificationBridge(nil),
	}
	c.typing.OnChange(c.dispatcher.fireTyping)
	return c
}

// SetLogger overrides logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// SetMetrics installs a metrics sink (optional).
func (c *Client) SetMetrics(m Metrics) {
	if m == nil {
		return
	}
	c.metrics = m
}

// SetNotifier installs the sink for user-visible notifications.
func (c *Client) SetNotifier(n Notifier) { c.bridge.SetNotifier(n) }

// SetClock replaces the clock driving reconnect backoff and typing expiry.
// Timers already scheduled keep running on the previous clock.
func (c *Client) SetClock(clock Clock) {
	if clock == nil {
		return
	}
	c.mu.Lock()
	c.clock = clock
	c.mu.Unlock()
	c.typing.setClock(clock)
}

// SetHistorySource configures where LoadHistory and reconnect refreshes fetch from.
func (c *Client) SetHistorySource(h HistorySource) {
	c.mu.Lock()
	c.history = h
	c.mu.Unlock()
}

// OnMessage registers callback for newly stored messages.
func (c *Client) OnMessage(fn func(Message)) { c.dispatcher.SetOnMessage(fn) }

// OnRead registers callback for read receipts from the server.
func (c *Client) OnRead(fn func(ReadReceipt)) { c.dispatcher.SetOnRead(fn) }

// OnTyping registers callback for typing set changes.
func (c *Client) OnTyping(fn func(TypingState)) { c.dispatcher.SetOnTyping(fn) }

// OnStateChanged registers callback for connection state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) { c.dispatcher.SetOnStateChanged(fn) }

// OnError registers callback for errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// Connect dials the server and sends the AUTH frame. It is a no-op when the
// session is not authenticated or a connection is already up or in progress.
// A failed dial is retried in the background when AutoReconnect is set; the
// error of the first attempt is still returned.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if _, err := url.Parse(c.cfg.URL); err != nil {
		return WrapError(ErrorInvalidConfig, "invalid URL", err)
	}
	if !Authenticated(c.session) {
		c.logger.Debug("connect skipped: session not authenticated", nil)
		return nil
	}

	c.mu.Lock()
	c.closed = false
	if c.exhausted {
		// a manual connect after exhaustion starts a fresh backoff cycle
		c.exhausted = false
		c.attempts = 0
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.mu.Unlock()

	return c.open(ctx)
}

// SendMessage submits a message for the conversation. The message is not
// stored locally; it shows up once the server echoes it as NEW_MESSAGE.
// It fails with ErrNotConnected while the socket is down and is never queued.
func (c *Client) SendMessage(ctx context.Context, content, recipientID, conversationID string, attachments ...Attachment) error {
	draft := Draft{
		Content:     content,
		RecipientID: recipientID,
		OrderID:     conversationID,
		Attachments: attachments,
	}
	if err := draft.Validate(); err != nil {
		return err
	}
	if err := c.send(ctx, frameSendMessage, SendMessagePayload{Message: draft}); err != nil {
		return err
	}
	c.typing.StopTyping(conversationID, c.session.UserID())
	return nil
}

// MarkAsRead flags messages read locally and tells the server. The local
// update is kept even if the server could not be told.
func (c *Client) MarkAsRead(ctx context.Context, conversationID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	c.store.ApplyReadReceipt(conversationID, messageIDs)
	return c.send(ctx, frameMarkAsRead, MarkAsReadPayload{OrderID: conversationID, MessageIDs: messageIDs})
}

// Messages returns the conversation in display order, never nil.
func (c *Client) Messages(conversationID string) []Message {
	return c.store.Conversation(conversationID)
}

// Conversations lists the conversations seen this session.
func (c *Client) Conversations() []string { return c.store.Conversations() }

// UnreadCount counts unread messages addressed to the session user.
func (c *Client) UnreadCount(conversationID string) int {
	return c.store.UnreadCount(conversationID, c.session.UserID())
}

// Typists returns users currently typing in the conversation.
func (c *Client) Typists(conversationID string) []string {
	return c.typing.Typists(conversationID)
}

// SetActiveConversation records which conversation the UI shows. Messages
// for it do not raise notifications.
func (c *Client) SetActiveConversation(conversationID string) {
	c.bridge.SetActiveConversation(conversationID)
}

// IsConnected reports whether the socket is open and authenticated.
func (c *Client) IsConnected() bool { return c.State() == StateConnected }

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ReconnectAttempts returns the attempts made since the last successful connection.
func (c *Client) ReconnectAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Close shuts down client and closes WebSocket. Pending reconnects are
// cancelled and all session state is cleared.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.gen++
	c.attempts = 0
	c.exhausted = false
	c.everConnected = false
	c.mu.Unlock()

	c.setState(StateDisconnected, nil)
	c.store.Reset()
	c.typing.Reset()
	c.bridge.SetActiveConversation("")

	var err error
	if conn != nil {
		err = conn.Close(websocket.StatusNormalClosure, "client close")
	}
	if cancel != nil {
		cancel()
	}
	return err
}

func (c *Client) open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	startGen := c.gen
	ev := c.transitionLocked(StateConnecting, nil)
	c.mu.Unlock()
	c.emitState(ev)

	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, err := c.dial(dialCtx, c.cfg.URL)
	if err != nil {
		werr := WrapError(ErrorConnection, "dial "+c.cfg.URL, err)
		c.logger.Warn("dial failed", Fields{"url": c.cfg.URL, "error": err.Error()})
		if !c.superseded(startGen) {
			c.connectionLost(werr)
		}
		return werr
	}
	conn := internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout)

	auth := Command{
		Type: frameAuth,
		Payload: AuthPayload{
			Token:  c.session.Token(),
			UserID: c.session.UserID(),
		},
	}
	if err := conn.Write(dialCtx, auth); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "handshake error")
		werr := WrapError(ErrorConnection, "send AUTH frame", err)
		c.logger.Warn("auth write failed", Fields{"error": err.Error()})
		if !c.superseded(startGen) {
			c.connectionLost(werr)
		}
		return werr
	}
	c.metrics.FrameSent(frameAuth)

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.closed || c.gen != startGen {
		c.mu.Unlock()
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "client close")
		return NewError(ErrorDisconnected, "client closed while connecting")
	}
	c.gen++
	gen := c.gen
	c.conn = conn
	c.cancel = cancel
	reconnected := c.everConnected
	c.everConnected = true
	c.attempts = 0
	history := c.history
	ev = c.transitionLocked(StateConnected, nil)
	c.mu.Unlock()

	c.emitState(ev)
	c.logger.Info("connected", Fields{"url": c.cfg.URL, "user": c.session.UserID()})

	go c.readLoop(runCtx, gen, conn)
	if reconnected && history != nil {
		go c.refreshHistory(runCtx)
	}
	return nil
}

// superseded reports whether a Close happened since the attempt that
// observed startGen began.
func (c *Client) superseded(startGen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || c.gen != startGen
}

// connectionLost moves to disconnected and schedules the next attempt, or
// gives up once MaxReconnectAttempts consecutive attempts have failed.
func (c *Client) connectionLost(cause error) {
	c.setState(StateDisconnected, cause)

	if !c.cfg.AutoReconnect {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.exhausted = true
		attempts := c.attempts
		c.mu.Unlock()

		c.logger.Error("reconnect attempts exhausted", Fields{"attempts": attempts})
		c.bridge.Fatal("Connection lost. Please reload the page.")
		c.dispatcher.fireError(ErrReconnectExhausted)
		return
	}
	c.attempts++
	attempt := c.attempts
	delay := ReconnectDelay(c.cfg.ReconnectBaseDelay, attempt)
	c.reconnectTimer = c.clock.AfterFunc(delay, c.reconnect)
	c.mu.Unlock()

	c.metrics.ReconnectScheduled(attempt, delay)
	c.logger.Info("reconnect scheduled", Fields{"attempt": attempt, "delay": delay.String()})
}

func (c *Client) reconnect() {
	c.mu.Lock()
	c.reconnectTimer = nil
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	_ = c.open(context.Background())
}

func (c *Client) readLoop(ctx context.Context, gen uint64, conn *internal.Conn) {
	for {
		raw, err := conn.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if isExpectedDisconnect(ctx, err) {
				c.logger.Info("server closed connection", Fields{"error": err.Error()})
			} else {
				c.logger.Warn("read loop exit", Fields{"error": err.Error()})
			}
			c.socketClosed(gen, err)
			return
		}
		c.handleFrame(raw)
	}
}

// socketClosed handles the end of connection gen. Closures of connections
// that were already replaced or closed on purpose are ignored.
func (c *Client) socketClosed(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.closed {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusGoingAway, "connection lost")
	}
	c.connectionLost(WrapError(ErrorDisconnected, "socket closed", err))
}

// handleFrame applies one inbound frame. Frames are handled one at a time in
// arrival order by the read loop.
func (c *Client) handleFrame(raw []byte) {
	ev, err := DecodeFrame(raw)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrUnknownFrame) {
			reason = "unknown_type"
		}
		c.metrics.FrameDropped(reason)
		c.logger.Warn("dropping inbound frame", Fields{"reason": reason, "error": err.Error()})
		return
	}
	c.metrics.FrameReceived(ev.FrameType())

	switch e := ev.(type) {
	case NewMessageEvent:
		c.applyNewMessage(e.Message)
	case MessageReadEvent:
		c.store.ApplyReadReceipt(e.OrderID, e.MessageIDs)
		c.dispatcher.fireRead(ReadReceipt{ConversationID: e.OrderID, MessageIDs: e.MessageIDs})
	case TypingEvent:
		if e.UserID == c.session.UserID() {
			return
		}
		if e.IsTyping {
			c.typing.StartTyping(e.OrderID, e.UserID)
		} else {
			c.typing.StopTyping(e.OrderID, e.UserID)
		}
	case ErrorEvent:
		serr := FromServerError(&Error{Message: e.Message})
		c.logger.Warn("server error", Fields{"message": e.Message})
		c.bridge.Error(e.Message)
		c.dispatcher.fireError(serr)
	}
}

func (c *Client) applyNewMessage(m Message) {
	c.typing.StopTyping(m.ConversationID, m.SenderID)
	if !c.store.ApplyNewMessage(m) {
		c.logger.Debug("duplicate message ignored", Fields{"id": m.ID, "conversation": m.ConversationID})
		return
	}
	c.bridge.RouteMessage(m, c.session.UserID())
	c.dispatcher.fireMessage(m)
}

func (c *Client) send(ctx context.Context, frameType string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		c.bridge.Error("Not connected to chat server")
		return ErrNotConnected
	}

	if err := conn.Write(ctx, Command{Type: frameType, Payload: payload}); err != nil {
		c.logger.Warn("write failed", Fields{"type": frameType, "error": err.Error()})
		c.bridge.Error("Failed to send, please try again")
		return WrapError(ErrorConnection, "write "+frameType+" frame", err)
	}
	c.metrics.FrameSent(frameType)
	return nil
}

func (c *Client) setState(s ConnectionState, cause error) {
	c.mu.Lock()
	ev := c.transitionLocked(s, cause)
	c.mu.Unlock()
	c.emitState(ev)
}

// transitionLocked updates the state and returns the event to emit once
// c.mu is released. A zero event (OldState == NewState) means no change.
func (c *Client) transitionLocked(s ConnectionState, cause error) StateEvent {
	ev := StateEvent{OldState: c.state, NewState: s, Attempt: c.attempts, Error: cause}
	c.state = s
	return ev
}

func (c *Client) emitState(ev StateEvent) {
	if ev.OldState == ev.NewState {
		return
	}
	c.metrics.StateChanged(ev.NewState)
	c.dispatcher.fireState(ev)
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}

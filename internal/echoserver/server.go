// Package echoserver is an in-process stand-in for the marketplace messaging
// backend. It speaks the same frames as the production server: it assigns ids
// and timestamps to sent messages and echoes them to both participants.
package echoserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type peer struct {
	ws     *websocket.Conn
	userID string
}

// Server holds connected peers and the message history per order.
type Server struct {
	log *logrus.Logger
	now func() time.Time

	mu      sync.Mutex
	peers   map[*peer]struct{}
	history map[string][]marketchat.Message
}

// New returns an empty server. A nil logger discards output.
func New(log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &Server{
		log:     log,
		now:     time.Now,
		peers:   make(map[*peer]struct{}),
		history: make(map[string][]marketchat.Message),
	}
}

// Handler routes /ws to the socket endpoint and /api/messages/order/{orderId} to history.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.handleSocket)
	r.Route("/api", func(r chi.Router) {
		r.Use(requireBearer)
		r.Get("/messages/order/{orderId}", s.handleHistory)
	})
	return r
}

// Seed adds messages to the history as if they had been sent earlier.
func (s *Server) Seed(msgs ...marketchat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.history[m.ConversationID] = append(s.history[m.ConversationID], m)
	}
}

// Push writes a frame to every authenticated peer.
func (s *Server) Push(ctx context.Context, frameType string, payload any) {
	for _, p := range s.authenticated(nil) {
		s.write(ctx, p, frameType, payload)
	}
}

// PushRaw writes raw bytes to every authenticated peer, for malformed frames.
func (s *Server) PushRaw(ctx context.Context, data []byte) {
	for _, p := range s.authenticated(nil) {
		_ = p.ws.Write(ctx, websocket.MessageText, data)
	}
}

// DropAll closes every socket without a close handshake, like a network failure.
func (s *Server) DropAll() {
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()
	for _, p := range peers {
		_ = p.ws.CloseNow()
	}
	s.log.WithFields(logrus.Fields{"peers": len(peers)}).Info("dropped all connections")
}

// Online returns the number of authenticated peers.
func (s *Server) Online() int {
	return len(s.authenticated(nil))
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	p := &peer{ws: ws}
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.peers, p)
		s.mu.Unlock()
		_ = ws.CloseNow()
	}()

	ctx := r.Context()
	for {
		var f marketchat.Frame
		if err := wsjson.Read(ctx, ws, &f); err != nil {
			s.log.WithFields(logrus.Fields{"user": s.userOf(p), "error": err.Error()}).Debug("peer gone")
			return
		}
		s.handleCommand(ctx, p, f)
	}
}

func (s *Server) handleCommand(ctx context.Context, p *peer, f marketchat.Frame) {
	if f.Type != "AUTH" && s.userOf(p) == "" {
		s.write(ctx, p, "ERROR", marketchat.ErrorEvent{Message: "not authenticated"})
		return
	}

	switch f.Type {
	case "AUTH":
		var auth marketchat.AuthPayload
		if err := json.Unmarshal(f.Payload, &auth); err != nil || auth.Token == "" || auth.UserID == "" {
			s.write(ctx, p, "ERROR", marketchat.ErrorEvent{Message: "invalid credentials"})
			return
		}
		s.mu.Lock()
		p.userID = auth.UserID
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{"user": auth.UserID}).Info("peer authenticated")

	case "SEND_MESSAGE":
		var send marketchat.SendMessagePayload
		if err := json.Unmarshal(f.Payload, &send); err != nil {
			s.write(ctx, p, "ERROR", marketchat.ErrorEvent{Message: "malformed message"})
			return
		}
		if err := send.Message.Validate(); err != nil {
			s.write(ctx, p, "ERROR", marketchat.ErrorEvent{Message: err.Error()})
			return
		}
		msg := marketchat.Message{
			ID:             uuid.NewString(),
			Content:        send.Message.Content,
			SenderID:       s.userOf(p),
			RecipientID:    send.Message.RecipientID,
			ConversationID: send.Message.OrderID,
			CreatedAt:      s.now().UTC(),
			Attachments:    send.Message.Attachments,
		}
		s.Seed(msg)
		for _, target := range s.authenticated(func(id string) bool { return id == msg.SenderID || id == msg.RecipientID }) {
			s.write(ctx, target, "NEW_MESSAGE", marketchat.NewMessageEvent{Message: msg})
		}

	case "MARK_AS_READ":
		var mark marketchat.MarkAsReadPayload
		if err := json.Unmarshal(f.Payload, &mark); err != nil {
			s.write(ctx, p, "ERROR", marketchat.ErrorEvent{Message: "malformed read receipt"})
			return
		}
		senders := s.markRead(mark.OrderID, mark.MessageIDs)
		for _, target := range s.authenticated(func(id string) bool { return senders[id] }) {
			s.write(ctx, target, "MESSAGE_READ", marketchat.MessageReadEvent{OrderID: mark.OrderID, MessageIDs: mark.MessageIDs})
		}

	case "TYPING":
		var typing marketchat.TypingEvent
		if err := json.Unmarshal(f.Payload, &typing); err != nil {
			return
		}
		typing.UserID = s.userOf(p)
		for _, target := range s.authenticated(func(id string) bool { return id != typing.UserID }) {
			s.write(ctx, target, "TYPING", typing)
		}

	default:
		s.write(ctx, p, "ERROR", marketchat.ErrorEvent{Message: "unknown command " + f.Type})
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	s.mu.Lock()
	msgs := append([]marketchat.Message(nil), s.history[orderID]...)
	s.mu.Unlock()
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	if msgs == nil {
		msgs = []marketchat.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// markRead flags messages read and returns the set of their senders.
func (s *Server) markRead(orderID string, ids []string) map[string]bool {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	senders := make(map[string]bool)
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.history[orderID]
	for i := range msgs {
		if want[msgs[i].ID] {
			msgs[i].Read = true
			senders[msgs[i].SenderID] = true
		}
	}
	return senders
}

func (s *Server) authenticated(match func(userID string) bool) []*peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*peer, 0, len(s.peers))
	for p := range s.peers {
		if p.userID == "" {
			continue
		}
		if match == nil || match(p.userID) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) userOf(p *peer) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.userID
}

func (s *Server) write(ctx context.Context, p *peer, frameType string, payload any) {
	if err := wsjson.Write(ctx, p.ws, marketchat.Command{Type: frameType, Payload: payload}); err != nil {
		s.log.WithFields(logrus.Fields{"type": frameType, "error": err.Error()}).Warn("write to peer failed")
	}
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package realtime pushes player session events to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"neontune/internal/session"
)

const (
	// Subprotocol is the websocket protocol the server speaks.
	Subprotocol = "neontune"
	// TokenProtocolPrefix marks the offered subprotocol that carries the
	// session token, keeping it out of the request URI and access logs.
	TokenProtocolPrefix = "bearer."
)

// TokenVerifier resolves a session token to its session id.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

type Server struct {
	hub           *Hub
	rdb           *redis.Client
	tokens        TokenVerifier
	allowedOrigin string
	upgrader      websocket.Upgrader
}

// NewServer builds the websocket endpoint. With an empty allowedOrigin every
// origin is accepted.
func NewServer(hub *Hub, rdb *redis.Client, tokens TokenVerifier, allowedOrigin string) *Server {
	s := &Server{
		hub:           hub,
		rdb:           rdb,
		tokens:        tokens,
		allowedOrigin: allowedOrigin,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:  s.checkOrigin,
		Subprotocols: []string{Subprotocol},
	}
	return s
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}
	s.Routes(r)
	return r
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/ws", s.HandleWS)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.allowedOrigin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.allowedOrigin
}

// RunRedisSubscriber feeds events from the broadcast channel into the hub
// until ctx is done.
func (s *Server) RunRedisSubscriber(ctx context.Context) {
	sub := s.rdb.Subscribe(ctx, session.BroadcastChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.hub.Dispatch([]byte(msg.Payload))
		}
	}
}

// tokenFromProtocols returns the token offered as "bearer.<jwt>" in
// Sec-WebSocket-Protocol.
func tokenFromProtocols(r *http.Request) string {
	for _, p := range websocket.Subprotocols(r) {
		if token, ok := strings.CutPrefix(p, TokenProtocolPrefix); ok {
			return token
		}
	}
	return ""
}

// HandleWS upgrades /ws?session=<id>. The client offers the subprotocols
// "neontune" and "bearer.<jwt>"; the server answers with "neontune".
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	sid, err := s.tokens.Verify(tokenFromProtocols(r))
	if err != nil || sid != sessionID {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	// Upgrade answers 403 itself on a rejected origin.
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: ws upgrade: %v", err)
		return
	}

	client := &Client{
		hub:       s.hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	welcome := map[string]any{
		"type":      "welcome",
		"sessionId": sessionID,
		"now":       time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

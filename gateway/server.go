package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"chat-relay/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Server upgrades /ws requests and runs the connection lifecycle. The
// socket is upgraded before authentication so a rejected client still
// gets a connection-error frame before the close.
type Server struct {
	log         *slog.Logger
	gate        *Gate
	registry    contract.IRegistry
	hub         *Hub
	chat        services.IChatService
	authService services.IAuthService
	users       *repositories.UserRepository
	upgrader    websocket.Upgrader
}

func NewServer(
	log *slog.Logger,
	gate *Gate,
	registry contract.IRegistry,
	hub *Hub,
	chat services.IChatService,
	authService services.IAuthService,
	users *repositories.UserRepository,
) *Server {
	return &Server{
		log:         log,
		gate:        gate,
		registry:    registry,
		hub:         hub,
		chat:        chat,
		authService: authService,
		users:       users,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleSocket)
	s.registerRoutes(mux)
	return mux
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn := NewConnection(s.log, ws)
	go conn.WritePump()

	ctx := r.Context()
	identity, err := s.gate.Authenticate(ctx, credentialsFrom(r))
	if err != nil {
		s.rejectConnection(conn, err)
		return
	}

	if err := s.registry.Add(conn.ID(), identity.UserID, identity.ConversationID); err != nil {
		s.rejectConnection(conn, err)
		return
	}
	conn.OnClose(func() {
		s.hub.Detach(conn.ID())
		if err := s.registry.Remove(conn.ID(), identity.UserID, identity.ConversationID); err != nil {
			s.log.Warn("failed to unregister connection", "connId", conn.ID(), "error", err)
		}
		s.log.Info("connection closed", "connId", conn.ID(), "userId", identity.UserID)
	})
	s.hub.Attach(conn)

	if identity.ConversationID != "" {
		if err := s.joinConversation(ctx, conn, identity); err != nil {
			s.rejectConnection(conn, err)
			return
		}
	}

	s.log.Info("connection established",
		"connId", conn.ID(), "userId", identity.UserID, "conversationId", identity.ConversationID)

	conn.ReadPump(func(frame Frame) {
		s.handleFrame(conn, identity, frame)
	})
}

// joinConversation checks the membership and hands the client its
// snapshot.
func (s *Server) joinConversation(ctx context.Context, conn *Connection, identity Identity) error {
	if _, err := s.chat.GetMySubscription(ctx, identity.ConversationID, identity.UserID); err != nil {
		return err
	}
	snapshot, err := s.chat.GetConversationWithMessages(ctx, identity.ConversationID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	conn.Emit(event.ConversationWithMessages, data)
	return nil
}

func (s *Server) handleFrame(conn *Connection, identity Identity, frame Frame) {
	switch frame.Event {
	case "send-message":
		var request sendMessageRequest
		if err := json.Unmarshal(frame.Data, &request); err != nil {
			s.sendError(conn, event.SendMessageError, "malformed send-message payload")
			return
		}
		s.sendMessage(conn, identity, request.Content)
	default:
		s.log.Debug("ignoring unknown frame", "connId", conn.ID(), "event", frame.Event)
	}
}

// sendMessage runs the service call; failures go back on the same socket
// and the connection stays up.
func (s *Server) sendMessage(conn *Connection, identity Identity, content string) {
	ctx := context.Background()
	if identity.ConversationID == "" {
		s.sendError(conn, event.SendMessageError, "connection is not attached to a conversation")
		return
	}

	author := domain.Author{UserID: identity.UserID}
	if user, err := s.users.GetByID(ctx, identity.UserID); err == nil {
		author.Name = user.Name
	}

	if _, err := s.chat.SendMessage(ctx, identity.ConversationID, author, content); err != nil {
		s.sendError(conn, event.SendMessageError, err.Error())
	}
}

// rejectConnection reports the failure and drops the socket.
func (s *Server) rejectConnection(conn *Connection, err error) {
	s.sendError(conn, event.ConnectionError, err.Error())
	conn.Close()
}

func (s *Server) sendError(conn *Connection, kind event.Name, message string) {
	data, err := json.Marshal(event.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	conn.Emit(kind, data)
}

// credentialsFrom reads the handshake credentials from the query string,
// with an Authorization bearer header as fallback for the token.
func credentialsFrom(r *http.Request) Credentials {
	creds := Credentials{
		Token:          r.URL.Query().Get("token"),
		UserID:         domain.ID(r.URL.Query().Get("userId")),
		ConversationID: domain.ID(r.URL.Query().Get("conversationId")),
	}
	if creds.Token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			creds.Token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	return creds
}

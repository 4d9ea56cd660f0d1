package gateway

import (
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// REST surface next to the websocket endpoint: account lifecycle and
// conversation management. Message traffic itself stays on the socket.

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /conversations", s.withAuth(s.handleCreateConversation))
	mux.HandleFunc("GET /conversations/{id}", s.withAuth(s.handleGetConversation))
	mux.HandleFunc("POST /conversations/{id}/subscription", s.withAuth(s.handleSubscribe))
	mux.HandleFunc("DELETE /conversations/{id}/subscription", s.withAuth(s.handleUnsubscribe))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var request registerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, apperrors.ErrArgument)
		return
	}
	token, err := s.authService.Register(r.Context(), request.Email, request.Name, request.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tokenResponse{Token: token.ID.String(), UserID: token.UserID.String()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, apperrors.ErrArgument)
		return
	}
	token, err := s.authService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token.ID.String(), UserID: token.UserID.String()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		s.writeError(w, apperrors.ErrUnauthorized)
		return
	}
	if err := s.authService.Logout(r.Context(), domain.ID(token)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request, _ domain.ID) {
	var request createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, apperrors.ErrArgument)
		return
	}
	conversation, err := s.chat.CreateConversation(r.Context(), request.Title)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"id":    conversation.ID.String(),
		"title": conversation.Title,
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request, userID domain.ID) {
	conversationID := domain.ID(r.PathValue("id"))
	if _, err := s.chat.GetMySubscription(r.Context(), conversationID, userID); err != nil {
		s.writeError(w, err)
		return
	}
	snapshot, err := s.chat.GetConversationWithMessages(r.Context(), conversationID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request, userID domain.ID) {
	subscription, err := s.chat.SubscribeToConversation(r.Context(), domain.ID(r.PathValue("id")), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"id":             subscription.ID.String(),
		"conversationId": subscription.ConversationID.String(),
		"userId":         subscription.UserID.String(),
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request, userID domain.ID) {
	if err := s.chat.UnsubscribeFromConversation(r.Context(), domain.ID(r.PathValue("id")), userID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withAuth resolves the bearer token before the handler runs.
func (s *Server) withAuth(next func(http.ResponseWriter, *http.Request, domain.ID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, apperrors.ErrUnauthorized)
			return
		}
		userID, err := s.gate.validator.Validate(r.Context(), token)
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusOf(err), errorResponse{Message: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrArgument), errors.Is(err, apperrors.ErrInvalidPassword), errors.Is(err, apperrors.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

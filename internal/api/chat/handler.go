package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"finsight/internal/api/response"
	"finsight/internal/domain/chat"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Sessions is the chat service used by the handler.
type Sessions interface {
	NewSession(ctx context.Context, userID, title string) (*chat.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*chat.Session, []*chat.Message, error)
	ListByUser(ctx context.Context, userID string) ([]*chat.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AppendMessage(ctx context.Context, sessionID uuid.UUID, sender chat.Sender, kind chat.MessageType, content []byte) (*chat.Message, error)
}

// Handler serves the chat session endpoints
type Handler struct {
	sessions Sessions
	log      *logger.Logger
}

// NewHandler creates the chat endpoints handler
func NewHandler(sessions Sessions) *Handler {
	return &Handler{
		sessions: sessions,
		log:      logger.Get().With("component", "chat_handler"),
	}
}

// Register mounts the chat routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat/new", h.HandleCreate)
	mux.HandleFunc("GET /api/chat/{chatId}", h.HandleGet)
	mux.HandleFunc("DELETE /api/chat/{chatId}", h.HandleDelete)
	mux.HandleFunc("POST /api/chat/{chatId}/message", h.HandleAppend)
	mux.HandleFunc("GET /api/chats/{userId}", h.HandleList)
}

type createRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

type sessionResponse struct {
	*chat.Session
	Messages []*chat.Message `json:"messages"`
}

type appendRequest struct {
	Sender  chat.Sender      `json:"sender"`
	Type    chat.MessageType `json:"type"`
	Content json.RawMessage  `json:"content"`
}

// HandleCreate opens a session and returns its ID
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	session, err := h.sessions.NewSession(r.Context(), req.UserID, req.Title)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]string{"chatId": session.ID.String()})
}

// HandleGet returns a session with its messages in order
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.chatID(w, r)
	if !ok {
		return
	}

	session, messages, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if messages == nil {
		messages = []*chat.Message{}
	}
	response.JSON(w, http.StatusOK, sessionResponse{Session: session, Messages: messages})
}

// HandleList returns a user's sessions, newest activity first
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if sessions == nil {
		sessions = []*chat.Session{}
	}
	response.JSON(w, http.StatusOK, sessions)
}

// HandleDelete removes a session and its messages
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.chatID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), id); err != nil {
		response.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAppend stores one message. Content is stored as sent and must be valid JSON.
func (h *Handler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	id, ok := h.chatID(w, r)
	if !ok {
		return
	}

	var req appendRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	msg, err := h.sessions.AppendMessage(r.Context(), id, req.Sender, req.Type, req.Content)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) chatID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("chatId")
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(w, h.log, errors.NewValidationError("chatId", "must be a UUID", raw))
		return uuid.Nil, false
	}
	return id, true
}

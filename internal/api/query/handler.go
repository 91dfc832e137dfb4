package query

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"finsight/internal/api/response"
	querysvc "finsight/internal/services/query"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, req querysvc.Request) (*querysvc.Response, error)
}

// Handler serves POST /api/query
type Handler struct {
	service Asker
	log     *logger.Logger
}

// NewHandler creates the query endpoint handler
func NewHandler(service Asker) *Handler {
	return &Handler{
		service: service,
		log:     logger.Get().With("component", "query_handler"),
	}
}

type request struct {
	Prompt string `json:"prompt"`
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
}

// ServeHTTP answers the prompt with a JSON array of agent messages. Business failures are still 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body request
	if err := response.DecodeJSON(r, &body); err != nil {
		response.Error(w, h.log, err)
		return
	}

	req := querysvc.Request{Prompt: body.Prompt, UserID: body.UserID}
	if chatID := strings.TrimSpace(body.ChatID); chatID != "" {
		id, err := uuid.Parse(chatID)
		if err != nil {
			response.Error(w, h.log, errors.NewValidationError("chatId", "must be a UUID", body.ChatID))
			return
		}
		req.ChatID = &id
	}

	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	w.Header().Set("X-Query-ID", resp.QueryID.String())
	response.JSON(w, http.StatusOK, resp.Replies)
}

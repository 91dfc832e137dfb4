package statements

import (
	"context"
	"net/http"

	"finsight/internal/api/response"
	"finsight/internal/domain/financial"
	"finsight/pkg/logger"
)

// Store is the statement service used by the handler.
type Store interface {
	GetStatement(ctx context.Context, ticker string, kind financial.Kind, year string) (*financial.Statement, error)
	Save(ctx context.Context, ticker, kind, year string, data financial.Fields) (*financial.Statement, error)
	Delete(ctx context.Context, ticker, kind, year string) error
	ListByTicker(ctx context.Context, ticker string) ([]*financial.Statement, error)
}

// Handler serves the statements store endpoints
type Handler struct {
	store Store
	log   *logger.Logger
}

// NewHandler creates the statements handler
func NewHandler(store Store) *Handler {
	return &Handler{
		store: store,
		log:   logger.Get().With("component", "statements_handler"),
	}
}

// Register mounts the statement routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /statements/{ticker}", h.HandleList)
	mux.HandleFunc("GET /statements/{ticker}/{kind}/{year}", h.HandleGet)
	mux.HandleFunc("PUT /statements/{ticker}/{kind}/{year}", h.HandlePut)
	mux.HandleFunc("DELETE /statements/{ticker}/{kind}/{year}", h.HandleDelete)

	// Same operations nested under the company profile routes
	mux.HandleFunc("GET /api/companies/{ticker}/{kind}/{year}", h.HandleGet)
	mux.HandleFunc("POST /api/companies/{ticker}/{kind}/{year}", h.HandlePut)
	mux.HandleFunc("DELETE /api/companies/{ticker}/{kind}/{year}", h.HandleDelete)
}

type putRequest struct {
	Data financial.Fields `json:"data"`
}

// HandleGet returns one statement, 404 when absent
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	kind, err := financial.ParseKind(r.PathValue("kind"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	statement, err := h.store.GetStatement(r.Context(), r.PathValue("ticker"), kind, r.PathValue("year"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, statement)
}

// HandlePut creates or replaces a statement
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	statement, err := h.store.Save(r.Context(), r.PathValue("ticker"), r.PathValue("kind"), r.PathValue("year"), req.Data)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, statement)
}

// HandleDelete removes a statement
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("ticker"), r.PathValue("kind"), r.PathValue("year")); err != nil {
		response.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList returns every statement of a company
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	statements, err := h.store.ListByTicker(r.Context(), r.PathValue("ticker"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if statements == nil {
		statements = []*financial.Statement{}
	}
	response.JSON(w, http.StatusOK, statements)
}

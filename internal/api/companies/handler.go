package companies

import (
	"context"
	"net/http"

	"finsight/internal/api/response"
	"finsight/internal/domain/company"
	"finsight/pkg/logger"
)

// Directory is the company service used by the handler.
type Directory interface {
	Get(ctx context.Context, ticker string) (*company.Company, error)
	Save(ctx context.Context, ticker string, profile company.Profile) (*company.Company, error)
	Delete(ctx context.Context, ticker string) error
}

// Handler serves the company profile endpoints
type Handler struct {
	directory Directory
	log       *logger.Logger
}

// NewHandler creates the company endpoints handler
func NewHandler(directory Directory) *Handler {
	return &Handler{
		directory: directory,
		log:       logger.Get().With("component", "companies_handler"),
	}
}

// Register mounts the company routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/companies/{ticker}", h.HandleGet)
	mux.HandleFunc("POST /api/companies/{ticker}", h.HandleSave)
	mux.HandleFunc("DELETE /api/companies/{ticker}", h.HandleDelete)
}

// HandleGet returns a company, 404 when unknown
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.directory.Get(r.Context(), r.PathValue("ticker"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// HandleSave creates or replaces a company profile
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var profile company.Profile
	if err := response.DecodeJSON(r, &profile); err != nil {
		response.Error(w, h.log, err)
		return
	}

	c, err := h.directory.Save(r.Context(), r.PathValue("ticker"), profile)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// HandleDelete removes a company profile
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.Delete(r.Context(), r.PathValue("ticker")); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Company deleted"})
}

package report

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"finsight/internal/api/response"
	"finsight/internal/domain/chat"
	"finsight/internal/domain/report"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Reports is the report service used by the handler.
type Reports interface {
	SaveSnapshot(ctx context.Context, userID string, chatID uuid.UUID, exchanges []report.Exchange) (*report.Snapshot, error)
	Save(ctx context.Context, req report.SaveRequest) (*report.Report, error)
	ListByUser(ctx context.Context, userID string) ([]*report.Report, error)
	GenerateSummaries(ctx context.Context, chatID uuid.UUID, selected []int, messages []*chat.Message) ([]report.Summary, error)
}

// Handler serves the report endpoints
type Handler struct {
	reports Reports
	log     *logger.Logger
}

// NewHandler creates the report endpoints handler
func NewHandler(reports Reports) *Handler {
	return &Handler{
		reports: reports,
		log:     logger.Get().With("component", "report_handler"),
	}
}

// Register mounts the report routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/report", h.HandleSnapshot)
	mux.HandleFunc("GET /api/report-metadata/{userId}", h.HandleList)
	mux.HandleFunc("POST /api/report-metadata", h.HandleSave)
	mux.HandleFunc("POST /api/generate-summaries", h.HandleSummaries)
}

type snapshotRequest struct {
	UserID    string            `json:"userId"`
	ChatID    string            `json:"chatId"`
	Exchanges []report.Exchange `json:"selectedEntities"`
}

type saveRequest struct {
	UserID     string            `json:"userId"`
	ChatID     string            `json:"chatId"`
	Name       string            `json:"reportName"`
	Exchanges  []report.Exchange `json:"selectedEntities"`
	Summaries  []report.Summary  `json:"summaries"`
	ExistingID string            `json:"existingReportId"`
}

// sentMessage is a chat message as the client holds it. Older clients send plain text in "text".
type sentMessage struct {
	Sender  chat.Sender      `json:"sender"`
	Type    chat.MessageType `json:"type"`
	Content json.RawMessage  `json:"content"`
	Text    string           `json:"text"`
}

type summariesRequest struct {
	ChatID   string        `json:"chatId"`
	Selected []int         `json:"selectedEntityNumbers"`
	Messages []sentMessage `json:"allMessages"`
}

type savedResponse struct {
	Message  string `json:"message"`
	ReportID string `json:"reportId"`
}

// HandleSnapshot stores a plain selection of exchanges
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	chatID, err := parseID("chatId", req.ChatID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	snapshot, err := h.reports.SaveSnapshot(r.Context(), req.UserID, chatID, req.Exchanges)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, savedResponse{Message: "Report saved successfully", ReportID: snapshot.ID.String()})
}

// HandleSave creates a named report, or appends to existingReportId
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	chatID, err := parseID("chatId", req.ChatID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	var existingID uuid.UUID
	if req.ExistingID != "" {
		if existingID, err = parseID("existingReportId", req.ExistingID); err != nil {
			response.Error(w, h.log, err)
			return
		}
	}

	saved, err := h.reports.Save(r.Context(), report.SaveRequest{
		UserID:     req.UserID,
		ChatID:     chatID,
		Name:       req.Name,
		Exchanges:  req.Exchanges,
		Summaries:  req.Summaries,
		ExistingID: existingID,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	if existingID != uuid.Nil {
		response.JSON(w, http.StatusOK, savedResponse{Message: "Report metadata updated successfully", ReportID: saved.ID.String()})
		return
	}
	response.JSON(w, http.StatusCreated, savedResponse{Message: "Report metadata saved successfully", ReportID: saved.ID.String()})
}

// HandleList returns a user's named reports, newest first
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if reports == nil {
		reports = []*report.Report{}
	}
	response.JSON(w, http.StatusOK, reports)
}

// HandleSummaries summarizes the exchanges between consecutive selected serial numbers
func (h *Handler) HandleSummaries(w http.ResponseWriter, r *http.Request) {
	var req summariesRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	chatID, err := parseID("chatId", req.ChatID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	summaries, err := h.reports.GenerateSummaries(r.Context(), chatID, req.Selected, toMessages(req.Messages))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string][]report.Summary{"summaries": summaries})
}

func toMessages(sent []sentMessage) []*chat.Message {
	out := make([]*chat.Message, 0, len(sent))
	for _, m := range sent {
		content := m.Content
		if len(content) == 0 {
			content = chat.TextContent(m.Text)
		}
		kind := m.Type
		if kind == "" {
			kind = chat.MessageText
		}
		out = append(out, &chat.Message{Sender: m.Sender, Type: kind, Content: content})
	}
	return out
}

func parseID(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errors.NewValidationError(field, "is required", raw)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(field, "must be a UUID", raw)
	}
	return id, nil
}

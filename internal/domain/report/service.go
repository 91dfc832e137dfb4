package report

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"finsight/internal/domain/chat"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

const (
	noExchangesInRange   = "No exchanges found in the specified range."
	summaryFailurePrefix = "Summary generation failed: "
)

// SessionReader loads a chat session with its messages.
type SessionReader interface {
	Get(ctx context.Context, id uuid.UUID) (*chat.Session, []*chat.Message, error)
}

// Summarizer condenses a run of exchanges into a short paragraph.
type Summarizer interface {
	Summarize(ctx context.Context, exchanges []Exchange) (string, error)
}

// SaveRequest creates a named report, or appends to ExistingID when it is set.
type SaveRequest struct {
	UserID     string
	ChatID     uuid.UUID
	Name       string
	Exchanges  []Exchange
	Summaries  []Summary
	ExistingID uuid.UUID
}

// Service stores report selections and writes summaries between selected exchanges
type Service struct {
	repo       Repository
	sessions   SessionReader
	summarizer Summarizer
	log        *logger.Logger
}

// NewService constructs a report service instance.
func NewService(repo Repository, sessions SessionReader, summarizer Summarizer) *Service {
	return &Service{
		repo:       repo,
		sessions:   sessions,
		summarizer: summarizer,
		log:        logger.Get().With("component", "report_service"),
	}
}

// SaveSnapshot stores a selection of exchanges as-is.
func (s *Service) SaveSnapshot(ctx context.Context, userID string, chatID uuid.UUID, exchanges []Exchange) (*Snapshot, error) {
	if err := validateOwner(userID, chatID); err != nil {
		return nil, err
	}
	if err := validateExchanges(exchanges); err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		ID:        uuid.New(),
		UserID:    userID,
		ChatID:    chatID,
		Exchanges: exchanges,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateSnapshot(ctx, snapshot); err != nil {
		return nil, errors.Wrap(err, "create snapshot")
	}

	s.log.Infow("Report snapshot saved", "report_id", snapshot.ID, "chat_id", chatID, "exchanges", len(exchanges))
	return snapshot, nil
}

// Save creates a named report or appends exchanges and summaries to an existing one.
// An existing report of another user is reported as not found.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Report, error) {
	if err := validateOwner(req.UserID, req.ChatID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, errors.NewValidationError("reportName", "is required", req.Name)
	}
	if err := validateExchanges(req.Exchanges); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	summaries := stampSummaries(req.Summaries, now)

	if req.ExistingID != uuid.Nil {
		existing, err := s.repo.GetReport(ctx, req.ExistingID)
		if err != nil {
			return nil, errors.Wrapf(err, "report %s", req.ExistingID)
		}
		if existing.UserID != req.UserID {
			return nil, errors.Wrapf(errors.ErrNotFound, "report %s", req.ExistingID)
		}

		existing.Exchanges = append(existing.Exchanges, req.Exchanges...)
		existing.Summaries = append(existing.Summaries, summaries...)
		existing.UpdatedAt = now
		if err := s.repo.UpdateReport(ctx, existing); err != nil {
			return nil, errors.Wrap(err, "update report")
		}

		s.log.Infow("Report extended", "report_id", existing.ID, "exchanges", len(existing.Exchanges), "summaries", len(existing.Summaries))
		return existing, nil
	}

	created := &Report{
		ID:        uuid.New(),
		UserID:    req.UserID,
		ChatID:    req.ChatID,
		Name:      req.Name,
		Exchanges: req.Exchanges,
		Summaries: summaries,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateReport(ctx, created); err != nil {
		return nil, errors.Wrap(err, "create report")
	}

	s.log.Infow("Report saved", "report_id", created.ID, "name", created.Name, "exchanges", len(created.Exchanges))
	return created, nil
}

// ListByUser returns the user's named reports, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Report, error) {
	if userID == "" {
		return nil, errors.NewValidationError("userId", "is required", userID)
	}
	reports, err := s.repo.ListReportsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list reports")
	}
	return reports, nil
}

// GenerateSummaries summarizes the exchanges between each consecutive pair of the selected
// serial numbers. messages, when empty, are loaded from the stored session. A summarizer
// failure is written into that summary's content instead of failing the whole request.
func (s *Service) GenerateSummaries(ctx context.Context, chatID uuid.UUID, selected []int, messages []*chat.Message) ([]Summary, error) {
	if chatID == uuid.Nil {
		return nil, errors.NewValidationError("chatId", "is required", chatID)
	}
	if len(selected) < 2 {
		return nil, errors.NewValidationError("selectedEntityNumbers", "need at least 2 selected exchanges", selected)
	}

	if len(messages) == 0 {
		var err error
		if _, messages, err = s.sessions.Get(ctx, chatID); err != nil {
			return nil, errors.Wrapf(err, "chat session %s", chatID)
		}
	}
	exchanges := GroupExchanges(messages)

	sorted := slices.Clone(selected)
	slices.Sort(sorted)

	now := time.Now().UTC()
	summaries := make([]Summary, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		start, end := sorted[i], sorted[i+1]

		content, err := s.summarize(ctx, Between(exchanges, start, end))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{
			Name:          fmt.Sprintf("summary_%d_%d", start, end),
			StartExchange: start,
			EndExchange:   end,
			Content:       content,
			CreatedAt:     now,
		})
	}

	s.log.Infow("Summaries generated", "chat_id", chatID, "summaries", len(summaries), "exchanges", len(exchanges))
	return summaries, nil
}

// summarize only returns an error when ctx is done.
func (s *Service) summarize(ctx context.Context, exchanges []Exchange) (string, error) {
	if len(exchanges) == 0 {
		return noExchangesInRange, nil
	}

	text, err := s.summarizer.Summarize(ctx, exchanges)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "generate summaries")
		}
		s.log.Warnw("Summary generation failed", "exchanges", len(exchanges), "error", err)
		return summaryFailurePrefix + err.Error(), nil
	}
	return text, nil
}

func validateOwner(userID string, chatID uuid.UUID) error {
	if userID == "" {
		return errors.NewValidationError("userId", "is required", userID)
	}
	if chatID == uuid.Nil {
		return errors.NewValidationError("chatId", "is required", chatID)
	}
	return nil
}

func stampSummaries(summaries []Summary, at time.Time) []Summary {
	out := make([]Summary, len(summaries))
	for i, s := range summaries {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = at
		}
		out[i] = s
	}
	return out
}

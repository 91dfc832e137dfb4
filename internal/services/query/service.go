package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsight/internal/adapters/errors/sentry"
	"finsight/internal/agents"
	"finsight/internal/domain/chat"
	"finsight/internal/events"
	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Runner answers one question.
type Runner interface {
	Run(ctx context.Context, query string) *agents.Result
}

// ChatStore persists a prompt together with the replies it produced.
type ChatStore interface {
	AppendExchange(ctx context.Context, sessionID uuid.UUID, prompt string, replies []*chat.Message) error
}

// EventPublisher receives one event per handled query.
type EventPublisher interface {
	PublishQuery(ctx context.Context, event *events.QueryEvent) error
}

// Request is a question from the query endpoint.
type Request struct {
	Prompt string
	UserID string
	ChatID *uuid.UUID
}

// Reply is one agent message of the answer.
type Reply struct {
	Sender  chat.Sender      `json:"sender"`
	Type    chat.MessageType `json:"type"`
	Content json.RawMessage  `json:"content"`
}

// Response is the handled query.
type Response struct {
	QueryID uuid.UUID
	Outcome agents.Outcome
	Replies []Reply
}

// Service handles questions (Application Service)
// Runs the pipeline, then records the exchange in the chat and publishes an audit event.
// Neither side effect can change the response.
type Service struct {
	runner    Runner
	chats     ChatStore
	publisher EventPublisher
	log       *logger.Logger
}

// NewService creates the query service. chats and publisher may be nil.
func NewService(runner Runner, chats ChatStore, publisher EventPublisher) *Service {
	return &Service{
		runner:    runner,
		chats:     chats,
		publisher: publisher,
		log:       logger.Get().With("component", "query_service"),
	}
}

// Ask answers req. Only an empty prompt is an error; every pipeline failure is a text reply.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.NewValidationError("prompt", "is required", req.Prompt)
	}

	queryID := uuid.New()
	ctx = context.WithValue(ctx, sentry.QueryIDKey, queryID.String())
	start := time.Now()

	result := s.run(ctx, prompt)
	duration := time.Since(start)
	metrics.RecordQuery(string(result.Outcome), duration)

	resp := &Response{QueryID: queryID, Outcome: result.Outcome, Replies: toReplies(result.Blocks)}

	s.log.Infow("Query handled",
		"query_id", queryID,
		"outcome", result.Outcome,
		"blocks", len(resp.Replies),
		"duration", duration,
	)

	if req.ChatID != nil {
		s.persist(ctx, *req.ChatID, prompt, resp.Replies)
	}
	s.publish(ctx, queryID, req, prompt, result, duration)

	return resp, nil
}

// run shields the caller from a panicking pipeline.
func (s *Service) run(ctx context.Context, prompt string) (result *agents.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorWithContext(ctx, fmt.Errorf("query panic: %v", r), map[string]string{"component": "query_service"})
			result = &agents.Result{
				Outcome: agents.OutcomeError,
				Blocks:  []agents.Block{agents.TextBlock(agents.MessageError)},
			}
		}
	}()
	return s.runner.Run(ctx, prompt)
}

func (s *Service) persist(ctx context.Context, chatID uuid.UUID, prompt string, replies []Reply) {
	if s.chats == nil {
		return
	}

	messages := make([]*chat.Message, 0, len(replies))
	for _, r := range replies {
		messages = append(messages, &chat.Message{Sender: r.Sender, Type: r.Type, Content: r.Content})
	}

	if err := s.chats.AppendExchange(ctx, chatID, prompt, messages); err != nil {
		s.log.Warnw("Failed to save exchange to chat", "chat_id", chatID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, queryID uuid.UUID, req Request, prompt string, result *agents.Result, duration time.Duration) {
	if s.publisher == nil {
		return
	}

	chatID := ""
	if req.ChatID != nil {
		chatID = req.ChatID.String()
	}

	event := events.NewQueryEvent(queryID, chatID, req.UserID, prompt, string(result.Outcome), duration)
	for _, b := range result.Blocks {
		event.Blocks = append(event.Blocks, string(b.Component))
	}
	if result.Plan != nil {
		event.Steps = len(result.Plan.Steps)
	}
	for _, stepErr := range result.StepErrors {
		event.FailedSteps = append(event.FailedSteps, stepErr.OutputKey)
	}

	if err := s.publisher.PublishQuery(ctx, event); err != nil {
		s.log.Warnw("Failed to publish query event", "query_id", queryID, "error", err)
	}
}

func toReplies(blocks []agents.Block) []Reply {
	replies := make([]Reply, 0, len(blocks))
	for _, b := range blocks {
		replies = append(replies, Reply{
			Sender:  chat.SenderAgent,
			Type:    chat.MessageType(b.Component.MessageType()),
			Content: b.Data,
		})
	}
	return replies
}

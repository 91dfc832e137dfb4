package query

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/agents"
	"finsight/internal/domain/chat"
	"finsight/internal/events"
	"finsight/pkg/errors"
)

type stubRunner struct {
	result *agents.Result
	panics bool
	got    string
}

func (r *stubRunner) Run(_ context.Context, query string) *agents.Result {
	r.got = query
	if r.panics {
		panic("pipeline bug")
	}
	return r.result
}

type stubChats struct {
	sessionID uuid.UUID
	prompt    string
	replies   []*chat.Message
	err       error
}

func (c *stubChats) AppendExchange(_ context.Context, sessionID uuid.UUID, prompt string, replies []*chat.Message) error {
	c.sessionID, c.prompt, c.replies = sessionID, prompt, replies
	return c.err
}

type stubPublisher struct {
	events []*events.QueryEvent
	err    error
}

func (p *stubPublisher) PublishQuery(_ context.Context, event *events.QueryEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func answeredResult() *agents.Result {
	return &agents.Result{
		Outcome: agents.OutcomeAnswered,
		Blocks: []agents.Block{
			agents.TableBlock([]agents.TableRow{{Year: "2022", Cells: []agents.TableCell{{Column: "AAPL", Value: 2}}}}),
			agents.TextBlock("Apple's ratio was 2."),
		},
		Plan: &agents.ExecutionPlan{Steps: []agents.PlanStep{
			{Agent: agents.AgentCalculator, OutputKey: "de"},
			{Agent: agents.AgentFormulaWriter, OutputKey: "formula"},
		}},
		StepErrors: []*errors.StepError{{Agent: "LatexWriter", OutputKey: "formula", Err: errors.ErrParseFailure}},
	}
}

func TestService_Ask(t *testing.T) {
	runner := &stubRunner{result: answeredResult()}
	chats := &stubChats{}
	publisher := &stubPublisher{}
	chatID := uuid.New()

	resp, err := NewService(runner, chats, publisher).Ask(context.Background(), Request{
		Prompt: "  Apple debt to equity  ",
		UserID: "user-1",
		ChatID: &chatID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Apple debt to equity", runner.got)
	assert.Equal(t, agents.OutcomeAnswered, resp.Outcome)
	require.Len(t, resp.Replies, 2)
	assert.Equal(t, chat.MessageTable, resp.Replies[0].Type)
	assert.Equal(t, chat.MessageText, resp.Replies[1].Type)
	assert.Equal(t, chat.SenderAgent, resp.Replies[1].Sender)
	assert.JSONEq(t, `"Apple's ratio was 2."`, string(resp.Replies[1].Content))

	assert.Equal(t, chatID, chats.sessionID)
	assert.Equal(t, "Apple debt to equity", chats.prompt)
	require.Len(t, chats.replies, 2)
	assert.Equal(t, chat.MessageTable, chats.replies[0].Type)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, resp.QueryID.String(), event.ID)
	assert.Equal(t, chatID.String(), event.ChatID)
	assert.Equal(t, "answered", event.Outcome)
	assert.Equal(t, []string{"AgentTable", "AgentText"}, event.Blocks)
	assert.Equal(t, 2, event.Steps)
	assert.Equal(t, []string{"formula"}, event.FailedSteps)
}

func TestService_SideEffectFailuresDoNotChangeResponse(t *testing.T) {
	runner := &stubRunner{result: answeredResult()}
	chats := &stubChats{err: errors.ErrNotFound}
	publisher := &stubPublisher{err: errors.ErrUnavailable}
	chatID := uuid.New()

	resp, err := NewService(runner, chats, publisher).Ask(context.Background(), Request{Prompt: "q", ChatID: &chatID})
	require.NoError(t, err)
	assert.Len(t, resp.Replies, 2)
}

func TestService_NoChatNoPersistence(t *testing.T) {
	chats := &stubChats{}

	_, err := NewService(&stubRunner{result: answeredResult()}, chats, nil).Ask(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Nil(t, chats.replies)
}

func TestService_EmptyPrompt(t *testing.T) {
	runner := &stubRunner{}

	_, err := NewService(runner, nil, nil).Ask(context.Background(), Request{Prompt: "   "})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Empty(t, runner.got)
}

func TestService_PanicBecomesApology(t *testing.T) {
	resp, err := NewService(&stubRunner{panics: true}, nil, nil).Ask(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)

	assert.Equal(t, agents.OutcomeError, resp.Outcome)
	require.Len(t, resp.Replies, 1)
	assert.JSONEq(t, `"`+agents.MessageError+`"`, string(resp.Replies[0].Content))
}

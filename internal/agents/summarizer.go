package agents

import (
	"context"
	"strings"

	"finsight/internal/adapters/ai"
	"finsight/internal/domain/report"
)

var _ report.Summarizer = (*Summarizer)(nil)

// Summarizer writes the report summary of a run of chat exchanges.
type Summarizer struct {
	oracleStage
}

// NewSummarizer creates the report summarizer.
func NewSummarizer(oracle ai.Invoker, model string) *Summarizer {
	return &Summarizer{oracleStage: newOracleStage("summary", oracle, model, temperatureSummary)}
}

type summaryPrompt struct {
	Transcript string
}

// Summarize returns the trimmed reply. A blank reply is a parse failure.
func (s *Summarizer) Summarize(ctx context.Context, exchanges []report.Exchange) (string, error) {
	raw, err := s.ask(ctx, summaryPrompt{Transcript: report.Transcript(exchanges)})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", s.shapeFailure("empty summary", raw)
	}
	return text, nil
}

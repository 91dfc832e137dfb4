package agents

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"finsight/internal/adapters/ai"
	"finsight/internal/domain/financial"
	"finsight/pkg/errors"
)

// stageMarkers identify a stage by a phrase of its system prompt.
var stageMarkers = map[string]string{
	"identifier": "You extract statement metadata",
	"classifier": "deciding how a question should be answered",
	"planner":    "You plan which agents",
	"calculator": "You are a financial calculator",
	"formula":    "You write the formula",
	"chart":      "You turn financial rows into chart data",
	"answer":     "You write the final answer",
	"summary":    "You summarize conversations",
}

// fakeOracle replies with scripted text per stage and records the user prompts it saw.
type fakeOracle struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	prompts map[string][]string
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		replies: make(map[string]string),
		errs:    make(map[string]error),
		prompts: make(map[string][]string),
	}
}

func (f *fakeOracle) reply(stage, text string) *fakeOracle {
	f.replies[stage] = text
	return f
}

func (f *fakeOracle) fail(stage string, err error) *fakeOracle {
	f.errs[stage] = err
	return f
}

func (f *fakeOracle) calls(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts[stage])
}

func (f *fakeOracle) lastPrompt(stage string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.prompts[stage]
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (f *fakeOracle) Invoke(_ context.Context, conv ai.Conversation, _ string, _ float64) (string, error) {
	stage := "unknown"
	for name, marker := range stageMarkers {
		if strings.Contains(conv[0].Content, marker) {
			stage = name
			break
		}
	}

	f.mu.Lock()
	f.prompts[stage] = append(f.prompts[stage], conv[len(conv)-1].Content)
	f.mu.Unlock()

	if err, ok := f.errs[stage]; ok {
		return "", err
	}
	reply, ok := f.replies[stage]
	if !ok {
		return "", errors.Newf("no scripted reply for %s", stage)
	}
	return reply, nil
}

// fakeSource serves statements from memory and counts lookups.
type fakeSource struct {
	statements map[financial.Key]financial.Fields
	fail       map[string]error
	lookups    atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		statements: make(map[financial.Key]financial.Fields),
		fail:       make(map[string]error),
	}
}

func (s *fakeSource) add(ticker string, kind financial.Kind, year string, fields financial.Fields) *fakeSource {
	s.statements[financial.Key{Ticker: ticker, Kind: kind, Year: year}] = fields
	return s
}

func (s *fakeSource) GetStatement(_ context.Context, ticker string, kind financial.Kind, year string) (*financial.Statement, error) {
	s.lookups.Add(1)
	if err, ok := s.fail[ticker]; ok {
		return nil, err
	}
	fields, ok := s.statements[financial.Key{Ticker: ticker, Kind: kind, Year: year}]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &financial.Statement{Ticker: ticker, Kind: kind, Year: year, Data: fields}, nil
}

// funcAgent is an Agent backed by a function.
type funcAgent struct {
	agentType AgentType
	invoke    func(ctx context.Context, req AgentRequest) (AgentResult, error)
}

func (a *funcAgent) Type() AgentType { return a.agentType }

func (a *funcAgent) Invoke(ctx context.Context, req AgentRequest) (AgentResult, error) {
	return a.invoke(ctx, req)
}

func f64(v float64) *float64 { return &v }

func balanceRecord(ticker, year string, fields financial.Fields) StatementRecord {
	return StatementRecord{Ticker: ticker, Year: year, Kind: financial.KindBalance, Fields: fields}
}

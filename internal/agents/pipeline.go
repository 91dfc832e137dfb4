package agents

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/adapters/ai"
	"finsight/internal/adapters/errors/noop"
	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Outcome is how a query ended.
type Outcome string

const (
	OutcomeAnswered             Outcome = "answered"
	OutcomeDirectAnswer         Outcome = "direct_answer"
	OutcomeNoCompany            Outcome = "no_company"
	OutcomeNoData               Outcome = "no_data"
	OutcomeClassificationFailed Outcome = "classification_failed"
	OutcomePlanInvalid          Outcome = "plan_invalid"
	OutcomeAnswerFailed         Outcome = "answer_failed"
	OutcomeError                Outcome = "error"
)

// User-facing messages for queries that end without an answer.
const (
	MessageNoCompany            = "I could not identify any companies in your query. Please try rephrasing your question with specific company names or ticker symbols."
	MessageNoData               = "I could not find financial data for the requested companies. Please check the company names and try again."
	MessageClassificationFailed = "I could not understand your query properly. Please try rephrasing your question."
	MessagePlanInvalid          = "I could not create a plan to answer your query. Please try rephrasing your question."
	MessageAnswerFailed         = "I processed your query but could not generate a proper response. Please try again."
	MessageError                = "Sorry, I encountered an error while processing your query. Please try again."
)

// Result is everything a query produced. Blocks is never empty.
type Result struct {
	Outcome    Outcome
	Blocks     []Block
	Targets    []Target
	Records    []StatementRecord
	Intent     *Intent
	Plan       *ExecutionPlan
	Context    *ResultContext
	StepErrors []*errors.StepError
	Err        error
}

// Models selects the oracle model per stage. Agent is used by the plan agents and the answer compiler.
type Models struct {
	Identifier string
	Classifier string
	Planner    string
	Agent      string
}

// PipelineDeps are the stages a Pipeline runs.
type PipelineDeps struct {
	Identifier *Identifier
	Resolver   *Resolver
	Classifier *Classifier
	Compiler   *PlanCompiler
	Executor   *Executor
	Answer     *AnswerCompiler
	Tracker    errors.Tracker
}

// Pipeline answers one question: identify, resolve, classify, then either answer directly or
// compile, execute and answer a plan.
type Pipeline struct {
	deps PipelineDeps
	log  *logger.Logger
}

// NewPipeline wires a pipeline from its stages. A nil tracker discards breadcrumbs.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Tracker == nil {
		deps.Tracker = noop.New()
	}
	return &Pipeline{
		deps: deps,
		log:  logger.Get().With("component", "pipeline"),
	}
}

// NewDefaultPipeline builds every stage over one oracle and registers the four plan agents.
func NewDefaultPipeline(oracle ai.Invoker, models Models, source StatementSource, maxConcurrency int, flatInput bool, tracker errors.Tracker) *Pipeline {
	answer := NewAnswerCompiler(oracle, models.Agent)
	registry := NewRegistry(
		NewCalculator(oracle, models.Agent),
		NewFormulaWriter(oracle, models.Agent),
		NewChartBuilder(oracle, models.Agent),
		answer,
	)

	return NewPipeline(PipelineDeps{
		Identifier: NewIdentifier(oracle, models.Identifier),
		Resolver:   NewResolver(source, maxConcurrency),
		Classifier: NewClassifier(oracle, models.Classifier),
		Compiler:   NewPlanCompiler(oracle, models.Planner),
		Executor:   NewExecutor(registry, flatInput),
		Answer:     answer,
		Tracker:    tracker,
	})
}

// Run processes query. Every failure, including a panic, degrades to a single Text block.
func (p *Pipeline) Run(ctx context.Context, query string) (res *Result) {
	res = &Result{}
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("Pipeline panicked", "panic", r)
			res = p.fail(ctx, res, OutcomeError, MessageError, fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	p.log.Debugw("Processing query", "query", truncate(query, 200))

	err := p.stage(ctx, "identify", func() (err error) {
		res.Targets, err = p.deps.Identifier.Identify(ctx, query)
		return err
	})
	if err != nil && !errors.Is(err, errors.ErrParseFailure) {
		return p.fail(ctx, res, OutcomeError, MessageError, err)
	}
	if len(res.Targets) == 0 {
		return p.fail(ctx, res, OutcomeNoCompany, MessageNoCompany, err)
	}

	err = p.stage(ctx, "resolve", func() (err error) {
		res.Records, err = p.deps.Resolver.Resolve(ctx, res.Targets)
		return err
	})
	if errors.Is(err, errors.ErrNoDataFound) {
		return p.fail(ctx, res, OutcomeNoData, MessageNoData, err)
	}
	if err != nil {
		return p.fail(ctx, res, OutcomeError, MessageError, err)
	}

	err = p.stage(ctx, "classify", func() (err error) {
		res.Intent, err = p.deps.Classifier.Classify(ctx, query, res.Records)
		return err
	})
	if err != nil {
		return p.fail(ctx, res, p.outcomeFor(err, OutcomeClassificationFailed), p.messageFor(err, MessageClassificationFailed), err)
	}

	if res.Intent.Kind == IntentDirectAnswer {
		return p.directAnswer(ctx, query, res)
	}

	err = p.stage(ctx, "plan", func() (err error) {
		res.Plan, err = p.deps.Compiler.Compile(ctx, res.Intent.Text, query, res.Targets, res.Records)
		return err
	})
	if err != nil {
		return p.fail(ctx, res, p.outcomeFor(err, OutcomePlanInvalid), p.messageFor(err, MessagePlanInvalid), err)
	}

	_ = p.stage(ctx, "execute", func() error {
		res.Context, res.StepErrors = p.deps.Executor.Execute(ctx, res.Plan, res.Records, query)
		if len(res.StepErrors) > 0 {
			return res.StepErrors[0]
		}
		return nil
	})
	for _, stepErr := range res.StepErrors {
		p.deps.Tracker.AddBreadcrumb(ctx, "step failed", "pipeline", errors.LevelWarning, map[string]interface{}{
			"agent":      stepErr.Agent,
			"output_key": stepErr.OutputKey,
			"error":      stepErr.Err.Error(),
		})
	}
	if n := len(res.Plan.Steps); n > 0 && len(res.StepErrors) == n {
		_ = p.deps.Tracker.CaptureMessage(ctx, "every plan step failed", errors.LevelWarning, map[string]string{
			"steps":  itoa(n),
			"intent": string(res.Intent.Kind),
		})
	}

	var display *DisplayPlan
	err = p.stage(ctx, "answer", func() (err error) {
		display, err = p.deps.Answer.Compile(ctx, AnswerRequest{Query: query, Plan: res.Plan, Context: res.Context})
		return err
	})
	if err != nil {
		return p.fail(ctx, res, p.outcomeFor(err, OutcomeAnswerFailed), p.messageFor(err, MessageAnswerFailed), err)
	}

	res.Outcome = OutcomeAnswered
	res.Blocks = display.Blocks
	p.log.Infow("Query answered",
		"targets", len(res.Targets),
		"records", len(res.Records),
		"steps", len(res.Plan.Steps),
		"failed_steps", len(res.StepErrors),
		"blocks", len(res.Blocks),
	)
	return res
}

// directAnswer renders the classifier's values. When the answer compiler fails the values are
// still returned as a summary narrative.
func (p *Pipeline) directAnswer(ctx context.Context, query string, res *Result) *Result {
	res.Outcome = OutcomeDirectAnswer
	res.Context = NewResultContext()
	res.Context.Set(res.Intent.Series.Key, res.Intent.Series)

	var display *DisplayPlan
	err := p.stage(ctx, "answer", func() (err error) {
		display, err = p.deps.Answer.Compile(ctx, AnswerRequest{Query: query, Context: res.Context, Message: res.Intent.Message})
		return err
	})
	if err != nil {
		p.log.Warnw("Direct answer compilation failed, using summary", "error", err)
		res.Err = err
		res.Blocks = []Block{TextBlock(SummaryNarrative(res.Intent.Message, res.Context))}
		return res
	}

	res.Blocks = display.Blocks
	p.log.Infow("Query answered directly", "key", res.Intent.Series.Key, "values", len(res.Intent.Series.Values))
	return res
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	p.deps.Tracker.AddBreadcrumb(ctx, name, "pipeline", errors.LevelInfo, nil)

	start := time.Now()
	err := fn()
	metrics.RecordStage(name, time.Since(start), err)

	p.log.Debugw("Stage finished", "stage", name, "duration", time.Since(start), "error", err)
	return err
}

// outcomeFor maps oracle outages and cancellation to the generic error outcome.
func (p *Pipeline) outcomeFor(err error, fallback Outcome) Outcome {
	if isUnexpected(err) {
		return OutcomeError
	}
	return fallback
}

func (p *Pipeline) messageFor(err error, fallback string) string {
	if isUnexpected(err) {
		return MessageError
	}
	return fallback
}

func isUnexpected(err error) bool {
	return errors.Is(err, errors.ErrOracleUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) fail(ctx context.Context, res *Result, outcome Outcome, message string, err error) *Result {
	res.Outcome = outcome
	res.Err = err
	res.Blocks = []Block{TextBlock(message)}

	if outcome == OutcomeError && err != nil {
		p.log.ErrorWithContext(ctx, err, map[string]string{"component": "pipeline", "outcome": string(outcome)})
	} else {
		p.log.Warnw("Query not answered", "outcome", outcome, "error", err)
	}
	return res
}

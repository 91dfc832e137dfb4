package agents

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/metrics"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Executor runs plan steps strictly in order against a fresh ResultContext.
type Executor struct {
	registry  *Registry
	flatInput bool
	log       *logger.Logger
}

// NewExecutor creates an executor. flatInput switches non-chart agents to ticker -> field input.
func NewExecutor(registry *Registry, flatInput bool) *Executor {
	return &Executor{
		registry:  registry,
		flatInput: flatInput,
		log:       logger.Get().With("component", "executor"),
	}
}

// Execute runs every step of plan. A failed step is logged, reported in the returned step errors
// and leaves its key unset; the remaining steps still run. Cancellation stops before the next step.
func (e *Executor) Execute(ctx context.Context, plan *ExecutionPlan, records []StatementRecord, query string) (*ResultContext, []*errors.StepError) {
	rc := NewResultContext()
	var failures []*errors.StepError

	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			e.log.Warnw("Plan execution cancelled", "completed_steps", i, "total_steps", len(plan.Steps))
			failures = append(failures, &errors.StepError{Agent: step.Agent.String(), OutputKey: step.OutputKey, Err: err})
			break
		}

		start := time.Now()
		result, err := e.runStep(ctx, step, plan, records, query, rc)
		metrics.RecordPlanStep(step.Agent.String(), err)

		if err != nil {
			stepErr := &errors.StepError{Agent: step.Agent.String(), OutputKey: step.OutputKey, Err: err}
			failures = append(failures, stepErr)
			e.log.Warnw("Step failed, skipping",
				"step", i,
				"agent", step.Agent,
				"output_key", step.OutputKey,
				"error", err,
			)
			continue
		}

		rc.Set(step.OutputKey, result)
		e.log.Debugw("Step completed",
			"step", i,
			"agent", step.Agent,
			"output_key", step.OutputKey,
			"result", result.ResultKind(),
			"duration", time.Since(start),
		)
	}

	e.log.Infow("Plan executed", "steps", len(plan.Steps), "results", rc.Len(), "failed", len(failures))
	return rc, failures
}

func (e *Executor) runStep(ctx context.Context, step PlanStep, plan *ExecutionPlan, records []StatementRecord, query string, rc *ResultContext) (result AgentResult, err error) {
	agent, ok := e.registry.Get(step.Agent)
	if !ok {
		return nil, errors.Newf("no agent registered for %s (have %v)", step.Agent, e.registry.List())
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("agent %s panicked: %v", step.Agent, r)
		}
	}()

	snapshot := rc.Snapshot()
	result, err = agent.Invoke(ctx, AgentRequest{
		Query:       query,
		Instruction: step.Instruction,
		OutputKey:   step.OutputKey,
		Input:       e.resolveInput(step, records, snapshot),
		Plan:        plan,
		Context:     snapshot,
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("agent returned no result")
	}
	return result, nil
}

// resolveInput shapes the step input for the target agent.
func (e *Executor) resolveInput(step PlanStep, records []StatementRecord, snapshot *ResultContext) StepInput {
	if step.Input.Kind == FromContext {
		return snapshot
	}

	switch {
	case step.Agent == AgentChartBuilder:
		return buildRows(records, step.Input.Fields)
	case e.flatInput:
		return buildFlat(records, step.Input.Fields)
	default:
		return buildNested(records, step.Input.Fields)
	}
}

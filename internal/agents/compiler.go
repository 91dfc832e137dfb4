package agents

import (
	"context"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"finsight/internal/adapters/ai"
	"finsight/pkg/errors"
	"finsight/pkg/llmjson"
)

// PlanCompiler turns an instruction into an execution plan.
type PlanCompiler struct {
	oracleStage
}

// NewPlanCompiler creates the plan compiler.
func NewPlanCompiler(oracle ai.Invoker, model string) *PlanCompiler {
	return &PlanCompiler{oracleStage: newOracleStage("planner", oracle, model, temperaturePlan)}
}

type plannerPrompt struct {
	Instruction string
	Query       string
	Metadata    []Target
	Fields      []string
}

// Compile asks the oracle for a plan and validates its structure only. A reply that is not JSON or
// has no steps array is errors.ErrPlanInvalid. Steps naming an unknown agent are dropped; FromRecords
// fields are narrowed to fields present in records.
func (c *PlanCompiler) Compile(ctx context.Context, instruction, query string, targets []Target, records []StatementRecord) (*ExecutionPlan, error) {
	fields := FieldNames(records)

	obj, raw, err := c.askJSON(ctx, plannerPrompt{
		Instruction: instruction,
		Query:       query,
		Metadata:    targets,
		Fields:      fields,
	})
	if err != nil {
		if errors.Is(err, errors.ErrParseFailure) {
			return nil, errors.Wrapf(errors.ErrPlanInvalid, "%v", err)
		}
		return nil, err
	}
	if !llmjson.HasArray(obj, "steps") {
		c.log.Warnw("Plan without steps", "raw", truncate(raw, 500))
		return nil, errors.Wrap(errors.ErrPlanInvalid, "missing steps array")
	}

	plan := &ExecutionPlan{}
	gjson.GetBytes(obj, "steps").ForEach(func(_, step gjson.Result) bool {
		if s, ok := c.compileStep(step, fields); ok {
			plan.Steps = append(plan.Steps, s)
		}
		return true
	})

	c.log.Infow("Compiled plan", "steps", len(plan.Steps), "agents", stepAgents(plan))
	return plan, nil
}

func (c *PlanCompiler) compileStep(step gjson.Result, fields []string) (PlanStep, bool) {
	name := strings.TrimSpace(step.Get("agent").String())
	agent, ok := ParseAgentType(name)
	if !ok {
		c.log.Warnw("Dropping step with unknown agent", "agent", name)
		return PlanStep{}, false
	}

	key := strings.TrimSpace(step.Get("output_format.key").String())
	if key == "" {
		key = name
	}

	return PlanStep{
		Agent:       agent,
		Instruction: step.Get("instruction").String(),
		Input:       compileInput(step.Get("input"), fields),
		OutputType:  step.Get("output_format.type").String(),
		OutputKey:   key,
	}, true
}

// compileInput maps the wire "from" value. Sources other than data and earlier output
// become a FromRecords input with no fields, which resolves to empty input.
func compileInput(input gjson.Result, observed []string) InputSource {
	switch strings.ToLower(strings.TrimSpace(input.Get("from").String())) {
	case "data":
		available := make(map[string]bool, len(observed))
		for _, f := range observed {
			available[f] = true
		}

		var fields []string
		input.Get("fields").ForEach(func(_, f gjson.Result) bool {
			if name := f.String(); available[name] && !slices.Contains(fields, name) {
				fields = append(fields, name)
			}
			return true
		})
		return InputSource{Kind: FromRecords, Fields: fields}

	case "previous_step", "output", "context":
		return InputSource{Kind: FromContext}

	default:
		return InputSource{Kind: FromRecords}
	}
}

func stepAgents(plan *ExecutionPlan) []string {
	names := make([]string, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		names = append(names, s.Agent.String())
	}
	return names
}

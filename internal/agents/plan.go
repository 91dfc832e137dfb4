package agents

import (
	"encoding/json"
)

// InputSourceKind selects where a step reads its input from.
type InputSourceKind string

const (
	// FromRecords pulls named fields out of the resolved statements
	FromRecords InputSourceKind = "data"
	// FromContext passes everything computed by earlier steps
	FromContext InputSourceKind = "previous_step"
)

// InputSource describes a step's input. Fields is only used with FromRecords.
type InputSource struct {
	Kind   InputSourceKind
	Fields []string
}

// PlanStep is one agent invocation of a plan.
type PlanStep struct {
	Agent       AgentType
	Instruction string
	Input       InputSource
	OutputType  string
	OutputKey   string
}

// ExecutionPlan is the ordered list of steps compiled for one question.
type ExecutionPlan struct {
	Steps []PlanStep
}

type wireInput struct {
	From   string   `json:"from"`
	Fields []string `json:"fields,omitempty"`
}

type wireOutputFormat struct {
	Type string `json:"type,omitempty"`
	Key  string `json:"key"`
}

type wireStep struct {
	Agent        string           `json:"agent"`
	Instruction  string           `json:"instruction"`
	Input        wireInput        `json:"input"`
	OutputFormat wireOutputFormat `json:"output_format"`
}

// MarshalJSON encodes the plan in the planner's wire format.
func (p *ExecutionPlan) MarshalJSON() ([]byte, error) {
	steps := make([]wireStep, 0, len(p.Steps))
	for _, s := range p.Steps {
		steps = append(steps, wireStep{
			Agent:        s.Agent.String(),
			Instruction:  s.Instruction,
			Input:        wireInput{From: string(s.Input.Kind), Fields: s.Input.Fields},
			OutputFormat: wireOutputFormat{Type: s.OutputType, Key: s.OutputKey},
		})
	}
	return json.Marshal(struct {
		Steps []wireStep `json:"steps"`
	}{Steps: steps})
}

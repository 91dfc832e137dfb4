package agents

import (
	"context"
	"regexp"
	"strings"

	"finsight/internal/adapters/ai"
	"finsight/pkg/llmjson"
)

var (
	displayMathPattern = regexp.MustCompile(`(?s)\\\[(.*?)\\\]`)
	latexCommandSpan   = regexp.MustCompile(`\\[A-Za-z]+.*`)
)

// FormulaWriter renders the formula of a calculation as display LaTeX.
type FormulaWriter struct {
	oracleStage
}

// NewFormulaWriter creates the formula writer agent.
func NewFormulaWriter(oracle ai.Invoker, model string) *FormulaWriter {
	return &FormulaWriter{oracleStage: newOracleStage("formula", oracle, model, temperatureFormula)}
}

func (f *FormulaWriter) Type() AgentType { return AgentFormulaWriter }

type formulaPrompt struct {
	Instruction string
	Input       StepInput
}

// Invoke returns a FormulaText holding only the delimited formula of the reply.
func (f *FormulaWriter) Invoke(ctx context.Context, req AgentRequest) (AgentResult, error) {
	raw, err := f.ask(ctx, formulaPrompt{Instruction: req.Instruction, Input: req.Input})
	if err != nil {
		return nil, err
	}

	latex, ok := ExtractFormula(raw)
	if !ok {
		return nil, f.shapeFailure("no formula markup", raw)
	}
	return &FormulaText{Latex: latex}, nil
}

// ExtractFormula returns the first \[ ... \] span of text. When there is none, the first line
// fragment starting at a LaTeX command is wrapped in \[ \]. Replies that are a JSON object with a
// "latex" or "formula" string are unwrapped first.
func ExtractFormula(text string) (string, bool) {
	if obj, err := llmjson.Sanitize(text); err == nil {
		for _, path := range []string{"latex", "formula"} {
			if s := llmjson.String(obj, path); s != "" {
				text = s
				break
			}
		}
	}

	if m := displayMathPattern.FindStringSubmatch(text); m != nil {
		body := strings.TrimSpace(m[1])
		if body != "" {
			return `\[ ` + body + ` \]`, true
		}
	}

	if m := latexCommandSpan.FindString(text); m != "" {
		return `\[ ` + strings.TrimSpace(m) + ` \]`, true
	}
	return "", false
}

package agents

import (
	"strings"

	"finsight/internal/domain/financial"
)

// AgentType enumerates the computation agents a plan can dispatch to.
// Values are the names used on the wire by the planner.
type AgentType string

const (
	AgentCalculator     AgentType = "FinancialCalculator"
	AgentFormulaWriter  AgentType = "LatexWriter"
	AgentChartBuilder   AgentType = "GraphQueryWriter"
	AgentAnswerCompiler AgentType = "AnswerAgent"
)

var agentAliases = map[string]AgentType{
	"financialcalculator": AgentCalculator,
	"calculator":          AgentCalculator,
	"latexwriter":         AgentFormulaWriter,
	"formulawriter":       AgentFormulaWriter,
	"graphquerywriter":    AgentChartBuilder,
	"chartbuilder":        AgentChartBuilder,
	"answeragent":         AgentAnswerCompiler,
	"answercompiler":      AgentAnswerCompiler,
}

// ParseAgentType resolves a planner agent name, ignoring case, spaces and underscores.
func ParseAgentType(name string) (AgentType, bool) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name))
	t, ok := agentAliases[norm]
	return t, ok
}

func (t AgentType) String() string {
	return string(t)
}

// Target is one statement the question needs, as named by the identifier.
type Target struct {
	Ticker string         `json:"ticker"`
	Year   string         `json:"year"`
	Kind   financial.Kind `json:"statement_type"`
}

// StatementRecord is one resolved statement. Fields keeps nil values for empty line items.
type StatementRecord struct {
	Ticker string           `json:"ticker"`
	Year   string           `json:"year"`
	Kind   financial.Kind   `json:"statement_type"`
	Fields financial.Fields `json:"data"`
}

// FieldNames returns the distinct field names across records in first-seen order.
func FieldNames(records []StatementRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		for _, name := range sortedKeys(r.Fields) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// IntentKind is the classifier's decision.
type IntentKind string

const (
	IntentDirectAnswer IntentKind = "direct_answer"
	IntentInstruction  IntentKind = "instruction"
	IntentGraph        IntentKind = "graph"
)

// Intent is the classified form of a question. Series and Message are set for direct answers,
// Text for instructions and graph requests.
type Intent struct {
	Kind    IntentKind
	Text    string
	Series  *MetricSeries
	Message string
}

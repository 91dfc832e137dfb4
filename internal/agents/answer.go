package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"finsight/internal/adapters/ai"
)

// AnswerCompiler turns the accumulated results into the display plan returned to the caller.
// The oracle only writes the narrative; tables, formulas and charts are attached deterministically.
type AnswerCompiler struct {
	oracleStage
}

// NewAnswerCompiler creates the answer compiler.
func NewAnswerCompiler(oracle ai.Invoker, model string) *AnswerCompiler {
	return &AnswerCompiler{oracleStage: newOracleStage("answer", oracle, model, temperatureAnswer)}
}

func (a *AnswerCompiler) Type() AgentType { return AgentAnswerCompiler }

// AnswerRequest is the input of Compile. Message carries the classifier's note for direct answers.
type AnswerRequest struct {
	Query   string
	Plan    *ExecutionPlan
	Context *ResultContext
	Message string
}

type answerPrompt struct {
	Query   string
	Message string
	Plan    *ExecutionPlan
	Context *ResultContext
}

// Invoke compiles a display plan over the context accumulated so far. Used for in-plan answer steps.
func (a *AnswerCompiler) Invoke(ctx context.Context, req AgentRequest) (AgentResult, error) {
	return a.Compile(ctx, AnswerRequest{Query: req.Query, Plan: req.Plan, Context: req.Context})
}

// Compile returns Table blocks for every metric series, then Latex blocks, then Graph blocks, and
// exactly one Text block last. A reply without a render_plan array fails the whole compilation.
func (a *AnswerCompiler) Compile(ctx context.Context, req AnswerRequest) (*DisplayPlan, error) {
	rc := req.Context
	if rc == nil {
		rc = NewResultContext()
	}
	plan := req.Plan
	if plan == nil {
		plan = &ExecutionPlan{}
	}

	obj, raw, err := a.askJSON(ctx, answerPrompt{Query: req.Query, Message: req.Message, Plan: plan, Context: rc})
	if err != nil {
		return nil, err
	}

	renderPlan := gjson.GetBytes(obj, "render_plan")
	if !renderPlan.IsArray() {
		return nil, a.shapeFailure("missing render_plan", raw)
	}

	var texts []string
	renderPlan.ForEach(func(_, block gjson.Result) bool {
		if block.Get("component").String() != string(ComponentText) {
			return true
		}
		if text := strings.TrimSpace(block.Get("data").String()); text != "" {
			texts = append(texts, text)
		}
		return true
	})

	narrative := strings.Join(texts, "\n\n")
	if narrative == "" {
		a.log.Warnw("Answer has no narrative, using summary")
		narrative = SummaryNarrative(req.Message, rc)
	}

	dp := &DisplayPlan{}
	for _, s := range rc.MetricSeries() {
		if rows := MetricSeriesTable(s); len(rows) > 0 {
			dp.Blocks = append(dp.Blocks, TableBlock(rows))
		}
	}
	for _, f := range rc.Formulas() {
		dp.Blocks = append(dp.Blocks, LatexBlock(f))
	}
	for _, c := range rc.Charts() {
		dp.Blocks = append(dp.Blocks, GraphBlock(c))
	}
	dp.Blocks = append(dp.Blocks, TextBlock(narrative))

	a.log.Infow("Compiled answer", "blocks", len(dp.Blocks))
	return dp, nil
}

// MetricSeriesTable converts a series into one row per distinct year, ascending, with one column
// per ticker in first-seen order. A missing (ticker, year) pair is an absent cell.
func MetricSeriesTable(series *MetricSeries) []TableRow {
	var tickers []string
	seenTicker := make(map[string]bool)
	byYear := make(map[int]map[string]float64)

	for _, v := range series.Values {
		if !seenTicker[v.Ticker] {
			seenTicker[v.Ticker] = true
			tickers = append(tickers, v.Ticker)
		}
		if byYear[v.Year] == nil {
			byYear[v.Year] = make(map[string]float64)
		}
		byYear[v.Year][v.Ticker] = v.Value
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	rows := make([]TableRow, 0, len(years))
	for _, y := range years {
		row := TableRow{Year: itoa(y)}
		for _, t := range tickers {
			if value, ok := byYear[y][t]; ok {
				row.Cells = append(row.Cells, TableCell{Column: t, Value: value})
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// SummaryNarrative is the text used when no narrative was produced: the message when set,
// otherwise the computed values spelled out.
func SummaryNarrative(message string, rc *ResultContext) string {
	if message = strings.TrimSpace(message); message != "" {
		return message
	}

	var parts []string
	for _, s := range rc.MetricSeries() {
		values := make([]string, 0, len(s.Values))
		for _, v := range s.Values {
			values = append(values, fmt.Sprintf("%s %d: %s", v.Ticker, v.Year, humanize.CommafWithDigits(v.Value, 2)))
		}
		if len(values) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s.", s.Key, strings.Join(values, ", ")))
		}
	}
	if len(parts) == 0 {
		return "Here are the results for your question."
	}
	return strings.Join(parts, " ")
}

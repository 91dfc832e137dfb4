package agents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
)

func TestMetricSeriesTable(t *testing.T) {
	series := &MetricSeries{Key: "de", Values: []MetricValue{
		{Ticker: "GOOG", Year: 2022, Value: 0.12},
		{Ticker: "AAPL", Year: 2021, Value: 1.99},
		{Ticker: "AAPL", Year: 2022, Value: 2.37},
	}}

	rows := MetricSeriesTable(series)

	want := []TableRow{
		{Year: "2021", Cells: []TableCell{{Column: "AAPL", Value: 1.99}}},
		{Year: "2022", Cells: []TableCell{{Column: "GOOG", Value: 0.12}, {Column: "AAPL", Value: 2.37}}},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}

	data, err := json.Marshal(rows)
	require.NoError(t, err)
	assert.Equal(t, `[{"Year":"2021","AAPL":1.99},{"Year":"2022","GOOG":0.12,"AAPL":2.37}]`, string(data))
}

func answerContext() *ResultContext {
	rc := NewResultContext()
	rc.Set("chart", &ChartSpec{ChartType: "bar", Title: "D/E", Data: []ChartPoint{{Name: "2022", Values: []ChartValue{{Series: "AAPL", Value: 2}}}}})
	rc.Set("formula", &FormulaText{Latex: `\[ \frac{D}{E} \]`})
	rc.Set("de", &MetricSeries{Key: "de", Values: []MetricValue{{Ticker: "AAPL", Year: 2022, Value: 2}}})
	return rc
}

func blockKinds(blocks []Block) []ComponentKind {
	kinds := make([]ComponentKind, 0, len(blocks))
	for _, b := range blocks {
		kinds = append(kinds, b.Component)
	}
	return kinds
}

func TestAnswerCompiler_BlockOrder(t *testing.T) {
	oracle := newFakeOracle().reply("answer", "```json\n"+`{"render_plan": [
		{"component": "AgentGraph", "data": {"ignored": true}},
		{"component": "AgentText", "data": "Apple's debt to equity ratio was 2.0 in 2022."}
	]}`+"\n```")

	plan := &ExecutionPlan{Steps: []PlanStep{{Agent: AgentCalculator, OutputKey: "de"}}}
	dp, err := NewAnswerCompiler(oracle, "m").Compile(context.Background(), AnswerRequest{Query: "d/e", Plan: plan, Context: answerContext()})
	require.NoError(t, err)

	assert.Equal(t, []ComponentKind{ComponentTable, ComponentLatex, ComponentGraph, ComponentText}, blockKinds(dp.Blocks))
	assert.JSONEq(t, `[{"Year":"2022","AAPL":2}]`, string(dp.Blocks[0].Data))
	assert.JSONEq(t, `"\\[ \\frac{D}{E} \\]"`, string(dp.Blocks[1].Data))
	assert.JSONEq(t, `{"chart_type":"bar","title":"D/E","x_axis_label":"","y_axis_label":"","data":[{"name":"2022","AAPL":2}]}`, string(dp.Blocks[2].Data))
	assert.JSONEq(t, `"Apple's debt to equity ratio was 2.0 in 2022."`, string(dp.Blocks[3].Data))

	prompt := oracle.lastPrompt("answer")
	assert.Contains(t, prompt, "FinancialCalculator")
	assert.Contains(t, prompt, `"de"`)
}

func TestAnswerCompiler_SummaryWhenNoText(t *testing.T) {
	oracle := newFakeOracle().reply("answer", `{"render_plan": []}`)

	rc := NewResultContext()
	rc.Set("Revenue", &MetricSeries{Key: "Revenue", Values: []MetricValue{{Ticker: "AAPL", Year: 2022, Value: 394328000000}}})

	dp, err := NewAnswerCompiler(oracle, "m").Compile(context.Background(), AnswerRequest{Query: "revenue", Context: rc})
	require.NoError(t, err)

	require.Len(t, dp.Blocks, 2)
	var text string
	require.NoError(t, json.Unmarshal(dp.Blocks[1].Data, &text))
	assert.Equal(t, "Revenue: AAPL 2022: 394,328,000,000.", text)
}

func TestAnswerCompiler_MessageIsSummary(t *testing.T) {
	assert.Equal(t, "Apple leads.", SummaryNarrative("  Apple leads. ", NewResultContext()))
	assert.Equal(t, "Here are the results for your question.", SummaryNarrative("", NewResultContext()))
}

func TestAnswerCompiler_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "prose", reply: "Apple is doing great."},
		{name: "missing render_plan", reply: `{"answer": "Apple is doing great."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := newFakeOracle().reply("answer", tt.reply)

			_, err := NewAnswerCompiler(oracle, "m").Compile(context.Background(), AnswerRequest{Query: "q", Context: answerContext()})
			assert.ErrorIs(t, err, errors.ErrParseFailure)
		})
	}
}

func TestAnswerCompiler_AsPlanStep(t *testing.T) {
	oracle := newFakeOracle().reply("answer", `{"render_plan": [{"component": "AgentText", "data": "done"}]}`)

	result, err := NewAnswerCompiler(oracle, "m").Invoke(context.Background(), AgentRequest{Query: "q", Context: answerContext()})
	require.NoError(t, err)

	dp, ok := result.(*DisplayPlan)
	require.True(t, ok)
	assert.Len(t, dp.Blocks, 4)
}

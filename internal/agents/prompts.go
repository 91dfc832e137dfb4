package agents

import (
	"context"
	"encoding/json"

	"finsight/internal/adapters/ai"
	"finsight/pkg/errors"
	"finsight/pkg/llmjson"
	"finsight/pkg/logger"
	"finsight/pkg/templates"
)

// Sampling temperatures per stage.
const (
	temperatureIdentify  = 0.0
	temperatureClassify  = 0.2
	temperaturePlan      = 0.2
	temperatureCalculate = 0.2
	temperatureFormula   = 0.1
	temperatureChart     = 0.2
	temperatureAnswer    = 0.2
	temperatureSummary   = 0.3
)

// oracleStage renders a stage's prompt pair ("<name>/system", "<name>/user") and calls the oracle.
type oracleStage struct {
	name        string
	oracle      ai.Invoker
	model       string
	temperature float64
	prompts     *templates.Registry
	log         *logger.Logger
}

func newOracleStage(name string, oracle ai.Invoker, model string, temperature float64) oracleStage {
	return oracleStage{
		name:        name,
		oracle:      oracle,
		model:       model,
		temperature: temperature,
		prompts:     templates.Get(),
		log:         logger.Get().With("component", name),
	}
}

// ask returns the oracle's raw text for the rendered prompt.
func (s *oracleStage) ask(ctx context.Context, data any) (string, error) {
	system, err := s.prompts.Render(s.name+"/system", nil)
	if err != nil {
		return "", errors.Wrapf(err, "%s prompt", s.name)
	}
	user, err := s.prompts.Render(s.name+"/user", data)
	if err != nil {
		return "", errors.Wrapf(err, "%s prompt", s.name)
	}

	s.log.Debugw("Invoking oracle", "model", s.model, "prompt_chars", len(system)+len(user))

	raw, err := s.oracle.Invoke(ctx, ai.Conversation{ai.System(system), ai.User(user)}, s.model, s.temperature)
	if err != nil {
		return "", err
	}
	return raw, nil
}

// askJSON asks and sanitizes the reply into a JSON object. The raw text is returned for fallbacks.
func (s *oracleStage) askJSON(ctx context.Context, data any) (json.RawMessage, string, error) {
	raw, err := s.ask(ctx, data)
	if err != nil {
		return nil, "", err
	}

	obj, err := llmjson.Sanitize(raw)
	if err != nil {
		s.log.Warnw("Unparseable oracle output", "error", err, "raw", truncate(raw, 500))
		return nil, raw, withStage(err, s.name)
	}
	return obj, raw, nil
}

// shapeFailure reports a sanitized object that lacks a required element.
func (s *oracleStage) shapeFailure(reason, raw string) error {
	s.log.Warnw("Unexpected oracle output shape", "reason", reason, "raw", truncate(raw, 500))
	return errors.NewParseFailure(s.name, reason, raw)
}

func withStage(err error, stage string) error {
	var pf *errors.ParseFailure
	if errors.As(err, &pf) {
		return pf.WithStage(stage)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

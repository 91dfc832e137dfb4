package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFailure_IsTaxonomy(t *testing.T) {
	err := Wrap(NewParseFailure("identify", "no json object", "sorry, no idea"), "identify companies")

	assert.True(t, Is(err, ErrParseFailure))

	var pf *ParseFailure
	if assert.True(t, As(err, &pf)) {
		assert.Equal(t, "sorry, no idea", pf.Raw)
		assert.Equal(t, "identify", pf.Stage)
	}
}

func TestStepError_MatchesStepFailureAndCause(t *testing.T) {
	cause := Wrap(ErrOracleUnavailable, "calculator")
	err := &StepError{Agent: "Calculator", OutputKey: "ratio", Err: cause}

	assert.True(t, Is(err, ErrStepFailure))
	assert.True(t, Is(err, ErrOracleUnavailable))
	assert.Contains(t, err.Error(), "ratio")
}

func TestValidationError_UnwrapsToInvalidInput(t *testing.T) {
	err := NewValidationError("kind", "unknown statement kind", "quarterly")
	assert.True(t, Is(err, ErrInvalidInput))
}

func TestMultiError(t *testing.T) {
	var m MultiError
	assert.Nil(t, m.ToError())

	m.Add(nil)
	m.Add(ErrNotFound)
	m.Add(ErrTimeout)

	assert.True(t, m.HasErrors())
	assert.Contains(t, m.Error(), "multiple errors (2)")
}

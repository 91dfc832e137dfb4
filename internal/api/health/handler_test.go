package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

type stubChecker struct{ err error }

func (c stubChecker) Health(context.Context) error { return c.err }

func call(t *testing.T, handler http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandler_AllHealthy(t *testing.T) {
	h := New(logger.NewNop(), "finsight", "test", map[string]Checker{
		"postgres": stubChecker{},
		"redis":    nil,
	})

	code, status := call(t, h.HandleReadiness)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Len(t, status.Checks, 1)
}

func TestHandler_Degraded(t *testing.T) {
	h := New(logger.NewNop(), "finsight", "test", map[string]Checker{
		"postgres": stubChecker{},
		"redis":    stubChecker{err: errors.ErrUnavailable},
	})

	code, status := call(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Checks["redis"].Status)

	code, status = call(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", status.Status)
}

func TestHandler_Liveness(t *testing.T) {
	h := New(logger.NewNop(), "finsight", "test", nil)

	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "alive"}`, rec.Body.String())
}

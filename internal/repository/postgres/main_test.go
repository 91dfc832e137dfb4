package postgres

import (
	"os"
	"testing"

	"finsight/pkg/logger"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	_ = logger.Init("error", "test")

	code := m.Run()

	os.Exit(code)
}

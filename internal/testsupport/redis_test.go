package testsupport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestRedis_StartsEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client := NewTestRedis(t)

	size, err := client.DBSize(ctx).Result()
	require.NoError(t, err)
	assert.Zero(t, size)

	require.NoError(t, client.Set(ctx, "statement:AAPL:balance:2022", "{}", 0).Err())
	val, err := client.Get(ctx, "statement:AAPL:balance:2022").Result()
	require.NoError(t, err)
	assert.Equal(t, "{}", val)
}

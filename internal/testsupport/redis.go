package testsupport

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	redisclient "finsight/internal/adapters/redis"
)

// NewTestRedis connects to the integration Redis through the same adapter the service uses
// and empties the test DB before and after the test, so statement cache entries and spacer
// slots never leak between tests. Skips when REDIS_HOST is unset.
func NewTestRedis(t *testing.T) *goredis.Client {
	t.Helper()

	client, err := redisclient.NewClient(LoadRedisConfigFromEnv(t))
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	rdb := client.Client()
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return rdb
}

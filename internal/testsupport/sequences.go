package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"
)

var (
	// Global counter for generating unique sequential IDs in tests
	testSequence uint64

	baseTimestamp = time.Now().UnixNano()
)

func init() {
	// Seeded from the clock so reruns against the same database do not collide
	testSequence = uint64(baseTimestamp % 1000000)
}

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("chat") -> "chat_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniqueTicker generates an upper-case ticker no real company uses
// Example: UniqueTicker() -> "ZT123456"
func UniqueTicker() string {
	return fmt.Sprintf("ZT%06d", NextSequence()%1000000)
}

// UniqueUserID generates a unique chat owner ID
func UniqueUserID() string {
	return fmt.Sprintf("user_%d", NextSequence())
}

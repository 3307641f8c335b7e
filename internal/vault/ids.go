package vault

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idCounter atomic.Uint64

// NewID generates an opaque id of the form <prefix>-<unix-ms>-<n>. The
// counter makes ids minted within the same millisecond distinct; ids are
// unique within the store's lifetime, which is all the snapshot needs.
func NewID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixMilli(), idCounter.Add(1))
}

// Now returns the current time as unix milliseconds, the timestamp unit
// used throughout the snapshot.
func Now() int64 {
	return time.Now().UnixMilli()
}

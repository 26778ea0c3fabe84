// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks spawned goroutines for diagnostics
var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the service.
//
// Example:
//
//	common.SafeGo(logger, "warmEconomic", func() {
//	    _ = job(ctx)
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer LogPanic(logger, name)
		fn()
	}()
}

// LogPanic recovers a panic in the current goroutine and logs it with a stack trace.
// Must be called directly via defer.
func LogPanic(logger arbor.ILogger, name string) {
	if r := recover(); r != nil {
		logRecovered(logger, name, r)
	}
}

// PanicError converts a recovered panic value into an error, logging the stack
func PanicError(logger arbor.ILogger, name string, r interface{}) error {
	logRecovered(logger, name, r)
	return fmt.Errorf("panic in %s: %v", name, r)
}

func logRecovered(logger arbor.ILogger, name string, r interface{}) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", stackTrace).
			Msg("Recovered from panic - continuing service operation")
		return
	}
	fmt.Fprintf(os.Stderr, "PANIC in %s: %v\n%s\n", name, r, stackTrace)
}

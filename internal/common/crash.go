package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// crashDir receives crash reports; set by InstallCrashHandler
var crashDir = "logs"

// InstallCrashHandler sets the crash report directory, creating it.
// Pair with `defer common.RecoverWithCrashFile()` at the top of main.
func InstallCrashHandler(dir string) {
	if dir != "" {
		crashDir = dir
	}
	if err := os.MkdirAll(crashDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: failed to create %s: %v\n", crashDir, err)
	}
}

// WriteCrashFile writes the panic value, its stack and every goroutine's
// stack to {crashDir}/crash-{timestamp}.log and returns the path.
// Falls back to stderr when the file cannot be written.
func WriteCrashFile(panicVal interface{}, stack string) string {
	now := time.Now()

	var report strings.Builder
	fmt.Fprintf(&report, "=== MARKETPULSE CRASH REPORT ===\n")
	fmt.Fprintf(&report, "Time: %s\nVersion: %s\n\n", now.Format(time.RFC3339), GetFullVersion())
	fmt.Fprintf(&report, "=== PANIC ===\n%v\n\n", panicVal)
	fmt.Fprintf(&report, "=== STACK ===\n%s\n\n", stack)
	fmt.Fprintf(&report, "=== GOROUTINES (%d) ===\n%s\n", runtime.NumGoroutine(), allStacks())

	path := filepath.Join(crashDir, "crash-"+now.Format("2006-01-02T15-04-05")+".log")
	if err := os.WriteFile(path, []byte(report.String()), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: failed to write crash file: %v\n%s", err, report.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - report saved to %s !!!\npanic: %v\n", path, panicVal)
	return path
}

func allStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) || len(buf) >= 16*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}

// RecoverWithCrashFile recovers a panic on the main goroutine, writes a
// crash report and exits with status 1. Use directly via defer.
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		buf := make([]byte, 8192)
		n := runtime.Stack(buf, false)
		WriteCrashFile(r, string(buf[:n]))
		os.Exit(1)
	}
}

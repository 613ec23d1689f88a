package store

import (
	"log/slog"
	"sync/atomic"
)

// checkingDB is advisory visibility state for subsystems probing store
// health while a self-test is in flight. It is not a concurrency
// primitive; it only signals that a self-test currently owns the backend.
var checkingDB atomic.Bool

// Checking reports whether a backend self-test is currently running.
func Checking() bool {
	return checkingDB.Load()
}

// CheckOptions configures the CheckDB self-test.
type CheckOptions struct {
	// RequireWrite fails the check when the backend opens read-only.
	RequireWrite bool
}

// CheckDB runs a backend self-test: set up, optionally verify write
// access, tear down. A backend that signals an internal fault by panicking
// is converted into a false result at this boundary; no caller may assume
// panics propagate. The checking indicator is released on every exit path.
func CheckDB(b Backend, opts CheckOptions) (ok bool) {
	checkingDB.Store(true)
	defer checkingDB.Store(false)

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("backend self-test failed", "backend", b.Name(), "panic", r)
			ok = false
		}
	}()

	if err := b.SetUp(); err != nil {
		slog.Warn("backend self-test failed to open", "backend", b.Name(), "error", err)
		return false
	}

	writable := true
	if opts.RequireWrite {
		if ro, reports := b.(ReadOnlyReporter); reports && ro.ReadOnly() {
			writable = false
		}
	}

	if err := b.TearDown(); err != nil {
		slog.Warn("backend self-test failed to close", "backend", b.Name(), "error", err)
		return false
	}
	return writable
}

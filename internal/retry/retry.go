// internal/retry/retry.go
//
// The whole pipeline shares one retry policy: run the action, and if it
// fails run it exactly once more. No backoff, no jitter. An action that
// fails both attempts is fatal to the run; partial side effects from the
// first attempt (e.g. a half-pushed image) are the action's problem, so
// everything handed to the executor must be safe to re-run.

package retry

import (
	"fmt"
	"log"
)

// Attempts is the total number of times an action is invoked before the
// executor gives up. Fixed: one retry after the first failure.
const Attempts = 2

// Executor runs fallible actions under the shared retry policy.
type Executor struct {
	logf func(format string, args ...any)
}

// New returns an Executor that reports retries through logf.
// A nil logf falls back to the standard logger.
func New(logf func(format string, args ...any)) *Executor {
	if logf == nil {
		logf = log.Printf
	}
	return &Executor{logf: logf}
}

// Do invokes fn, retrying once on failure. The label names the action in
// logs and in the final error.
func (e *Executor) Do(label string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= Attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt < Attempts {
			e.logf("[retry] %s failed (attempt %d/%d): %v; retrying", label, attempt, Attempts, err)
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", label, Attempts, err)
}

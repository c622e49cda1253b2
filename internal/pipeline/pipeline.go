// internal/pipeline/pipeline.go
//
// Orchestrator drives the whole run as a small state machine:
//
//	Init → AuthenticatedBuilding → LoggedOut → Notifying → Done
//
// with Failed reachable from any non-terminal state. Build-stage
// failures are fatal and fail fast across targets, but the registry
// session is always closed best-effort once it was opened. Deploy
// notification failures are reported and never fail the run.

package pipeline

import (
	"fmt"
	"log"

	"shipit/internal/config"
	"shipit/internal/docker"
	"shipit/internal/runtime"
	"shipit/pkg/dispatch"
)

type State string

const (
	StateInit                  State = "Init"
	StateAuthenticatedBuilding State = "AuthenticatedBuilding"
	StateLoggedOut             State = "LoggedOut"
	StateNotifying             State = "Notifying"
	StateDone                  State = "Done"
	StateFailed                State = "Failed"
)

// Authenticator owns the registry credential session.
type Authenticator interface {
	Login(docker.Credentials) error
	Logout() error
}

// ImageBuilder runs the pull/build/push sequence for one target.
type ImageBuilder interface {
	BuildAndPush(config.BuildTarget, runtime.ReleaseContext) error
}

// Notifier delivers one deploy notification.
type Notifier interface {
	Notify(environment dispatch.Environment, image, tag string) error
}

type Orchestrator struct {
	auth     Authenticator
	builder  ImageBuilder
	notifier Notifier
	logf     func(format string, args ...any)
	state    State
}

func New(auth Authenticator, builder ImageBuilder, notifier Notifier, logf func(format string, args ...any)) *Orchestrator {
	if logf == nil {
		logf = log.Printf
	}
	return &Orchestrator{
		auth:     auth,
		builder:  builder,
		notifier: notifier,
		logf:     logf,
		state:    StateInit,
	}
}

// State reports the orchestrator's current state.
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(next State) {
	o.logf("[pipeline] %s → %s", o.state, next)
	o.state = next
}

// Run executes the full pipeline for the given context and targets.
// A non-nil error means the run is Failed and the process should exit
// non-zero; notification failures alone never produce an error.
func (o *Orchestrator) Run(rctx runtime.ReleaseContext, creds docker.Credentials, targets []config.BuildTarget) error {
	if err := o.auth.Login(creds); err != nil {
		o.transition(StateFailed)
		return fmt.Errorf("registry login failed: %w", err)
	}
	o.transition(StateAuthenticatedBuilding)

	for _, target := range targets {
		o.logf("[pipeline] building target %s (tag %s)", target.Image, rctx.Tag)
		if err := o.builder.BuildAndPush(target, rctx); err != nil {
			// The session was opened; close it before reporting failure.
			if lerr := o.auth.Logout(); lerr != nil {
				o.logf("[pipeline] warning: cleanup logout failed: %v", lerr)
			}
			o.transition(StateFailed)
			return fmt.Errorf("target %s failed: %w", target.Image, err)
		}
	}

	if err := o.auth.Logout(); err != nil {
		o.transition(StateFailed)
		return fmt.Errorf("registry logout failed: %w", err)
	}
	o.transition(StateLoggedOut)

	env := dispatch.EnvironmentFor(rctx.IsTaggedRelease)
	o.transition(StateNotifying)
	failed := 0
	for _, target := range targets {
		if rctx.DryRun {
			o.logf("[pipeline] dry-run: would notify %s: %s @ %s", env, target.Image, rctx.Tag)
			continue
		}
		if err := o.notifier.Notify(env, target.Image, rctx.Tag); err != nil {
			failed++
			o.logf("[pipeline] warning: deploy notification for %s failed: %v", target.Image, err)
			continue
		}
		o.logf("[pipeline] notified %s: %s @ %s", env, target.Image, rctx.Tag)
	}
	if failed > 0 {
		o.logf("[pipeline] %d of %d deploy notifications failed; run still succeeds", failed, len(targets))
	}

	o.transition(StateDone)
	return nil
}

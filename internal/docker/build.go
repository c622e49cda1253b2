// internal/docker/build.go
//
// Builder runs the per-target pull/build/push sequence. Each external
// step is wrapped in the shared retry executor individually; a step
// that exhausts its retries fails the target, and the orchestrator
// treats a failed target as fatal to the whole run.

package docker

import (
	"fmt"
	"os"

	"shipit/internal/config"
	"shipit/internal/executil"
	"shipit/internal/retry"
	"shipit/internal/runtime"
)

// Builder builds and pushes images for one registry prefix.
type Builder struct {
	registry string
	retry    *retry.Executor
	dry      bool
	run      Runner
}

func NewBuilder(registryPrefix string, re *retry.Executor, dry bool) *Builder {
	run := Runner(executil.Run)
	if dry {
		run = executil.DryRun
	}
	return &Builder{
		registry: registryPrefix,
		retry:    re,
		dry:      dry,
		run:      run,
	}
}

// BuildAndPush runs pull → build → push(tag) → push(latest) for one
// target. The pull primes the layer cache from the previous latest
// image; there is no ignore path for it, a persistent pull failure
// fails the target.
func (b *Builder) BuildAndPush(target config.BuildTarget, rctx runtime.ReleaseContext) error {
	plan, err := PlanTarget(b.registry, target, rctx)
	if err != nil {
		return err
	}

	// Only validate the filesystem when we will actually run docker.
	if !b.dry {
		if st, err := os.Stat(plan.Dockerfile); err != nil || st.IsDir() {
			return fmt.Errorf("BuildAndPush: Dockerfile %q not found or not a file", plan.Dockerfile)
		}
		if st, err := os.Stat(plan.ContextPath); err != nil || !st.IsDir() {
			return fmt.Errorf("BuildAndPush: context %q not found or not a directory", plan.ContextPath)
		}
	}

	fmt.Println("— Build Plan —")
	fmt.Printf("  tag ref   : %s\n", plan.TagRef)
	fmt.Printf("  latest ref: %s\n", plan.LatestRef)
	fmt.Printf("  Dockerfile: %s\n", plan.Dockerfile)
	fmt.Printf("  Context   : %s\n", plan.ContextPath)

	if err := b.retry.Do("pull "+plan.LatestRef, func() error {
		return b.run("docker", plan.PullArgs()...)
	}); err != nil {
		return err
	}

	if err := b.retry.Do("build "+plan.TagRef, func() error {
		return b.run("docker", plan.BuildArgs()...)
	}); err != nil {
		return err
	}

	// Pushes are retried independently of each other.
	if err := b.retry.Do("push "+plan.TagRef, func() error {
		return b.run("docker", plan.PushArgs(plan.TagRef)...)
	}); err != nil {
		return err
	}
	return b.retry.Do("push "+plan.LatestRef, func() error {
		return b.run("docker", plan.PushArgs(plan.LatestRef)...)
	})
}

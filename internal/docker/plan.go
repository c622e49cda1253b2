// internal/docker/plan.go
//
// The planner converts a build target + release context into the
// concrete refs and command argument lists the builder executes. Pure
// and unit-testable; nothing here touches the docker CLI.

package docker

import (
	"fmt"
	"regexp"
	"strings"

	"shipit/internal/config"
	"shipit/internal/runtime"
)

// TargetPlan is the fully resolved build for one target: the immutable
// versioned ref, the mutable latest ref, and the file/context inputs.
type TargetPlan struct {
	Tag         string
	TagRef      string // <registry>/<image>:<tag>
	LatestRef   string // <registry>/<image>:latest
	Dockerfile  string
	ContextPath string
}

// PlanTarget resolves refs for one target. The latest ref doubles as the
// pull/cache source, so it is always present.
func PlanTarget(registry string, target config.BuildTarget, rctx runtime.ReleaseContext) (TargetPlan, error) {
	image := strings.TrimSpace(target.Image)
	if image == "" {
		return TargetPlan{}, fmt.Errorf("PlanTarget: empty image name")
	}

	base := image
	if reg := strings.TrimRight(strings.TrimSpace(registry), "/"); reg != "" {
		base = reg + "/" + image
	}

	tag := cleanTag(rctx.Tag)
	if tag == "" || !validateTag(tag) {
		return TargetPlan{}, fmt.Errorf("PlanTarget: release tag %q does not normalize to a valid image tag", rctx.Tag)
	}

	df := strings.TrimSpace(target.Dockerfile)
	if df == "" {
		df = "Dockerfile"
	}
	ctxPath := strings.TrimSpace(target.Context)
	if ctxPath == "" {
		ctxPath = "."
	}

	return TargetPlan{
		Tag:         tag,
		TagRef:      fmt.Sprintf("%s:%s", base, tag),
		LatestRef:   fmt.Sprintf("%s:latest", base),
		Dockerfile:  df,
		ContextPath: ctxPath,
	}, nil
}

// PullArgs is the cache-priming pull of the previous latest image.
func (p TargetPlan) PullArgs() []string {
	return []string{"pull", p.LatestRef}
}

// BuildArgs assembles the docker build invocation: both refs tagged in
// one build, previous latest as cache source, tag passed through as the
// VERSION build arg.
func (p TargetPlan) BuildArgs() []string {
	return []string{
		"build",
		"--cache-from", p.LatestRef,
		"-t", p.TagRef,
		"-t", p.LatestRef,
		"--build-arg", "VERSION=" + p.Tag,
		"-f", p.Dockerfile,
		p.ContextPath,
	}
}

// PushArgs pushes a single ref.
func (p TargetPlan) PushArgs(ref string) []string {
	return []string{"push", ref}
}

// ---- Tag normalization / validation ----

var tagAllowed = regexp.MustCompile(`^[a-z0-9_.-]{1,128}$`)

func cleanTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	repl := []struct{ from, to string }{
		{"/", "-"},
		{" ", "-"},
	}
	for _, r := range repl {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	// collapse multiple hyphens
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	// trim to Docker's max tag length
	if len(s) > 128 {
		s = s[:128]
	}
	return s
}

func validateTag(tag string) bool {
	return tagAllowed.MatchString(tag)
}

package runtime

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"

	"shipit/internal/version"
)

// ReleaseContext captures the per-run release state. It is computed once
// at startup and treated as read-only for the rest of the run.
type ReleaseContext struct {
	RunID string

	// Tag is the resolved version identifier: the exact git tag pointing
	// at HEAD when one exists, otherwise a descriptive <branch>-<shortsha>
	// fallback.
	Tag             string
	IsTaggedRelease bool

	// Informational, surfaced in the summary.
	Branch   string
	SHA      string
	ShortSHA string

	DryRun bool
}

// LoadContext resolves the release context from the git repository at
// repoPath (the working directory when empty).
//
// Env overrides:
//   - SHIPIT_TAG      skips git resolution and forces a tagged release
//   - SHIPIT_DRY_RUN  "true" enables dry-run mode
func LoadContext(repoPath string) (ReleaseContext, error) {
	ctx := ReleaseContext{
		RunID:  uuid.NewString(),
		DryRun: os.Getenv("SHIPIT_DRY_RUN") == "true",
	}
	if strings.TrimSpace(repoPath) == "" {
		repoPath = "."
	}

	// Explicit tag from the environment wins (CI hands us the tag that
	// triggered the pipeline). Repo details are filled in best-effort.
	if tag := strings.TrimSpace(os.Getenv("SHIPIT_TAG")); tag != "" {
		ctx.Tag = tag
		ctx.IsTaggedRelease = true
		if repo, err := openRepo(repoPath); err == nil {
			fillHeadDetails(&ctx, repo)
		}
		return ctx, nil
	}

	repo, err := openRepo(repoPath)
	if err != nil {
		return ReleaseContext{}, fmt.Errorf("failed to open repository at %q: %w", repoPath, err)
	}
	if err := fillHeadDetails(&ctx, repo); err != nil {
		return ReleaseContext{}, err
	}

	head, err := repo.Head()
	if err != nil {
		return ReleaseContext{}, fmt.Errorf("failed to read HEAD: %w", err)
	}
	tag, found, err := exactTagAt(repo, head.Hash())
	if err != nil {
		return ReleaseContext{}, err
	}
	if found {
		ctx.Tag = tag
		ctx.IsTaggedRelease = true
		return ctx, nil
	}

	ctx.Tag = fallbackTag(ctx.Branch, ctx.ShortSHA)
	ctx.IsTaggedRelease = false
	return ctx, nil
}

func openRepo(path string) (*gogit.Repository, error) {
	return gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
}

func fillHeadDetails(ctx *ReleaseContext, repo *gogit.Repository) error {
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}
	ctx.SHA = head.Hash().String()
	ctx.ShortSHA = shortSHA(ctx.SHA)
	if head.Name().IsBranch() {
		ctx.Branch = head.Name().Short()
	} else {
		ctx.Branch = "detached"
	}
	return nil
}

// exactTagAt returns the name of a tag pointing exactly at commit, if
// any. Annotated tags are resolved through their tag object. When more
// than one tag points at the commit, the highest semver-parsable name
// wins; with no semver candidates the lexicographically last name does.
func exactTagAt(repo *gogit.Repository, commit plumbing.Hash) (string, bool, error) {
	iter, err := repo.Tags()
	if err != nil {
		return "", false, fmt.Errorf("failed to list tags: %w", err)
	}

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		tagObj, terr := repo.TagObject(ref.Hash())
		switch {
		case terr == nil:
			target = tagObj.Target
		case errors.Is(terr, plumbing.ErrObjectNotFound):
			// lightweight tag, ref points straight at the commit
		default:
			return terr
		}
		if target == commit {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to scan tags: %w", err)
	}
	if len(names) == 0 {
		return "", false, nil
	}

	sort.Strings(names)
	best := names[len(names)-1]
	var bestVer version.Version
	haveVer := false
	for _, name := range names {
		v, perr := version.ParseTag(name)
		if perr != nil {
			continue
		}
		if !haveVer || bestVer.LessThan(v) {
			bestVer = v
			best = name
			haveVer = true
		}
	}
	return best, true, nil
}

// fallbackTag builds the non-release identifier, normalized to a valid
// image tag.
func fallbackTag(branch, shortSHA string) string {
	branch = strings.ToLower(strings.TrimSpace(branch))
	branch = strings.NewReplacer("/", "-", " ", "-").Replace(branch)
	if branch == "" {
		branch = "detached"
	}
	if shortSHA == "" {
		return branch
	}
	return branch + "-" + shortSHA
}

func shortSHA(sha string) string {
	if len(sha) >= 8 {
		return sha[:8]
	}
	return sha
}

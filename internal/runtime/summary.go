package runtime

import (
	"fmt"

	"shipit/internal/config"
	"shipit/internal/version"
	"shipit/pkg/dispatch"
)

// PrintSummary emits a scannable report of the run before any external
// command executes.
func (c ReleaseContext) PrintSummary(targets []config.BuildTarget) {
	fmt.Println("Release Pipeline Summary")
	fmt.Println("------------------------")

	fmt.Println("Run")
	fmt.Printf("  Run ID                : %s\n", c.RunID)
	fmt.Printf("  Dry Run Mode          : %s\n", emoji(c.DryRun))
	fmt.Println()

	fmt.Println("Ref / Commit")
	fmt.Printf("  Branch                : %s\n", formatOrNone(c.Branch))
	fmt.Printf("  Commit SHA            : %s\n", formatOrNone(c.SHA))
	fmt.Printf("  Commit Short SHA      : %s\n", formatOrNone(c.ShortSHA))
	fmt.Println()

	fmt.Println("Release")
	fmt.Printf("  Tag                   : %s\n", c.Tag)
	fmt.Printf("  Tagged Release        : %s\n", emoji(c.IsTaggedRelease))
	if c.IsTaggedRelease {
		fmt.Printf("  Semver Tag            : %s\n", emoji(version.IsSemverTag(c.Tag)))
	}
	fmt.Printf("  Deploy Environment    : %s\n", dispatch.EnvironmentFor(c.IsTaggedRelease))
	fmt.Println()

	fmt.Println("Targets")
	for i, t := range targets {
		fmt.Printf("  %d. %s (%s)\n", i+1, t.Image, t.Dockerfile)
	}
	fmt.Println()
}

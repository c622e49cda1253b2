// shipit main entrypoint
//
// This binary is meant to run as a single CI release stage. It resolves
// the release context (exact tag at HEAD → prod release, anything else →
// QA run), loads the target list, then drives the pipeline: registry
// login, pull/build/push per target in order, logout, and one deploy
// notification per target.
//
// Keep this file simple: load context, load config, print summary, wire
// the components, run. All the heavy lifting stays internal.

package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"shipit/internal/config"
	"shipit/internal/docker"
	"shipit/internal/pipeline"
	"shipit/internal/retry"
	"shipit/internal/runtime"
	"shipit/pkg/dispatch"
)

func main() {
	// Local overrides for dev runs; harmless in CI.
	_ = godotenv.Load()

	// 1) Release context (tag resolution, run ID, dry-run flag)
	rctx, err := runtime.LoadContext(os.Getenv("SHIPIT_REPO_PATH"))
	if err != nil {
		log.Fatalf("failed to load release context: %v", err)
	}

	// 2) Target list + endpoints
	cfg, err := config.Load(os.Getenv("SHIPIT_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 3) Print summary before touching anything external
	rctx.PrintSummary(cfg.Targets)

	// 4) Registry credentials, held only for the login/logout bracket
	creds, err := docker.CredentialsFromEnv()
	if err != nil {
		log.Fatalf("failed to load registry credentials: %v", err)
	}

	// 5) Wire components around the shared retry policy
	re := retry.New(log.Printf)
	registry := docker.NewRegistry(cfg.Registry, re, rctx.DryRun)
	builder := docker.NewBuilder(cfg.Registry, re, rctx.DryRun)

	notifier, err := dispatch.NewClient(
		cfg.DispatchURL,
		os.Getenv("SHIPIT_DISPATCH_USER"),
		os.Getenv("SHIPIT_DISPATCH_TOKEN"),
		cfg.EventType,
		os.Getenv("SHIPIT_DISPATCH_TIMEOUT_SECONDS"),
	)
	if err != nil {
		log.Fatalf("failed to create dispatch client: %v", err)
	}

	// 6) Run the state machine. Fatal failures exit non-zero; delivery
	// failures in the notify stage are logged inside Run and do not.
	orch := pipeline.New(registry, builder, notifier, log.Printf)
	if err := orch.Run(rctx, creds, cfg.Targets); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	log.Printf("[shipit] run %s finished: %s", rctx.RunID, orch.State())
}

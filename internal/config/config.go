// internal/config/config.go
//
// Pipeline configuration: an ordered list of build targets plus the
// registry and dispatch endpoint, read from a YAML file with env
// overrides on top. Target order is preserved end to end because later
// images may reuse cache layers from earlier ones.

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the pipeline looks for its config unless
// SHIPIT_CONFIG points somewhere else.
const DefaultPath = "shipit.yaml"

// BuildTarget is one image the pipeline builds, tags, and pushes.
type BuildTarget struct {
	Image      string `yaml:"image"`
	Dockerfile string `yaml:"dockerfile"` // default: "Dockerfile"
	Context    string `yaml:"context"`    // default: "."
}

// Config is the full pipeline configuration.
type Config struct {
	Registry    string        `yaml:"registry"`     // image ref prefix, e.g. "registry.example.org/team"
	DispatchURL string        `yaml:"dispatch_url"` // deploy notification endpoint
	EventType   string        `yaml:"event_type"`   // dispatch event type, default "deploy"
	Targets     []BuildTarget `yaml:"targets"`
}

// Load reads the config file at path (DefaultPath if empty), applies
// env overrides, fills defaults, and validates.
//
// Env overrides:
//   - SHIPIT_CONFIG        alternate config file path (resolved by caller)
//   - SHIPIT_REGISTRY      overrides registry
//   - SHIPIT_DISPATCH_URL  overrides dispatch_url
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if v := strings.TrimSpace(os.Getenv("SHIPIT_REGISTRY")); v != "" {
		cfg.Registry = v
	}
	if v := strings.TrimSpace(os.Getenv("SHIPIT_DISPATCH_URL")); v != "" {
		cfg.DispatchURL = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.EventType) == "" {
		c.EventType = "deploy"
	}
	for i := range c.Targets {
		if strings.TrimSpace(c.Targets[i].Dockerfile) == "" {
			c.Targets[i].Dockerfile = "Dockerfile"
		}
		if strings.TrimSpace(c.Targets[i].Context) == "" {
			c.Targets[i].Context = "."
		}
	}
}

func (c *Config) validate(path string) error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("config %q: no build targets defined", path)
	}
	for i, t := range c.Targets {
		if strings.TrimSpace(t.Image) == "" {
			return fmt.Errorf("config %q: target %d has an empty image name", path, i+1)
		}
		if strings.ContainsAny(t.Image, " \t\n") {
			return fmt.Errorf("config %q: target image %q contains whitespace", path, t.Image)
		}
	}
	if strings.TrimSpace(c.DispatchURL) == "" {
		return fmt.Errorf("config %q: dispatch_url is empty (or set SHIPIT_DISPATCH_URL)", path)
	}
	return nil
}

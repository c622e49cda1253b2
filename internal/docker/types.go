// internal/docker/types.go
package docker

import (
	"fmt"
	"os"
	"strings"
)

// Credentials is the registry login pair. Constructed once at startup,
// passed into the Registry, never persisted or logged.
type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv pulls registry credentials from the environment.
// SHIPIT_REGISTRY_USER / SHIPIT_REGISTRY_PASSWORD take precedence,
// DOCKER_USERNAME / DOCKER_PASSWORD are the fallback.
func CredentialsFromEnv() (Credentials, error) {
	user := firstEnv("SHIPIT_REGISTRY_USER", "DOCKER_USERNAME")
	password := firstEnv("SHIPIT_REGISTRY_PASSWORD", "DOCKER_PASSWORD")

	if user == "" {
		return Credentials{}, fmt.Errorf("missing SHIPIT_REGISTRY_USER or DOCKER_USERNAME")
	}
	if password == "" {
		return Credentials{}, fmt.Errorf("missing SHIPIT_REGISTRY_PASSWORD or DOCKER_PASSWORD")
	}
	return Credentials{Username: user, Password: password}, nil
}

// Runner executes one external command. The default runners live in
// executil; tests swap in fakes.
type Runner func(name string, args ...string) error

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

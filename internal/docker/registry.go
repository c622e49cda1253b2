// internal/docker/registry.go
//
// Registry owns the credential session bracket: exactly one login before
// any build and exactly one logout after, both retried like every other
// external step. The password never reaches a log line.

package docker

import (
	"errors"
	"strings"

	"shipit/internal/executil"
	"shipit/internal/retry"
)

// Registry authenticates the docker CLI against one registry host.
type Registry struct {
	host  string
	retry *retry.Executor
	dry   bool
	run   Runner
}

// NewRegistry derives the login host from the registry prefix
// ("registry.example.org/team" logs into "registry.example.org").
func NewRegistry(registryPrefix string, re *retry.Executor, dry bool) *Registry {
	run := Runner(executil.Run)
	if dry {
		run = executil.DryRun
	}
	return &Registry{
		host:  registryHost(registryPrefix),
		retry: re,
		dry:   dry,
		run:   run,
	}
}

// Login authenticates once. Retried; exhaustion is fatal to the run.
func (r *Registry) Login(creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return errors.New("Login: empty credentials")
	}
	return r.retry.Do("docker login", func() error {
		if r.dry {
			return r.run("docker", r.loginArgs(creds.Username, "[REDACTED]")...)
		}
		return r.run("docker", r.loginArgs(creds.Username, creds.Password)...)
	})
}

// Logout ends the credential session.
func (r *Registry) Logout() error {
	return r.retry.Do("docker logout", func() error {
		args := []string{"logout"}
		if r.host != "" {
			args = append(args, r.host)
		}
		return r.run("docker", args...)
	})
}

func (r *Registry) loginArgs(user, password string) []string {
	args := []string{"login", "-u", user, "-p", password}
	if r.host != "" {
		args = append(args, r.host)
	}
	return args
}

func registryHost(registryPrefix string) string {
	prefix := strings.TrimSpace(registryPrefix)
	if prefix == "" {
		return ""
	}
	if i := strings.IndexByte(prefix, '/'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}

package docker

import (
	"reflect"
	"testing"

	"shipit/internal/config"
	"shipit/internal/runtime"
)

func TestPlanTarget(t *testing.T) {
	rctx := runtime.ReleaseContext{Tag: "v1.2.3", IsTaggedRelease: true}

	tests := []struct {
		name       string
		registry   string
		target     config.BuildTarget
		wantTagRef string
		wantLatest string
		expectErr  bool
	}{
		{
			name:       "Registry prefix joined",
			registry:   "registry.example.org/team",
			target:     config.BuildTarget{Image: "web"},
			wantTagRef: "registry.example.org/team/web:v1.2.3",
			wantLatest: "registry.example.org/team/web:latest",
		},
		{
			name:       "Trailing slash trimmed",
			registry:   "registry.example.org/team/",
			target:     config.BuildTarget{Image: "web"},
			wantTagRef: "registry.example.org/team/web:v1.2.3",
			wantLatest: "registry.example.org/team/web:latest",
		},
		{
			name:       "No registry prefix",
			registry:   "",
			target:     config.BuildTarget{Image: "team/web"},
			wantTagRef: "team/web:v1.2.3",
			wantLatest: "team/web:latest",
		},
		{
			name:      "Empty image",
			registry:  "registry.example.org",
			target:    config.BuildTarget{},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanTarget(tt.registry, tt.target, rctx)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.TagRef != tt.wantTagRef {
				t.Errorf("TagRef = %q; want %q", plan.TagRef, tt.wantTagRef)
			}
			if plan.LatestRef != tt.wantLatest {
				t.Errorf("LatestRef = %q; want %q", plan.LatestRef, tt.wantLatest)
			}
		})
	}
}

func TestPlanTargetNormalizesTag(t *testing.T) {
	rctx := runtime.ReleaseContext{Tag: "Feature/Login Fix"}
	plan, err := PlanTarget("r.example.org", config.BuildTarget{Image: "web"}, rctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Tag != "feature-login-fix" {
		t.Errorf("Tag = %q; want feature-login-fix", plan.Tag)
	}
}

func TestPlanTargetRejectsUnusableTag(t *testing.T) {
	rctx := runtime.ReleaseContext{Tag: "???"}
	if _, err := PlanTarget("r.example.org", config.BuildTarget{Image: "web"}, rctx); err == nil {
		t.Fatal("expected error for unusable tag")
	}
}

func TestBuildArgs(t *testing.T) {
	rctx := runtime.ReleaseContext{Tag: "v1.2.3"}
	target := config.BuildTarget{Image: "web", Dockerfile: "Dockerfile.web", Context: "./web"}
	plan, err := PlanTarget("r.example.org", target, rctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"build",
		"--cache-from", "r.example.org/web:latest",
		"-t", "r.example.org/web:v1.2.3",
		"-t", "r.example.org/web:latest",
		"--build-arg", "VERSION=v1.2.3",
		"-f", "Dockerfile.web",
		"./web",
	}
	if got := plan.BuildArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs() = %v; want %v", got, want)
	}

	if got := plan.PullArgs(); !reflect.DeepEqual(got, []string{"pull", "r.example.org/web:latest"}) {
		t.Errorf("PullArgs() = %v", got)
	}
	if got := plan.PushArgs(plan.TagRef); !reflect.DeepEqual(got, []string{"push", "r.example.org/web:v1.2.3"}) {
		t.Errorf("PushArgs() = %v", got)
	}
}

func TestCleanTag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"v1.2.3", "v1.2.3"},
		{"  V1.2.3  ", "v1.2.3"},
		{"feature/one two", "feature-one-two"},
		{"a--b---c", "a-b-c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanTag(tt.input); got != tt.want {
			t.Errorf("cleanTag(%q) = %q; want %q", tt.input, got, tt.want)
		}
	}
}

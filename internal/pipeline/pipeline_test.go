package pipeline

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"shipit/internal/config"
	"shipit/internal/docker"
	"shipit/internal/runtime"
	"shipit/pkg/dispatch"
)

type fakeAuth struct {
	logins    int
	logouts   int
	loginErr  error
	logoutErr error
}

func (f *fakeAuth) Login(docker.Credentials) error {
	f.logins++
	return f.loginErr
}

func (f *fakeAuth) Logout() error {
	f.logouts++
	return f.logoutErr
}

type fakeBuilder struct {
	built  []string
	failOn string
}

func (f *fakeBuilder) BuildAndPush(t config.BuildTarget, _ runtime.ReleaseContext) error {
	f.built = append(f.built, t.Image)
	if t.Image == f.failOn {
		return errors.New("build exploded")
	}
	return nil
}

type notification struct {
	env   dispatch.Environment
	image string
	tag   string
}

type fakeNotifier struct {
	sent   []notification
	failOn string
}

func (f *fakeNotifier) Notify(env dispatch.Environment, image, tag string) error {
	f.sent = append(f.sent, notification{env, image, tag})
	if image == f.failOn {
		return errors.New("dispatch endpoint down")
	}
	return nil
}

func quietLogf(string, ...any) {}

func targets(images ...string) []config.BuildTarget {
	out := make([]config.BuildTarget, 0, len(images))
	for _, img := range images {
		out = append(out, config.BuildTarget{Image: img, Dockerfile: "Dockerfile", Context: "."})
	}
	return out
}

func TestRunTaggedRelease(t *testing.T) {
	auth := &fakeAuth{}
	builder := &fakeBuilder{}
	notifier := &fakeNotifier{}
	o := New(auth, builder, notifier, quietLogf)

	rctx := runtime.ReleaseContext{Tag: "v1.2.3", IsTaggedRelease: true}
	err := o.Run(rctx, docker.Credentials{Username: "u", Password: "p"}, targets("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth.logins != 1 || auth.logouts != 1 {
		t.Errorf("logins=%d logouts=%d; want 1 and 1", auth.logins, auth.logouts)
	}
	if !reflect.DeepEqual(builder.built, []string{"a", "b"}) {
		t.Errorf("built = %v; want [a b] in order", builder.built)
	}
	want := []notification{
		{dispatch.EnvProd, "a", "v1.2.3"},
		{dispatch.EnvProd, "b", "v1.2.3"},
	}
	if !reflect.DeepEqual(notifier.sent, want) {
		t.Errorf("notifications = %v; want %v", notifier.sent, want)
	}
	if o.State() != StateDone {
		t.Errorf("state = %s; want Done", o.State())
	}
}

func TestRunUntaggedUsesQA(t *testing.T) {
	auth := &fakeAuth{}
	notifier := &fakeNotifier{}
	o := New(auth, &fakeBuilder{}, notifier, quietLogf)

	rctx := runtime.ReleaseContext{Tag: "main-a1b2c3d4", IsTaggedRelease: false}
	if err := o.Run(rctx, docker.Credentials{}, targets("a", "b", "c")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, n := range notifier.sent {
		if n.env != dispatch.EnvQA {
			t.Errorf("notification for %s went to %s; want qa for every target", n.image, n.env)
		}
	}
	if len(notifier.sent) != 3 {
		t.Errorf("expected 3 notifications, got %d", len(notifier.sent))
	}
}

func TestRunLoginFailureAbortsBeforeBuilds(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("denied")}
	builder := &fakeBuilder{}
	o := New(auth, builder, &fakeNotifier{}, quietLogf)

	err := o.Run(runtime.ReleaseContext{Tag: "v1.0.0"}, docker.Credentials{}, targets("a"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(builder.built) != 0 {
		t.Errorf("no builds should run after login failure, got %v", builder.built)
	}
	if auth.logouts != 0 {
		t.Errorf("no session was opened, logout should not run; got %d", auth.logouts)
	}
	if o.State() != StateFailed {
		t.Errorf("state = %s; want Failed", o.State())
	}
}

func TestRunBuildFailureFailsFastButLogsOut(t *testing.T) {
	auth := &fakeAuth{}
	builder := &fakeBuilder{failOn: "b"}
	notifier := &fakeNotifier{}
	o := New(auth, builder, notifier, quietLogf)

	err := o.Run(runtime.ReleaseContext{Tag: "v1.0.0", IsTaggedRelease: true},
		docker.Credentials{}, targets("a", "b", "c"))
	if err == nil {
		t.Fatal("expected error")
	}

	// Target c is never attempted after b fails.
	if !reflect.DeepEqual(builder.built, []string{"a", "b"}) {
		t.Errorf("built = %v; want [a b]", builder.built)
	}
	// Cleanup logout still happens.
	if auth.logins != 1 || auth.logouts != 1 {
		t.Errorf("logins=%d logouts=%d; want 1 and 1", auth.logins, auth.logouts)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("no notifications on a failed run, got %v", notifier.sent)
	}
	if o.State() != StateFailed {
		t.Errorf("state = %s; want Failed", o.State())
	}
}

func TestRunCleanupLogoutFailureKeepsBuildError(t *testing.T) {
	auth := &fakeAuth{logoutErr: errors.New("logout broken")}
	builder := &fakeBuilder{failOn: "a"}
	o := New(auth, builder, &fakeNotifier{}, quietLogf)

	err := o.Run(runtime.ReleaseContext{Tag: "v1.0.0"}, docker.Credentials{}, targets("a"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "target a failed") {
		t.Errorf("error should report the build failure, got %q", err.Error())
	}
	if auth.logouts != 1 {
		t.Errorf("cleanup logout attempts = %d; want 1", auth.logouts)
	}
}

func TestRunLogoutFailureIsFatal(t *testing.T) {
	auth := &fakeAuth{logoutErr: errors.New("logout broken")}
	notifier := &fakeNotifier{}
	o := New(auth, &fakeBuilder{}, notifier, quietLogf)

	err := o.Run(runtime.ReleaseContext{Tag: "v1.0.0", IsTaggedRelease: true},
		docker.Credentials{}, targets("a"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.sent) != 0 {
		t.Errorf("no notifications after fatal logout, got %v", notifier.sent)
	}
	if o.State() != StateFailed {
		t.Errorf("state = %s; want Failed", o.State())
	}
}

func TestRunNotificationFailureIsNonFatal(t *testing.T) {
	auth := &fakeAuth{}
	notifier := &fakeNotifier{failOn: "a"}
	o := New(auth, &fakeBuilder{}, notifier, quietLogf)

	err := o.Run(runtime.ReleaseContext{Tag: "v1.2.3", IsTaggedRelease: true},
		docker.Credentials{}, targets("a", "b"))
	if err != nil {
		t.Fatalf("notification failure must not fail the run: %v", err)
	}

	// The failed notification for a does not suppress the attempt for b.
	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 notification attempts, got %d", len(notifier.sent))
	}
	if notifier.sent[1].image != "b" {
		t.Errorf("second notification = %+v; want image b", notifier.sent[1])
	}
	if o.State() != StateDone {
		t.Errorf("state = %s; want Done", o.State())
	}
}

func TestRunDryRunSkipsNotifications(t *testing.T) {
	notifier := &fakeNotifier{}
	o := New(&fakeAuth{}, &fakeBuilder{}, notifier, quietLogf)

	rctx := runtime.ReleaseContext{Tag: "v1.2.3", IsTaggedRelease: true, DryRun: true}
	if err := o.Run(rctx, docker.Credentials{}, targets("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("dry run must not dispatch, got %v", notifier.sent)
	}
	if o.State() != StateDone {
		t.Errorf("state = %s; want Done", o.State())
	}
}

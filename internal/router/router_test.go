package router

import (
	"reflect"
	"testing"
	"time"

	"github.com/CDN18/forgejo-relay/internal/config"
)

func testRules() []config.PushRule {
	return []config.PushRule{
		{
			Scope:   "org/",
			Enabled: true,
			Targets: []config.Target{
				{Platform: "telegram", Channel: "team"},
				{Platform: "matrix", Channel: "ops"},
			},
		},
		{
			Scope:   "org/app",
			Enabled: true,
			Targets: []config.Target{
				{Platform: "telegram", Channel: "app-dev"},
			},
		},
		{
			Scope:   "other/",
			Enabled: true,
			Targets: []config.Target{
				{Platform: "telegram", Channel: "other"},
			},
		},
		{
			Scope:   "org/",
			Enabled: false,
			Targets: []config.Target{
				{Platform: "telegram", Channel: "disabled"},
			},
		},
	}
}

func newTestRouter(t *testing.T, interval time.Duration) *Router {
	t.Helper()
	r, err := New(testRules(), interval)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return r
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		repo string
		want []Destination
	}{
		{
			name: "matches every rule whose scope is a prefix",
			repo: "org/app",
			want: []Destination{
				{Platform: "telegram", Channel: "team"},
				{Platform: "matrix", Channel: "ops"},
				{Platform: "telegram", Channel: "app-dev"},
			},
		},
		{
			name: "prefix match only, not substring",
			repo: "org/lib",
			want: []Destination{
				{Platform: "telegram", Channel: "team"},
				{Platform: "matrix", Channel: "ops"},
			},
		},
		{
			name: "no rule matches",
			repo: "elsewhere/repo",
			want: nil,
		},
		{
			name: "disabled rules contribute nothing",
			repo: "org/anything",
			want: []Destination{
				{Platform: "telegram", Channel: "team"},
				{Platform: "matrix", Channel: "ops"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, time.Minute)
			got := r.Route(tt.repo, "push")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Route(%q) = %v, want %v", tt.repo, got, tt.want)
			}
		})
	}
}

func TestRouteSkipsMutedTargets(t *testing.T) {
	r := newTestRouter(t, time.Minute)
	r.Mute([]string{"ops"})

	got := r.Route("org/app", "push")
	want := []Destination{
		{Platform: "telegram", Channel: "team"},
		{Platform: "telegram", Channel: "app-dev"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Route() = %v, want muted channel excluded: %v", got, want)
	}
}

// A channel muted by name is muted across every rule that references it.
func TestMuteAppliesAcrossRules(t *testing.T) {
	rules := testRules()
	rules = append(rules, config.PushRule{
		Scope:   "org/",
		Enabled: true,
		Targets: []config.Target{{Platform: "matrix", Channel: "team"}},
	})
	r, err := New(rules, time.Minute)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	r.Mute([]string{"team"})
	for _, dest := range r.Route("org/app", "push") {
		if dest.Channel == "team" {
			t.Errorf("Route() still returned channel team on platform %s after mute", dest.Platform)
		}
	}
}

func TestMuteUnmuteIdempotent(t *testing.T) {
	r := newTestRouter(t, time.Minute)
	before := r.Route("org/app", "push")

	r.Mute([]string{"team", "ops", "app-dev"})
	if got := r.Route("org/app", "push"); len(got) != 0 {
		t.Errorf("Route() = %v, want no destinations while muted", got)
	}

	r.Unmute([]string{"team", "ops", "app-dev"})
	after := r.Route("org/app", "push")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("Route() after mute+unmute = %v, want %v", after, before)
	}
}

func TestMuteAutoExpires(t *testing.T) {
	r := newTestRouter(t, 30*time.Millisecond)
	r.Mute([]string{"team"})

	if got := r.Route("org/app", "push"); len(got) == 3 {
		t.Fatal("Route() still includes team immediately after mute")
	}

	time.Sleep(100 * time.Millisecond)

	got := r.Route("org/app", "push")
	if len(got) != 3 {
		t.Errorf("Route() = %v, want team routable again after the mute window", got)
	}
}

// A manual unmute must cancel the pending timer so a later re-mute is
// not clobbered by the stale auto-unmute.
func TestUnmuteCancelsPendingTimer(t *testing.T) {
	r := newTestRouter(t, 200*time.Millisecond)

	r.Mute([]string{"team"})
	time.Sleep(50 * time.Millisecond)
	r.Unmute([]string{"team"})
	r.Mute([]string{"team"})

	// The first timer would fire around 200ms from the first mute; the
	// second mute's window runs until 250ms.
	time.Sleep(170 * time.Millisecond)
	for _, dest := range r.Route("org/app", "push") {
		if dest.Channel == "team" {
			t.Fatal("stale auto-unmute timer cleared a later re-mute")
		}
	}

	time.Sleep(100 * time.Millisecond)
	found := false
	for _, dest := range r.Route("org/app", "push") {
		if dest.Channel == "team" {
			found = true
		}
	}
	if !found {
		t.Error("second mute window never expired")
	}
}

// A re-mute issued right as the previous window expires races the
// already-fired timer callback; the callback must notice it lost and
// leave the fresh mute window intact.
func TestRemuteAtWindowExpiryNotClobbered(t *testing.T) {
	r := newTestRouter(t, 5*time.Millisecond)

	for i := 0; i < 20; i++ {
		r.Mute([]string{"team"})
		// Let the first window expire so its callback is in flight,
		// then immediately open a fresh window.
		time.Sleep(5 * time.Millisecond)
		r.Mute([]string{"team"})

		time.Sleep(time.Millisecond)
		for _, dest := range r.Route("org/app", "push") {
			if dest.Channel == "team" {
				t.Fatalf("iteration %d: channel unmuted inside a fresh mute window", i)
			}
		}
		r.Unmute([]string{"team"})
	}
}

func TestEventFilters(t *testing.T) {
	rules := []config.PushRule{
		{
			Scope:   "org/",
			Enabled: true,
			Events:  []string{"issue*", "pull_request"},
			Targets: []config.Target{{Platform: "telegram", Channel: "issues-only"}},
		},
		{
			Scope:   "org/",
			Enabled: true,
			Targets: []config.Target{{Platform: "telegram", Channel: "everything"}},
		},
	}
	r, err := New(rules, time.Minute)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	tests := []struct {
		eventType string
		want      []Destination
	}{
		{
			eventType: "issues",
			want: []Destination{
				{Platform: "telegram", Channel: "issues-only"},
				{Platform: "telegram", Channel: "everything"},
			},
		},
		{
			eventType: "issue_comment",
			want: []Destination{
				{Platform: "telegram", Channel: "issues-only"},
				{Platform: "telegram", Channel: "everything"},
			},
		},
		{
			eventType: "push",
			want: []Destination{
				{Platform: "telegram", Channel: "everything"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			got := r.Route("org/app", tt.eventType)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Route(org/app, %s) = %v, want %v", tt.eventType, got, tt.want)
			}
		})
	}
}

func TestInvalidEventPattern(t *testing.T) {
	rules := []config.PushRule{
		{
			Scope:   "org/",
			Enabled: true,
			Events:  []string{"[unclosed"},
			Targets: []config.Target{{Platform: "telegram", Channel: "c"}},
		},
	}
	if _, err := New(rules, time.Minute); err == nil {
		t.Error("New() accepted an invalid glob pattern")
	}
}

func TestInitiallyMutedTarget(t *testing.T) {
	rules := []config.PushRule{
		{
			Scope:   "org/",
			Enabled: true,
			Targets: []config.Target{{Platform: "telegram", Channel: "c", Muted: true}},
		},
	}
	r, err := New(rules, time.Minute)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if got := r.Route("org/app", "push"); len(got) != 0 {
		t.Errorf("Route() = %v, want initially muted target excluded", got)
	}
}

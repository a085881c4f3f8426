// Package router matches events against push rules and owns the mute
// state of delivery targets.
package router

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/CDN18/forgejo-relay/internal/config"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

// Destination is one resolved delivery target
type Destination struct {
	Platform string
	Channel  string
}

type target struct {
	platform string
	channel  string
	muted    bool
}

type rule struct {
	scope   string
	targets []*target
	enabled bool
	events  []glob.Glob
}

func (r *rule) matchesEvent(eventType string) bool {
	if len(r.events) == 0 {
		return true
	}
	for _, g := range r.events {
		if g.Match(eventType) {
			return true
		}
	}
	return false
}

// Router resolves delivery destinations for incoming events. All rule
// and target state is owned by the router and guarded by its mutex; the
// only runtime mutation is the muted flag.
type Router struct {
	mu           sync.Mutex
	rules        []*rule
	muteInterval time.Duration
	timers       map[string]*time.Timer

	// muteGen counts mute-state changes per channel. A pending timer
	// callback only reverts the mute when its generation still matches,
	// so a callback that fired just before its timer was replaced
	// cannot clobber the newer mute window.
	muteGen map[string]uint64
}

// New builds a router from configured rules. Event filter patterns are
// compiled once here.
func New(rules []config.PushRule, muteInterval time.Duration) (*Router, error) {
	compiled := make([]*rule, 0, len(rules))
	for i, cr := range rules {
		r := &rule{
			scope:   cr.Scope,
			enabled: cr.Enabled,
		}
		for _, pattern := range cr.Events {
			g, err := glob.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d (scope %q): invalid event pattern %q: %w", i, cr.Scope, pattern, err)
			}
			r.events = append(r.events, g)
		}
		for _, ct := range cr.Targets {
			r.targets = append(r.targets, &target{
				platform: ct.Platform,
				channel:  ct.Channel,
				muted:    ct.Muted,
			})
		}
		compiled = append(compiled, r)
	}

	return &Router{
		rules:        compiled,
		muteInterval: muteInterval,
		timers:       make(map[string]*time.Timer),
		muteGen:      make(map[string]uint64),
	}, nil
}

// Route returns every enabled, non-muted destination whose rule scope is
// a prefix of the repository's full name, in rule declaration order. A
// rule with event filter patterns only matches when one of them matches
// eventType.
func (r *Router) Route(repoFullName, eventType string) []Destination {
	r.mu.Lock()
	defer r.mu.Unlock()

	var destinations []Destination
	for _, rule := range r.rules {
		if !rule.enabled || !strings.HasPrefix(repoFullName, rule.scope) {
			continue
		}
		if !rule.matchesEvent(eventType) {
			continue
		}
		for _, t := range rule.targets {
			if t.muted {
				logrus.Infof("Notifications for %s are muted, skipping", t.channel)
				continue
			}
			destinations = append(destinations, Destination{
				Platform: t.platform,
				Channel:  t.channel,
			})
		}
	}
	return destinations
}

// Mute silences the given channels across all rules and schedules an
// automatic unmute after the configured interval. Re-muting a channel
// resets its pending timer.
func (r *Router) Mute(channels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := channelSet(channels)
	r.setMutedLocked(set, true)

	for channel := range set {
		if timer, ok := r.timers[channel]; ok {
			timer.Stop()
		}
		r.muteGen[channel]++
		gen := r.muteGen[channel]
		r.timers[channel] = time.AfterFunc(r.muteInterval, func() {
			r.autoUnmute(channel, gen)
		})
	}
}

// Unmute clears the mute on the given channels across all rules and
// cancels any pending automatic unmute for them.
func (r *Router) Unmute(channels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unmuteLocked(channelSet(channels))
}

// autoUnmute is the timer callback; the revert is silent. Stop cannot
// cancel a callback that has already fired, so the generation check is
// what keeps a stale callback from reverting a newer mute window.
func (r *Router) autoUnmute(channel string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.muteGen[channel] != gen {
		return
	}
	logrus.Infof("Mute window for %s expired, resuming notifications", channel)
	r.unmuteLocked(map[string]bool{channel: true})
}

func (r *Router) unmuteLocked(set map[string]bool) {
	r.setMutedLocked(set, false)
	for channel := range set {
		r.muteGen[channel]++
		if timer, ok := r.timers[channel]; ok {
			timer.Stop()
			delete(r.timers, channel)
		}
	}
}

func (r *Router) setMutedLocked(set map[string]bool, muted bool) {
	for _, rule := range r.rules {
		for _, t := range rule.targets {
			if set[t.channel] {
				t.muted = muted
			}
		}
	}
}

// MuteInterval reports the configured mute duration
func (r *Router) MuteInterval() time.Duration {
	return r.muteInterval
}

func channelSet(channels []string) map[string]bool {
	set := make(map[string]bool, len(channels))
	for _, c := range channels {
		set[c] = true
	}
	return set
}

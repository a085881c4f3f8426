// Package bot ties the formatter, router, and delivery client together.
package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/CDN18/forgejo-relay/internal/forgejo"
	"github.com/CDN18/forgejo-relay/internal/notify"
	"github.com/CDN18/forgejo-relay/internal/router"
	"github.com/sirupsen/logrus"
)

// Sender delivers a formatted message to one destination
type Sender interface {
	Send(ctx context.Context, platform, channel, text string) error
}

// Bot relays formatted webhook events to their destinations
type Bot struct {
	router *router.Router
	sender Sender
}

// New creates a new Bot instance
func New(r *router.Router, sender Sender) *Bot {
	return &Bot{
		router: r,
		sender: sender,
	}
}

// HandleEvent formats an event once and fans the message out to every
// matching destination. Deliveries run concurrently; a failed delivery
// is logged and never blocks or fails the others.
func (b *Bot) HandleEvent(ctx context.Context, eventType forgejo.EventType, event *forgejo.Event) error {
	repo := event.Repository.FullName
	if repo == "" {
		return errors.New("event carries no repository full name")
	}

	message := notify.Format(event, eventType)

	destinations := b.router.Route(repo, string(eventType))
	if len(destinations) == 0 {
		logrus.Debugf("No destinations for %s event from %s", eventType, repo)
		return nil
	}

	var wg sync.WaitGroup
	for _, dest := range destinations {
		wg.Add(1)
		go func(dest router.Destination) {
			defer wg.Done()
			if err := b.sender.Send(ctx, dest.Platform, dest.Channel, message); err != nil {
				logrus.Errorf("Failed to deliver notification to %s/%s: %v", dest.Platform, dest.Channel, err)
			}
		}(dest)
	}
	wg.Wait()

	logrus.Infof("Processed %s event from %s", eventType, repo)
	return nil
}

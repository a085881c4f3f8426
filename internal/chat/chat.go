// Package chat delivers notification messages to configured chat
// platform endpoints.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/CDN18/forgejo-relay/internal/config"
	"github.com/sirupsen/logrus"
)

type endpoint struct {
	url   string
	token string
}

// Chat sends messages to chat platforms over HTTP
type Chat struct {
	httpClient *http.Client
	endpoints  map[string]endpoint
}

// NewChat creates a delivery client for the configured platforms
func NewChat(platforms []config.Platform) (*Chat, error) {
	if len(platforms) == 0 {
		return nil, errors.New("no chat platforms configured")
	}

	endpoints := make(map[string]endpoint, len(platforms))
	for _, p := range platforms {
		endpoints[p.Name] = endpoint{url: p.URL, token: p.Token}
	}

	return &Chat{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoints: endpoints,
	}, nil
}

type sendRequest struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// Send delivers one message to a channel on the named platform. Failures
// are local to this delivery.
func (c *Chat) Send(ctx context.Context, platform, channel, text string) error {
	ep, ok := c.endpoints[platform]
	if !ok {
		return fmt.Errorf("unknown chat platform: %s", platform)
	}

	payload, err := json.Marshal(sendRequest{
		Channel: channel,
		Message: text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.token != "" {
		req.Header.Set("Authorization", "Bearer "+ep.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("platform %s returned status %d: %s", platform, resp.StatusCode, string(body))
	}

	logrus.Debugf("Delivered message to %s/%s", platform, channel)
	return nil
}

package forgejo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// EventTypeHeader carries the event category of a webhook delivery
const EventTypeHeader = "X-Forgejo-Event-Type"

// EventHandler processes one decoded webhook event
type EventHandler func(ctx context.Context, eventType EventType, event *Event) error

// WebhookHandler handles inbound Forgejo webhook requests
type WebhookHandler struct {
	token   string
	handler EventHandler
}

// NewWebhookHandler creates a new webhook handler. The token is compared
// verbatim against the Authorization header of every request.
func NewWebhookHandler(token string, handler EventHandler) *WebhookHandler {
	return &WebhookHandler{
		token:   token,
		handler: handler,
	}
}

// HandleWebhook handles incoming webhook requests
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != h.token {
		logrus.Warnf("Unauthorized webhook request from %s", r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorized"))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logrus.Errorf("Error reading webhook payload: %v", err)
		http.Error(w, "Error reading payload", http.StatusBadRequest)
		return
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		logrus.Errorf("Error parsing webhook payload: %v", err)
		http.Error(w, "Error parsing payload", http.StatusBadRequest)
		return
	}

	// The event category header may be sent more than once; the first
	// value wins.
	eventType := EventType(firstHeaderValue(r, EventTypeHeader))
	logrus.Infof("Received Forgejo event: %s", eventType)

	if err := h.handler(r.Context(), eventType, &event); err != nil {
		// The webhook was received; handler-side failures must not
		// surface to the forge.
		logrus.Errorf("Error handling %s event: %v", eventType, err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func firstHeaderValue(r *http.Request, key string) string {
	values := r.Header.Values(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CDN18/forgejo-relay/internal/config"
)

func TestNewChatRequiresPlatforms(t *testing.T) {
	if _, err := NewChat(nil); err == nil {
		t.Error("NewChat() accepted an empty platform list")
	}
}

func TestSend(t *testing.T) {
	var gotAuth string
	var gotReq sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewChat([]config.Platform{
		{Name: "telegram", URL: server.URL, Token: "bot-token"},
	})
	if err != nil {
		t.Fatalf("NewChat() returned error: %v", err)
	}

	if err := c.Send(context.Background(), "telegram", "team", "<>hello</>"); err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}

	if gotAuth != "Bearer bot-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotReq.Channel != "team" || gotReq.Message != "<>hello</>" {
		t.Errorf("request = %+v, want channel and message set", gotReq)
	}
}

func TestSendUnknownPlatform(t *testing.T) {
	c, err := NewChat([]config.Platform{
		{Name: "telegram", URL: "http://localhost:0"},
	})
	if err != nil {
		t.Fatalf("NewChat() returned error: %v", err)
	}

	if err := c.Send(context.Background(), "matrix", "team", "hi"); err == nil {
		t.Error("Send() accepted an unconfigured platform")
	}
}

func TestSendNon2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel not found", http.StatusNotFound)
	}))
	defer server.Close()

	c, err := NewChat([]config.Platform{
		{Name: "telegram", URL: server.URL},
	})
	if err != nil {
		t.Fatalf("NewChat() returned error: %v", err)
	}

	err = c.Send(context.Background(), "telegram", "missing", "hi")
	if err == nil {
		t.Error("Send() ignored a non-2xx response")
	}
}

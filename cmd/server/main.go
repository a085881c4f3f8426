package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CDN18/forgejo-relay/internal/bot"
	"github.com/CDN18/forgejo-relay/internal/chat"
	"github.com/CDN18/forgejo-relay/internal/config"
	"github.com/CDN18/forgejo-relay/internal/forgejo"
	"github.com/CDN18/forgejo-relay/internal/router"
	"github.com/sirupsen/logrus"
)

func main() {
	// Configure logging
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Set log level based on environment
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err == nil {
			logrus.SetLevel(level)
		}
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Verify the Forgejo instance is reachable when configured
	if cfg.ForgejoBaseURL != "" {
		client, err := forgejo.NewClient(cfg.ForgejoBaseURL, cfg.ForgejoToken)
		if err != nil {
			logrus.Fatalf("Failed to create Forgejo client: %v", err)
		}
		version, err := client.ServerVersion()
		if err != nil {
			logrus.Warnf("Failed to reach Forgejo at %s: %v", cfg.ForgejoBaseURL, err)
		} else {
			logrus.Infof("Connected to Forgejo %s", version)
		}
	}

	// Create router and delivery client
	eventRouter, err := router.New(cfg.Rules, cfg.MuteInterval)
	if err != nil {
		logrus.Fatalf("Failed to build router: %v", err)
	}

	chatClient, err := chat.NewChat(cfg.Platforms)
	if err != nil {
		logrus.Fatalf("Failed to create chat client: %v", err)
	}

	// Create bot
	relayBot := bot.New(eventRouter, chatClient)

	// Create HTTP server
	addr := fmt.Sprintf(":%s", cfg.Port)
	mux := http.NewServeMux()

	webhookHandler := forgejo.NewWebhookHandler(cfg.Token, relayBot.HandleEvent)
	mux.HandleFunc(cfg.Endpoint, webhookHandler.HandleWebhook)

	// Command surface for the chat-side dispatcher
	mux.HandleFunc("/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req bot.CommandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Error parsing command", http.StatusBadRequest)
			return
		}
		reply, err := relayBot.HandleCommand(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(reply))
	})

	// Add health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Graceful shutdown
	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Error shutting down server: %v", err)
	}

	logrus.Info("Server stopped")
}

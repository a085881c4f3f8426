package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/CDN18/forgejo-relay/internal/bot"
	"github.com/CDN18/forgejo-relay/internal/chat"
	"github.com/CDN18/forgejo-relay/internal/config"
	"github.com/CDN18/forgejo-relay/internal/forgejo"
	"github.com/CDN18/forgejo-relay/internal/router"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

func main() {
	// Configure logging
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// Set log level based on environment
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err == nil {
			logrus.SetLevel(level)
		}
	}

	lambda.Start(handleRequest)
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logrus.Info("Received Lambda request")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Errorf("Failed to load configuration: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       fmt.Sprintf("Failed to load configuration: %v", err),
		}, nil
	}

	auth := request.Headers["Authorization"]
	if auth == "" {
		auth = request.Headers["authorization"]
	}
	if auth != cfg.Token {
		logrus.Warn("Unauthorized Lambda webhook request")
		return events.APIGatewayProxyResponse{
			StatusCode: 401,
			Body:       "Unauthorized",
		}, nil
	}

	// Create router and delivery client
	eventRouter, err := router.New(cfg.Rules, cfg.MuteInterval)
	if err != nil {
		logrus.Errorf("Failed to build router: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       fmt.Sprintf("Failed to build router: %v", err),
		}, nil
	}

	chatClient, err := chat.NewChat(cfg.Platforms)
	if err != nil {
		logrus.Errorf("Failed to create chat client: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: 500,
			Body:       fmt.Sprintf("Failed to create chat client: %v", err),
		}, nil
	}

	relayBot := bot.New(eventRouter, chatClient)

	// Get the Forgejo event type from headers
	eventType := request.Headers[forgejo.EventTypeHeader]
	if eventType == "" {
		eventType = request.Headers["x-forgejo-event-type"]
	}

	// Parse the event payload
	var event forgejo.Event
	if err := json.Unmarshal([]byte(request.Body), &event); err != nil {
		logrus.Errorf("Failed to parse event payload: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: 400,
			Body:       "Error parsing payload",
		}, nil
	}

	// Handle the event; the webhook was received, so handler-side
	// failures still acknowledge
	if err := relayBot.HandleEvent(ctx, forgejo.EventType(eventType), &event); err != nil {
		logrus.Errorf("Error handling %s event: %v", eventType, err)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: 200,
		Body:       "OK",
	}, nil
}

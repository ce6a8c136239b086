package fcm

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const alertChannelID = "trade_alerts"

// Client pushes trade alerts to registered devices over Firebase Cloud
// Messaging. Without credentials the client stays disabled and every send is
// a no-op, so push delivery is strictly optional.
type Client struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewClient initializes FCM from FIREBASE_CREDENTIALS_PATH or
// FIREBASE_CREDENTIALS_JSON. Missing credentials disable the client rather
// than fail startup.
func NewClient(ctx context.Context, log zerolog.Logger) (*Client, error) {
	log = log.With().Str("component", "fcm").Logger()

	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
		if credJSON == "" {
			log.Warn().Msg("no firebase credentials, push notifications disabled")
			return &Client{log: log}, nil
		}

		tmpFile, err := os.CreateTemp("", "firebase-credentials-*.json")
		if err != nil {
			return nil, fmt.Errorf("fcm: create credentials file: %w", err)
		}
		defer tmpFile.Close()

		if _, err := tmpFile.Write([]byte(credJSON)); err != nil {
			return nil, fmt.Errorf("fcm: write credentials: %w", err)
		}
		credPath = tmpFile.Name()
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, fmt.Errorf("fcm: initialize app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: messaging client: %w", err)
	}

	log.Info().Msg("firebase cloud messaging initialized")
	return &Client{client: client, log: log}, nil
}

// Enabled reports whether credentials were configured.
func (c *Client) Enabled() bool {
	return c.client != nil
}

// SendMulticast pushes one alert to every token. Partial failures are
// logged, not returned; stale tokens are expected.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if c.client == nil || len(tokens) == 0 {
		return nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: alertChannelID,
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("fcm: send multicast: %w", err)
	}

	c.log.Info().
		Int("success", response.SuccessCount).
		Int("failure", response.FailureCount).
		Str("title", title).
		Msg("push sent")
	return nil
}

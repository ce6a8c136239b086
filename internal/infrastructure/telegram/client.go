package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"scanner-backend/internal/domain"
)

const defaultAPIBase = "https://api.telegram.org"

// Client posts messages through the Telegram Bot API.
type Client struct {
	token      string
	chatID     string
	apiBase    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Telegram notifier for one chat. An empty apiBase
// selects the public Bot API; tests point it at a local server.
func NewClient(token, chatID, apiBase string, log zerolog.Logger) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		token:      token,
		chatID:     chatID,
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "telegram").Logger(),
	}
}

// Notify sends a plain text message to the configured chat.
func (c *Client) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": c.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("telegram: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// NotifyImage sends a photo with caption via multipart upload.
func (c *Client) NotifyImage(ctx context.Context, image []byte, caption string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", c.chatID); err != nil {
		return fmt.Errorf("telegram: build form: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("telegram: build form: %w", err)
		}
	}
	part, err := writer.CreateFormFile("photo", "chart.png")
	if err != nil {
		return fmt.Errorf("telegram: build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("telegram: build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("telegram: build form: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// LogNotifier writes notifications to the log instead of an external chat.
// Used when no Telegram credentials are configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, text string) error {
	n.log.Info().Msg(text)
	return nil
}

func (n *LogNotifier) NotifyImage(ctx context.Context, image []byte, caption string) error {
	n.log.Info().Int("image_bytes", len(image)).Msg(caption)
	return nil
}

var (
	_ domain.Notifier = (*Client)(nil)
	_ domain.Notifier = (*LogNotifier)(nil)
)

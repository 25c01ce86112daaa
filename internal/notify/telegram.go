package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	telegramSendTimeout = 10 * time.Second
	telegramAPIBase     = "https://api.telegram.org"
)

// TelegramSink posts messages to a Telegram chat via the Bot API's
// sendMessage method. Token and ChatID are the notification transport
// credentials named in the external-interfaces configuration. BaseURL
// defaults to the production Telegram API and is only overridden in tests.
type TelegramSink struct {
	Token   string
	ChatID  string
	Client  *http.Client
	BaseURL string
}

// NewTelegramSink builds a TelegramSink with a bounded-timeout HTTP client.
func NewTelegramSink(token, chatID string) *TelegramSink {
	return &TelegramSink{
		Token:   token,
		ChatID:  chatID,
		Client:  &http.Client{Timeout: telegramSendTimeout},
		BaseURL: telegramAPIBase,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts text as a plain (non-Markdown) message. Telegram's own rate
// limiting is handled by the alert pipeline's 1/s spacing upstream; this
// call does not retry.
func (t *TelegramSink) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: t.ChatID, Text: text})
	if err != nil {
		return fmt.Errorf("notify: marshal telegram request: %w", err)
	}

	base := t.BaseURL
	if base == "" {
		base = telegramAPIBase
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("notify: decode telegram response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("notify: telegram rejected message: %s", decoded.Description)
	}
	return nil
}

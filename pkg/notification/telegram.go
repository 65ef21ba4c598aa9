package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/jsonx"
	"nodemonitor/pkg/logger"
)

// TelegramMaxMessageLen is the Bot API limit for one message.
const TelegramMaxMessageLen = 4096

// TelegramNotifier sends messages through the Telegram Bot API
type TelegramNotifier struct {
	apiURL   string
	botToken string
	client   *http.Client
}

// NewTelegramNotifier creates a Telegram notifier. Without a bot token every
// send is skipped.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	if cfg.BotToken == "" {
		logger.Warn("Telegram bot token not configured, Telegram notifications will be disabled")
	}
	return &TelegramNotifier{
		apiURL:   strings.TrimRight(cfg.APIURL, "/"),
		botToken: cfg.BotToken,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name implements Sender
func (t *TelegramNotifier) Name() string { return "telegram" }

// Send implements Sender
func (t *TelegramNotifier) Send(ctx context.Context, target Target, msg *Message) error {
	if t.botToken == "" || target.TelegramChatID == 0 {
		return nil
	}
	for _, part := range SplitMessage(msg.Text(), TelegramMaxMessageLen) {
		if err := t.sendMessage(ctx, target.TelegramChatID, part); err != nil {
			return err
		}
	}
	logger.InfoCtx(ctx, "Telegram notification sent to chat %d", target.TelegramChatID)
	return nil
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (t *TelegramNotifier) sendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := jsonx.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal Telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Telegram API returned status code %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SplitMessage cuts text into chunks of at most limit bytes, preferring
// line boundaries and never splitting a UTF-8 sequence.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

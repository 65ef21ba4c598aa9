package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/logger"

	"github.com/bwmarrin/discordgo"
)

// discordMaxContentLen is the webhook content limit.
const discordMaxContentLen = 2000

// DiscordNotifier mirrors notifications into an operator Discord channel
// through a webhook. It ignores the per-user target.
type DiscordNotifier struct {
	session   *discordgo.Session
	webhookID string
	token     string
}

// NewDiscordNotifier creates a Discord notifier. Returns nil when no webhook is configured.
func NewDiscordNotifier(cfg config.DiscordConfig) (*DiscordNotifier, error) {
	if cfg.WebhookID == "" || cfg.WebhookToken == "" {
		return nil, nil
	}
	// webhooks need no bot token
	dg, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{session: dg, webhookID: cfg.WebhookID, token: cfg.WebhookToken}, nil
}

// Name implements Sender
func (d *DiscordNotifier) Name() string { return "discord" }

// Send implements Sender
func (d *DiscordNotifier) Send(ctx context.Context, _ Target, msg *Message) error {
	content := DiscordContent(msg)
	_, err := d.session.WebhookExecute(d.webhookID, d.token, false, &discordgo.WebhookParams{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		if isDiscordPermanentError(err) {
			logger.ErrorCtx(ctx, "discord webhook rejected message permanently: %v", err)
		}
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}
	return nil
}

// DiscordContent renders msg for the operator channel, hiding the full address.
func DiscordContent(msg *Message) string {
	content := "**" + msg.Title + "**"
	if msg.NodeAddress != "" {
		content += "\nnode `" + ShortAddress(msg.NodeAddress) + "`"
	}
	if len(content) > discordMaxContentLen {
		content = SplitMessage(content, discordMaxContentLen)[0]
	}
	return content
}

func isDiscordPermanentError(err error) bool {
	if errors.Is(err, discordgo.ErrUnauthorized) {
		return true
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"nodemonitor/internal/model"
	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/notification"
	mysqlModel "nodemonitor/pkg/store/mysql/model"
)

var linkCodePattern = regexp.MustCompile(`^[0-9A-F]{8}$`)

// NotificationService gates, queues and delivers user notifications
type NotificationService struct {
	prefs     interfaces.PreferencesRepository
	tokens    interfaces.DeviceTokenRepository
	telegram  interfaces.TelegramRepository
	senders   []interfaces.NotificationSender
	queue     interfaces.NotificationQueue
	templates notification.Templates
	now       func() time.Time
}

// NewNotificationService creates a notification service delivering over senders
func NewNotificationService(
	prefs interfaces.PreferencesRepository,
	tokens interfaces.DeviceTokenRepository,
	telegram interfaces.TelegramRepository,
	templates notification.Templates,
	senders ...interfaces.NotificationSender,
) *NotificationService {
	return &NotificationService{
		prefs:     prefs,
		tokens:    tokens,
		telegram:  telegram,
		senders:   senders,
		templates: templates,
		now:       time.Now,
	}
}

// SetQueue sets the queue Dispatch hands messages to. Without a queue
// messages are delivered synchronously.
func (s *NotificationService) SetQueue(q interfaces.NotificationQueue) {
	s.queue = q
}

// Templates returns the message templates
func (s *NotificationService) Templates() notification.Templates {
	return s.templates
}

// Dispatch queues msg for delivery if the user's preferences allow its kind.
// Failures are logged and never returned.
func (s *NotificationService) Dispatch(ctx context.Context, msg *notification.Message) {
	if msg == nil {
		return
	}
	if !s.allowed(ctx, msg.UserID, msg.Kind) {
		logger.DebugCtx(ctx, "notification %s disabled for user %s", msg.Kind, msg.UserID)
		return
	}

	if s.queue == nil {
		if err := s.Deliver(ctx, msg); err != nil {
			logger.WarnCtx(ctx, "notification delivery failed, user_id: %s, kind: %s, error: %v", msg.UserID, msg.Kind, err)
		}
		return
	}
	if err := s.queue.EnqueueNotification(ctx, msg); err != nil {
		logger.WarnCtx(ctx, "failed to enqueue notification, user_id: %s, kind: %s, error: %v", msg.UserID, msg.Kind, err)
	}
}

func (s *NotificationService) allowed(ctx context.Context, userID string, kind notification.Kind) bool {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to load notification preferences for %s: %v", userID, err)
		return true
	}
	if prefs == nil {
		prefs = mysqlModel.DefaultPreferences(userID)
	}

	switch kind {
	case notification.KindNodeOffline:
		return prefs.NotifyOffline
	case notification.KindNodeOnline:
		return prefs.NotifyOnline
	case notification.KindJobStarted:
		return prefs.NotifyJobStarted
	case notification.KindJobCompleted:
		return prefs.NotifyJobCompleted
	case notification.KindLowBalance:
		return prefs.NotifyLowBalance
	default:
		return true
	}
}

// Deliver sends msg over every channel. It attempts all senders and joins
// their errors.
func (s *NotificationService) Deliver(ctx context.Context, msg *notification.Message) error {
	target, err := s.target(ctx, msg.UserID)
	if err != nil {
		return err
	}

	var errs []error
	for _, sender := range s.senders {
		if err := sender.Send(ctx, target, msg); err != nil {
			logger.WarnCtx(ctx, "%s delivery failed, user_id: %s, kind: %s, error: %v", sender.Name(), msg.UserID, msg.Kind, err)
			errs = append(errs, fmt.Errorf("%s: %w", sender.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *NotificationService) target(ctx context.Context, userID string) (notification.Target, error) {
	var target notification.Target

	link, err := s.telegram.GetUser(ctx, userID)
	if err != nil {
		return target, fmt.Errorf("failed to load telegram link: %w", err)
	}
	if link != nil {
		target.TelegramChatID = link.ChatID
	}

	tokens, err := s.tokens.ListByUser(ctx, userID)
	if err != nil {
		return target, fmt.Errorf("failed to load device tokens: %w", err)
	}
	for _, t := range tokens {
		target.DeviceTokens = append(target.DeviceTokens, t.Token)
	}
	return target, nil
}

// SendTest delivers a test notification synchronously
func (s *NotificationService) SendTest(ctx context.Context, userID string) error {
	return s.Deliver(ctx, s.templates.Test(userID))
}

// GetPreferences returns the user's preferences, defaulting to all enabled
func (s *NotificationService) GetPreferences(ctx context.Context, userID string) (*model.PreferencesResponse, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = mysqlModel.DefaultPreferences(userID)
	}
	return preferencesResponse(prefs), nil
}

// UpdatePreferences applies the non-nil fields of req
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, req *model.PreferencesRequest) (*model.PreferencesResponse, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = mysqlModel.DefaultPreferences(userID)
	}

	if req.NotifyOffline != nil {
		prefs.NotifyOffline = *req.NotifyOffline
	}
	if req.NotifyOnline != nil {
		prefs.NotifyOnline = *req.NotifyOnline
	}
	if req.NotifyJobStarted != nil {
		prefs.NotifyJobStarted = *req.NotifyJobStarted
	}
	if req.NotifyJobCompleted != nil {
		prefs.NotifyJobCompleted = *req.NotifyJobCompleted
	}
	if req.NotifyLowBalance != nil {
		prefs.NotifyLowBalance = *req.NotifyLowBalance
	}
	prefs.UpdatedAt = s.now().UTC()

	if err := s.prefs.Upsert(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return preferencesResponse(prefs), nil
}

func preferencesResponse(p *mysqlModel.NotificationPreferences) *model.PreferencesResponse {
	return &model.PreferencesResponse{
		NotifyOffline:      p.NotifyOffline,
		NotifyOnline:       p.NotifyOnline,
		NotifyJobStarted:   p.NotifyJobStarted,
		NotifyJobCompleted: p.NotifyJobCompleted,
		NotifyLowBalance:   p.NotifyLowBalance,
	}
}

// RegisterToken stores a push device token for the user
func (s *NotificationService) RegisterToken(ctx context.Context, userID, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("device token is required")
	}
	return s.tokens.Upsert(ctx, &mysqlModel.DeviceToken{
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		CreatedAt: s.now().UTC(),
	})
}

// UnregisterToken removes a push device token
func (s *NotificationService) UnregisterToken(ctx context.Context, userID, token string) error {
	return s.tokens.Delete(ctx, userID, strings.TrimSpace(token))
}

// TelegramStatus reports whether the user has linked a Telegram chat
func (s *NotificationService) TelegramStatus(ctx context.Context, userID string) (*model.TelegramStatusResponse, error) {
	link, err := s.telegram.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &model.TelegramStatusResponse{Linked: false}, nil
	}
	linkedAt := link.LinkedAt
	return &model.TelegramStatusResponse{
		Linked:   true,
		Username: link.Username,
		LinkedAt: &linkedAt,
	}, nil
}

// LinkTelegram links the chat that requested code to the user
func (s *NotificationService) LinkTelegram(ctx context.Context, userID, code string) (*model.TelegramStatusResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !linkCodePattern.MatchString(code) {
		return nil, ErrInvalidLinkCode
	}

	now := s.now().UTC()
	lc, err := s.telegram.ConsumeCode(ctx, code, now)
	if err != nil {
		return nil, fmt.Errorf("failed to consume link code: %w", err)
	}
	if lc == nil {
		return nil, ErrInvalidLinkCode
	}

	link := &mysqlModel.TelegramUser{
		UserID:   userID,
		ChatID:   lc.ChatID,
		Username: lc.Username,
		LinkedAt: now,
	}
	if err := s.telegram.Link(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to link telegram: %w", err)
	}

	logger.InfoCtx(ctx, "telegram linked, user_id: %s", userID)
	return &model.TelegramStatusResponse{Linked: true, Username: link.Username, LinkedAt: &now}, nil
}

// UnlinkTelegram removes the user's Telegram link
func (s *NotificationService) UnlinkTelegram(ctx context.Context, userID string) error {
	return s.telegram.Unlink(ctx, userID)
}

// CleanupLinkCodes deletes expired link codes
func (s *NotificationService) CleanupLinkCodes(ctx context.Context) (int64, error) {
	return s.telegram.DeleteExpiredCodes(ctx, s.now().UTC())
}

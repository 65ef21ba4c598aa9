package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nodemonitor/pkg/interfaces"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferencesRepository handles notification preferences in MySQL
type PreferencesRepository struct {
	ds *Datastore
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(ds *Datastore) *PreferencesRepository {
	return &PreferencesRepository{ds: ds}
}

// Get retrieves a user's preferences
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*NotificationPreferences, error) {
	var prefs NotificationPreferences
	err := r.ds.DB(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &prefs, nil
}

// Upsert inserts or replaces a user's preferences
func (r *PreferencesRepository) Upsert(ctx context.Context, prefs *NotificationPreferences) error {
	err := r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"notify_offline", "notify_online", "notify_job_started",
			"notify_job_completed", "notify_low_balance", "updated_at",
		}),
	}).Create(prefs).Error
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// Counts counts users opted in to each notification type
func (r *PreferencesRepository) Counts(ctx context.Context) (*interfaces.PreferencesCounts, error) {
	var row struct {
		Offline      int64
		Online       int64
		JobStarted   int64
		JobCompleted int64
		LowBalance   int64
	}
	err := r.ds.DB(ctx).Model(&NotificationPreferences{}).Select(
		"COALESCE(SUM(notify_offline), 0) AS offline, " +
			"COALESCE(SUM(notify_online), 0) AS online, " +
			"COALESCE(SUM(notify_job_started), 0) AS job_started, " +
			"COALESCE(SUM(notify_job_completed), 0) AS job_completed, " +
			"COALESCE(SUM(notify_low_balance), 0) AS low_balance",
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count preferences: %w", err)
	}
	return &interfaces.PreferencesCounts{
		Offline:      row.Offline,
		Online:       row.Online,
		JobStarted:   row.JobStarted,
		JobCompleted: row.JobCompleted,
		LowBalance:   row.LowBalance,
	}, nil
}

// DeviceTokenRepository handles push device tokens in MySQL
type DeviceTokenRepository struct {
	ds *Datastore
}

// NewDeviceTokenRepository creates a new device token repository
func NewDeviceTokenRepository(ds *Datastore) *DeviceTokenRepository {
	return &DeviceTokenRepository{ds: ds}
}

// Upsert registers a token, moving it to the given user if already known
func (r *DeviceTokenRepository) Upsert(ctx context.Context, token *DeviceToken) error {
	err := r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform"}),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

// Delete removes a user's token
func (r *DeviceTokenRepository) Delete(ctx context.Context, userID, token string) error {
	return r.ds.DB(ctx).Where("user_id = ? AND token = ?", userID, token).Delete(&DeviceToken{}).Error
}

// ListByUser lists a user's tokens
func (r *DeviceTokenRepository) ListByUser(ctx context.Context, userID string) ([]*DeviceToken, error) {
	var tokens []*DeviceToken
	if err := r.ds.DB(ctx).Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	return tokens, nil
}

// Count counts all tokens
func (r *DeviceTokenRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&DeviceToken{}).Count(&count).Error
	return count, err
}

// TelegramRepository handles Telegram links in MySQL
type TelegramRepository struct {
	ds *Datastore
}

// NewTelegramRepository creates a new Telegram repository
func NewTelegramRepository(ds *Datastore) *TelegramRepository {
	return &TelegramRepository{ds: ds}
}

// GetUser retrieves a user's Telegram link
func (r *TelegramRepository) GetUser(ctx context.Context, userID string) (*TelegramUser, error) {
	var tg TelegramUser
	err := r.ds.DB(ctx).Where("user_id = ?", userID).First(&tg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get telegram user: %w", err)
	}
	return &tg, nil
}

// Link inserts or replaces a user's Telegram link
func (r *TelegramRepository) Link(ctx context.Context, tg *TelegramUser) error {
	err := r.ds.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_id", "username", "linked_at"}),
	}).Create(tg).Error
	if err != nil {
		return fmt.Errorf("failed to link telegram: %w", err)
	}
	return nil
}

// Unlink removes a user's Telegram link
func (r *TelegramRepository) Unlink(ctx context.Context, userID string) error {
	return r.ds.DB(ctx).Where("user_id = ?", userID).Delete(&TelegramUser{}).Error
}

// ConsumeCode deletes and returns an unexpired link code, or nil when the
// code is unknown or expired.
func (r *TelegramRepository) ConsumeCode(ctx context.Context, code string, now time.Time) (*TelegramLinkCode, error) {
	var consumed *TelegramLinkCode
	err := r.ds.ExecTx(ctx, func(txCtx context.Context) error {
		var lc TelegramLinkCode
		err := r.ds.DB(txCtx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ? AND expires_at > ?", code, now).
			First(&lc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := r.ds.DB(txCtx).Where("code = ?", code).Delete(&TelegramLinkCode{}).Error; err != nil {
			return err
		}
		consumed = &lc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume link code: %w", err)
	}
	return consumed, nil
}

// DeleteExpiredCodes deletes codes that expired before now
func (r *TelegramRepository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	result := r.ds.DB(ctx).Where("expires_at <= ?", now).Delete(&TelegramLinkCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired link codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountUsers counts linked Telegram users
func (r *TelegramRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&TelegramUser{}).Count(&count).Error
	return count, err
}

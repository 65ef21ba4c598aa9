package interfaces

import (
	"context"
	"time"

	"nodemonitor/pkg/store/mysql/model"
)

// Transactor runs fn in a transaction carried by ctx.
type Transactor interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListIDsWithNodes(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// NodeRepository persists monitored nodes and their status view.
type NodeRepository interface {
	Create(ctx context.Context, node *model.Node) error
	Get(ctx context.Context, userID, nodeID string) (*model.Node, error)
	GetByAddress(ctx context.Context, userID, address string) (*model.Node, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Node, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Save(ctx context.Context, node *model.Node) error
	Delete(ctx context.Context, userID, nodeID string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByJobStatus(ctx context.Context) (map[string]int64, error)
}

// EarningsTotals is an aggregate over job_earnings rows.
type EarningsTotals struct {
	JobCount int64
	USD      float64
	NOS      float64
}

// EarningsRepository persists per-job earnings entries.
type EarningsRepository interface {
	Create(ctx context.Context, entry *model.JobEarning) error
	ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]*model.JobEarning, error)
	ListByNode(ctx context.Context, nodeID string, from, to *time.Time) ([]*model.JobEarning, error)
	DeleteByNode(ctx context.Context, nodeID string) error
	Totals(ctx context.Context) (*EarningsTotals, error)
}

// TrackingRepository persists per-node tracking-year metadata.
type TrackingRepository interface {
	Get(ctx context.Context, nodeID string) (*model.NodeTrackingMetadata, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, nodeID string) (*model.NodeTrackingMetadata, error)
	CreateIfAbsent(ctx context.Context, meta *model.NodeTrackingMetadata) error
	Save(ctx context.Context, meta *model.NodeTrackingMetadata) error
	DeleteByNode(ctx context.Context, nodeID string) error
}

// ScrapedJobRepository persists deduplicated dashboard rows.
type ScrapedJobRepository interface {
	// InsertIfAbsent reports whether the row was new.
	InsertIfAbsent(ctx context.Context, job *model.ScrapedJob) (bool, error)
	// MarkCompleted moves a stored row to SUCCESS. It reports false when the
	// row was already SUCCESS or does not exist.
	MarkCompleted(ctx context.Context, job *model.ScrapedJob) (bool, error)
	ListByNode(ctx context.Context, nodeID string, limit int) ([]*model.ScrapedJob, error)
	DeleteByNode(ctx context.Context, nodeID string) error
}

// PreferencesCounts counts users opted in to each notification type.
type PreferencesCounts struct {
	Offline      int64
	Online       int64
	JobStarted   int64
	JobCompleted int64
	LowBalance   int64
}

// PreferencesRepository persists notification preferences.
type PreferencesRepository interface {
	Get(ctx context.Context, userID string) (*model.NotificationPreferences, error)
	Upsert(ctx context.Context, prefs *model.NotificationPreferences) error
	Counts(ctx context.Context) (*PreferencesCounts, error)
}

// DeviceTokenRepository persists push device tokens.
type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *model.DeviceToken) error
	Delete(ctx context.Context, userID, token string) error
	ListByUser(ctx context.Context, userID string) ([]*model.DeviceToken, error)
	Count(ctx context.Context) (int64, error)
}

// TelegramRepository persists Telegram links and link codes.
type TelegramRepository interface {
	GetUser(ctx context.Context, userID string) (*model.TelegramUser, error)
	Link(ctx context.Context, user *model.TelegramUser) error
	Unlink(ctx context.Context, userID string) error
	// ConsumeCode deletes and returns an unexpired code, or nil.
	ConsumeCode(ctx context.Context, code string, now time.Time) (*model.TelegramLinkCode, error)
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
}

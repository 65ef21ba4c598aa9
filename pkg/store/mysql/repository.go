package mysql

import (
	"context"

	"nodemonitor/pkg/interfaces"
)

// Repository aggregates all MySQL repositories
type Repository struct {
	ds *Datastore

	User        *UserRepository
	Node        *NodeRepository
	Earnings    *EarningsRepository
	Tracking    *TrackingRepository
	ScrapedJob  *ScrapedJobRepository
	Preferences *PreferencesRepository
	DeviceToken *DeviceTokenRepository
	Telegram    *TelegramRepository
}

var (
	_ interfaces.UserRepository        = (*UserRepository)(nil)
	_ interfaces.NodeRepository        = (*NodeRepository)(nil)
	_ interfaces.EarningsRepository    = (*EarningsRepository)(nil)
	_ interfaces.TrackingRepository    = (*TrackingRepository)(nil)
	_ interfaces.ScrapedJobRepository  = (*ScrapedJobRepository)(nil)
	_ interfaces.PreferencesRepository = (*PreferencesRepository)(nil)
	_ interfaces.DeviceTokenRepository = (*DeviceTokenRepository)(nil)
	_ interfaces.TelegramRepository    = (*TelegramRepository)(nil)
	_ interfaces.Transactor            = (*Datastore)(nil)
)

// NewRepository creates a new MySQL repository with all sub-repositories
func NewRepository(dsn string) (*Repository, error) {
	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}

	return &Repository{
		ds:          ds,
		User:        NewUserRepository(ds),
		Node:        NewNodeRepository(ds),
		Earnings:    NewEarningsRepository(ds),
		Tracking:    NewTrackingRepository(ds),
		ScrapedJob:  NewScrapedJobRepository(ds),
		Preferences: NewPreferencesRepository(ds),
		DeviceToken: NewDeviceTokenRepository(ds),
		Telegram:    NewTelegramRepository(ds),
	}, nil
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Migrate creates or updates all tables
func (r *Repository) Migrate(ctx context.Context) error {
	return r.ds.AutoMigrate(ctx)
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}

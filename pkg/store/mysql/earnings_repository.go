package mysql

import (
	"context"
	"fmt"
	"time"

	"nodemonitor/pkg/interfaces"

	"gorm.io/gorm"
)

// EarningsRepository handles job earnings persistence in MySQL
type EarningsRepository struct {
	ds *Datastore
}

// NewEarningsRepository creates a new earnings repository
func NewEarningsRepository(ds *Datastore) *EarningsRepository {
	return &EarningsRepository{ds: ds}
}

// Create inserts an earnings entry
func (r *EarningsRepository) Create(ctx context.Context, entry *JobEarning) error {
	if err := r.ds.DB(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create earnings entry: %w", err)
	}
	return nil
}

// ListByUser lists a user's entries with completed_at in [from, to). Nil bounds are open.
func (r *EarningsRepository) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]*JobEarning, error) {
	query := r.ds.DB(ctx).Where("user_id = ?", userID)
	query = withRange(query, from, to)

	var entries []*JobEarning
	if err := query.Order("completed_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}
	return entries, nil
}

// ListByNode lists a node's entries with completed_at in [from, to)
func (r *EarningsRepository) ListByNode(ctx context.Context, nodeID string, from, to *time.Time) ([]*JobEarning, error) {
	query := r.ds.DB(ctx).Where("node_id = ?", nodeID)
	query = withRange(query, from, to)

	var entries []*JobEarning
	if err := query.Order("completed_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list node earnings: %w", err)
	}
	return entries, nil
}

// DeleteByNode deletes all entries of a node
func (r *EarningsRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	return r.ds.DB(ctx).Where("node_id = ?", nodeID).Delete(&JobEarning{}).Error
}

// Totals sums all entries
func (r *EarningsRepository) Totals(ctx context.Context) (*interfaces.EarningsTotals, error) {
	var row struct {
		JobCount int64
		USD      float64
		NOS      float64
	}
	err := r.ds.DB(ctx).Model(&JobEarning{}).
		Select("COUNT(*) AS job_count, COALESCE(SUM(usd_value), 0) AS usd, COALESCE(SUM(nos_earned), 0) AS nos").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum earnings: %w", err)
	}
	return &interfaces.EarningsTotals{JobCount: row.JobCount, USD: row.USD, NOS: row.NOS}, nil
}

func withRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("completed_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("completed_at < ?", *to)
	}
	return query
}

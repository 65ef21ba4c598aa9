package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"
)

// ScrapedJobRepository handles scraped dashboard rows in MySQL
type ScrapedJobRepository struct {
	ds *Datastore
}

// NewScrapedJobRepository creates a new scraped job repository
func NewScrapedJobRepository(ds *Datastore) *ScrapedJobRepository {
	return &ScrapedJobRepository{ds: ds}
}

// InsertIfAbsent inserts job unless (job_id, node_address) exists. It reports
// whether a row was inserted.
func (r *ScrapedJobRepository) InsertIfAbsent(ctx context.Context, job *ScrapedJob) (bool, error) {
	result := r.ds.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(job)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert scraped job: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkCompleted copies the completion fields of job onto its stored row unless
// that row is already SUCCESS. It reports whether a row changed.
func (r *ScrapedJobRepository) MarkCompleted(ctx context.Context, job *ScrapedJob) (bool, error) {
	result := r.ds.DB(ctx).Model(&ScrapedJob{}).
		Where("job_id = ? AND node_address = ? AND status <> ?", job.JobID, job.NodeAddress, job.Status).
		Updates(map[string]interface{}{
			"status":           job.Status,
			"duration_seconds": job.DurationSeconds,
			"duration_text":    job.DurationText,
			"completed_at":     job.CompletedAt,
			"scraped_at":       job.ScrapedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark scraped job completed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByNode lists a node's most recent scraped jobs
func (r *ScrapedJobRepository) ListByNode(ctx context.Context, nodeID string, limit int) ([]*ScrapedJob, error) {
	if limit <= 0 {
		limit = 100
	}
	var jobs []*ScrapedJob
	err := r.ds.DB(ctx).
		Where("node_id = ?", nodeID).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scraped jobs: %w", err)
	}
	return jobs, nil
}

// DeleteByNode deletes a node's scraped jobs
func (r *ScrapedJobRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	return r.ds.DB(ctx).Where("node_id = ?", nodeID).Delete(&ScrapedJob{}).Error
}

package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackingRepository handles node tracking metadata in MySQL
type TrackingRepository struct {
	ds *Datastore
}

// NewTrackingRepository creates a new tracking repository
func NewTrackingRepository(ds *Datastore) *TrackingRepository {
	return &TrackingRepository{ds: ds}
}

// Get retrieves a node's tracking metadata
func (r *TrackingRepository) Get(ctx context.Context, nodeID string) (*NodeTrackingMetadata, error) {
	return r.get(r.ds.DB(ctx), nodeID)
}

// GetForUpdate retrieves a node's tracking metadata with SELECT ... FOR UPDATE.
// Must be called inside ExecTx.
func (r *TrackingRepository) GetForUpdate(ctx context.Context, nodeID string) (*NodeTrackingMetadata, error) {
	return r.get(r.ds.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), nodeID)
}

func (r *TrackingRepository) get(db *gorm.DB, nodeID string) (*NodeTrackingMetadata, error) {
	var meta NodeTrackingMetadata
	err := db.Where("node_id = ?", nodeID).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tracking metadata: %w", err)
	}
	return &meta, nil
}

// CreateIfAbsent inserts metadata unless the node already has a row
func (r *TrackingRepository) CreateIfAbsent(ctx context.Context, meta *NodeTrackingMetadata) error {
	err := r.ds.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(meta).Error
	if err != nil {
		return fmt.Errorf("failed to create tracking metadata: %w", err)
	}
	return nil
}

// Save updates the window start and archive of a node
func (r *TrackingRepository) Save(ctx context.Context, meta *NodeTrackingMetadata) error {
	err := r.ds.DB(ctx).Model(&NodeTrackingMetadata{}).
		Where("node_id = ?", meta.NodeID).
		Updates(map[string]interface{}{
			"current_year_start": meta.CurrentYearStart,
			"archived_years":     meta.ArchivedYears,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save tracking metadata: %w", err)
	}
	return nil
}

// DeleteByNode deletes a node's tracking metadata
func (r *TrackingRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	return r.ds.DB(ctx).Where("node_id = ?", nodeID).Delete(&NodeTrackingMetadata{}).Error
}

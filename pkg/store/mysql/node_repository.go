package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// NodeRepository handles node persistence in MySQL
type NodeRepository struct {
	ds *Datastore
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(ds *Datastore) *NodeRepository {
	return &NodeRepository{ds: ds}
}

// Create creates a new node
func (r *NodeRepository) Create(ctx context.Context, node *Node) error {
	return r.ds.DB(ctx).Create(node).Error
}

// Get retrieves a node owned by userID
func (r *NodeRepository) Get(ctx context.Context, userID, nodeID string) (*Node, error) {
	var node Node
	err := r.ds.DB(ctx).Where("id = ? AND user_id = ?", nodeID, userID).First(&node).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return &node, nil
}

// GetByAddress retrieves a user's node by address
func (r *NodeRepository) GetByAddress(ctx context.Context, userID, address string) (*Node, error) {
	var node Node
	err := r.ds.DB(ctx).Where("user_id = ? AND address = ?", userID, address).First(&node).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get node by address: %w", err)
	}
	return &node, nil
}

// ListByUser lists a user's nodes, oldest first
func (r *NodeRepository) ListByUser(ctx context.Context, userID string) ([]*Node, error) {
	var nodes []*Node
	err := r.ds.DB(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&nodes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nodes, nil
}

// CountByUser counts a user's nodes
func (r *NodeRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&Node{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

// Save writes every column of node
func (r *NodeRepository) Save(ctx context.Context, node *Node) error {
	if err := r.ds.DB(ctx).Save(node).Error; err != nil {
		return fmt.Errorf("failed to save node: %w", err)
	}
	return nil
}

// Delete deletes a user's node
func (r *NodeRepository) Delete(ctx context.Context, userID, nodeID string) error {
	return r.ds.DB(ctx).Where("id = ? AND user_id = ?", nodeID, userID).Delete(&Node{}).Error
}

type groupCount struct {
	Key   string
	Count int64
}

// CountByStatus counts nodes grouped by connectivity
func (r *NodeRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countGrouped(ctx, "status")
}

// CountByJobStatus counts nodes grouped by job status
func (r *NodeRepository) CountByJobStatus(ctx context.Context) (map[string]int64, error) {
	return r.countGrouped(ctx, "job_status")
}

func (r *NodeRepository) countGrouped(ctx context.Context, column string) (map[string]int64, error) {
	var rows []groupCount
	err := r.ds.DB(ctx).Model(&Node{}).
		Select(column + " AS `key`, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes by %s: %w", column, err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

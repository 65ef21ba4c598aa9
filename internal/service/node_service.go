package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nodemonitor/pkg/interfaces"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/solana"
	"nodemonitor/pkg/store/mysql/model"

	"github.com/google/uuid"
)

// CreateNodeInput fields of a new node
type CreateNodeInput struct {
	Address string
	Name    string
	GPUType string
}

// UpdateNodeInput editable node fields; nil leaves a field unchanged
type UpdateNodeInput struct {
	Name    *string
	GPUType *string
}

// NodeService manages a user's monitored nodes
type NodeService struct {
	nodes    interfaces.NodeRepository
	earnings interfaces.EarningsRepository
	tracking interfaces.TrackingRepository
	scraped  interfaces.ScrapedJobRepository
	tx       interfaces.Transactor
	maxNodes int
	now      func() time.Time
}

// NewNodeService creates a node service
func NewNodeService(
	nodes interfaces.NodeRepository,
	earnings interfaces.EarningsRepository,
	tracking interfaces.TrackingRepository,
	scraped interfaces.ScrapedJobRepository,
	tx interfaces.Transactor,
	maxNodes int,
) *NodeService {
	return &NodeService{
		nodes:    nodes,
		earnings: earnings,
		tracking: tracking,
		scraped:  scraped,
		tx:       tx,
		maxNodes: maxNodes,
		now:      time.Now,
	}
}

// Create registers a node for userID
func (s *NodeService) Create(ctx context.Context, userID string, in CreateNodeInput) (*model.Node, error) {
	address := strings.TrimSpace(in.Address)
	if err := solana.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	count, err := s.nodes.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.maxNodes) {
		return nil, fmt.Errorf("%w: maximum %d nodes per user", ErrNodeLimit, s.maxNodes)
	}

	existing, err := s.nodes.GetByAddress(ctx, userID, address)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateNode
	}

	now := s.now().UTC()
	node := &model.Node{
		ID:        uuid.NewString(),
		UserID:    userID,
		Address:   address,
		Name:      SanitizeName(in.Name),
		GPUType:   SanitizeName(in.GPUType),
		Status:    model.NodeStatusUnknown,
		JobStatus: model.JobStatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	logger.InfoCtx(ctx, "node created, user_id: %s, node_id: %s", userID, node.ID)
	return node, nil
}

// List lists a user's nodes
func (s *NodeService) List(ctx context.Context, userID string) ([]*model.Node, error) {
	nodes, err := s.nodes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*model.Node{}
	}
	return nodes, nil
}

// Get returns one of a user's nodes
func (s *NodeService) Get(ctx context.Context, userID, nodeID string) (*model.Node, error) {
	node, err := s.nodes.Get(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNodeNotFound
	}
	return node, nil
}

// Update edits name and GPU label
func (s *NodeService) Update(ctx context.Context, userID, nodeID string, in UpdateNodeInput) (*model.Node, error) {
	node, err := s.Get(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		node.Name = SanitizeName(*in.Name)
	}
	if in.GPUType != nil {
		node.GPUType = SanitizeName(*in.GPUType)
	}
	node.UpdatedAt = s.now().UTC()
	if err := s.nodes.Save(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Delete removes a node with its tracking metadata, earnings and scraped jobs
func (s *NodeService) Delete(ctx context.Context, userID, nodeID string) error {
	if _, err := s.Get(ctx, userID, nodeID); err != nil {
		return err
	}

	err := s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.earnings.DeleteByNode(txCtx, nodeID); err != nil {
			return fmt.Errorf("failed to delete earnings: %w", err)
		}
		if err := s.tracking.DeleteByNode(txCtx, nodeID); err != nil {
			return fmt.Errorf("failed to delete tracking metadata: %w", err)
		}
		if err := s.scraped.DeleteByNode(txCtx, nodeID); err != nil {
			return fmt.Errorf("failed to delete scraped jobs: %w", err)
		}
		if err := s.nodes.Delete(txCtx, userID, nodeID); err != nil {
			return fmt.Errorf("failed to delete node: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "node deleted, user_id: %s, node_id: %s", userID, nodeID)
	return nil
}

// IsNotFound reports whether err means the node does not exist for the user
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

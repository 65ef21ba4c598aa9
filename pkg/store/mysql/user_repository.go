package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// UserRepository handles user persistence in MySQL
type UserRepository struct {
	ds *Datastore
}

// NewUserRepository creates a new user repository
func NewUserRepository(ds *Datastore) *UserRepository {
	return &UserRepository{ds: ds}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	return r.ds.DB(ctx).Create(user).Error
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.ds.DB(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.ds.DB(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// ListIDsWithNodes returns the IDs of users monitoring at least one node
func (r *UserRepository) ListIDsWithNodes(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.ds.DB(ctx).Model(&Node{}).Distinct("user_id").Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users with nodes: %w", err)
	}
	return ids, nil
}

// Count counts all users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&User{}).Count(&count).Error
	return count, err
}

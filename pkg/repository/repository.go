package repository

import (
	"context"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
)

// Repository persists layouts and user profiles. Missing entries are reported
// with model.ErrLayoutNotFound and model.ErrProfileNotFound.
type Repository interface {
	// GetLayout retrieves a layout by ID
	GetLayout(ctx context.Context, id model.LayoutID) (*model.Layout, error)

	// PutLayout creates or replaces a layout
	PutLayout(ctx context.Context, layout *model.Layout) error

	// ListLayouts returns all stored layouts ordered by ID
	ListLayouts(ctx context.Context) ([]*model.Layout, error)

	// GetProfile retrieves a user profile by ID
	GetProfile(ctx context.Context, id model.ProfileID) (*model.UserProfile, error)

	// PutProfile creates or replaces a user profile
	PutProfile(ctx context.Context, profile *model.UserProfile) error

	Close() error
}

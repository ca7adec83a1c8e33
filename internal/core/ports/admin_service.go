package ports

import (
	"context"

	"github.com/cartelhax/portal/internal/core/domain"
)

// CreateLinkInput carries the fields of a new link. All of them are required,
// description included.
type CreateLinkInput struct {
	Name        string
	Description string
	URL         string
	MinRole     string
	Status      string
	CreatedBy   string
}

// UpdateLinkInput carries an edit-in-place of an existing link. Status is
// deliberately absent: toggling is a separate operation that must not touch
// other fields.
type UpdateLinkInput struct {
	Name        string
	Description string
	URL         string
	MinRole     string
}

// AdminService implements the panel workflows: user role management, custom
// roles, and link management.
type AdminService interface {
	ListUsers(ctx context.Context) (map[string]*domain.Account, error)
	SetUserRole(ctx context.Context, userKey, role string) error
	SetUserRoles(ctx context.Context, userKey string, roles []string) error
	ResetUserLinks(ctx context.Context, userKey string) error

	CreateCustomRole(ctx context.Context, name, value, createdBy string) (domain.CustomRole, error)
	ListCustomRoles(ctx context.Context) (map[string]domain.CustomRole, error)
	DeleteCustomRole(ctx context.Context, value string) error

	CreateLink(ctx context.Context, input CreateLinkInput) (*domain.Link, error)
	ListLinks(ctx context.Context) ([]*domain.Link, error)
	UpdateLink(ctx context.Context, key string, input UpdateLinkInput) (*domain.Link, error)
	ToggleLinkStatus(ctx context.Context, key string) (*domain.Link, error)
	DeleteLink(ctx context.Context, key string) error
}

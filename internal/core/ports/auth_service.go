package ports

import (
	"context"

	"github.com/cartelhax/portal/internal/core/domain"
)

// AuthService implements registration and login against the user directory.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (domain.Identity, error)
	Login(ctx context.Context, username, password string) (domain.Identity, error)
}

package domain

import "errors"

// Workflow errors. All of them are caught at the API boundary and turned
// into status text; none is fatal to the process.
var (
	ErrValidation           = errors.New("missing or empty required field")
	ErrDuplicateUsername    = errors.New("username already registered")
	ErrDuplicateEmail       = errors.New("email already linked to another account")
	ErrUnknownUser          = errors.New("unknown user")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("access forbidden")
	ErrRoleCollision        = errors.New("role value already in use")
	ErrRoleNotFound         = errors.New("custom role not found")
	ErrLinkNotFound         = errors.New("link not found")
	ErrDirectoryUnavailable = errors.New("directory unavailable")
)

package ports

import (
	"context"

	"github.com/cartelhax/portal/internal/core/domain"
)

// ListingView is the access-filtered state of the link directory for one
// session. Total counts every stored link so a member can tell that gated
// content exists even when it is hidden; Visible carries only the links the
// session's roles satisfy, online, newest first. LoggedOut is set when the
// backing account record disappeared and the session must end.
type ListingView struct {
	Identity  domain.Identity `json:"identity"`
	Total     int             `json:"total"`
	Visible   []domain.Link   `json:"visible"`
	LoggedOut bool            `json:"logged_out,omitempty"`
}

// ListingSession is a live, access-filtered subscription to the link
// directory and to the session's own account record. Close must stop all
// deliveries; a closed session never emits again.
type ListingSession interface {
	Updates() <-chan ListingView
	Close()
}

// ListingService derives the visible link set for a session.
type ListingService interface {
	// View computes a one-shot filtered listing from the current snapshots.
	View(ctx context.Context, identity domain.Identity) (ListingView, error)
	// Open starts a live session that re-emits the filtered listing on every
	// relevant directory change.
	Open(ctx context.Context, identity domain.Identity) (ListingSession, error)
}

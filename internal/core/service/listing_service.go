package service

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/core/ports"
)

// ListingService computes the access-filtered link listing for member
// sessions. Live sessions subscribe to the link node, the custom role node,
// and the session's own account record, and always rebuild the view from the
// latest full snapshots — notifications may be coalesced, so nothing here is
// incremental.
type ListingService struct {
	dir ports.Directory
	log zerolog.Logger
}

func NewListingService(dir ports.Directory, log zerolog.Logger) *ListingService {
	return &ListingService{dir: dir, log: log}
}

// View computes a one-shot filtered listing from the current directory state.
func (s *ListingService) View(ctx context.Context, identity domain.Identity) (ports.ListingView, error) {
	identity = identity.Normalize()

	userSnap, err := s.dir.Get(ctx, ports.UserPath(identity.UserKey))
	if err != nil {
		return ports.ListingView{}, err
	}
	if !userSnap.Exists {
		// The backing account is gone: the session is over.
		return ports.ListingView{Identity: identity, LoggedOut: true}, nil
	}
	identity = domain.IdentityFromAccount(identity.UserKey, domain.AccountFromRecord(userSnap.Value))

	linksSnap, err := s.dir.Get(ctx, ports.LinksNode)
	if err != nil {
		return ports.ListingView{}, err
	}
	rolesSnap, err := s.dir.Get(ctx, ports.CustomRolesNode)
	if err != nil {
		return ports.ListingView{}, err
	}

	return buildView(identity, linksSnap, rolesSnap), nil
}

// Open starts a live listing session. The returned session emits a fresh
// view on every links, custom-role, or account change, and a final view with
// LoggedOut set when the account record disappears.
func (s *ListingService) Open(ctx context.Context, identity domain.Identity) (ports.ListingSession, error) {
	view, err := s.View(ctx, identity)
	if err != nil {
		return nil, err
	}

	ls := &listingSession{
		dir:     s.dir,
		log:     s.log,
		updates: make(chan ports.ListingView, 8),
	}
	ls.identity = view.Identity

	ls.emit(view)
	if view.LoggedOut {
		ls.Close()
		return ls, nil
	}

	// Seed the cached snapshots so account-only changes re-filter without a
	// re-read.
	if snap, err := s.dir.Get(ctx, ports.LinksNode); err == nil {
		ls.links = snap
	}
	if snap, err := s.dir.Get(ctx, ports.CustomRolesNode); err == nil {
		ls.roles = snap
	}

	ls.unsubLinks = s.dir.Subscribe(ports.LinksNode, ls.onLinks, ls.onStreamError)
	ls.unsubRoles = s.dir.Subscribe(ports.CustomRolesNode, ls.onRoles, ls.onStreamError)
	ls.unsubUser = s.dir.Subscribe(ports.UserPath(view.Identity.UserKey), ls.onAccount, ls.onStreamError)
	return ls, nil
}

type listingSession struct {
	dir ports.Directory
	log zerolog.Logger

	mu       sync.Mutex
	identity domain.Identity
	links    ports.Snapshot
	roles    ports.Snapshot
	closed   bool

	updates chan ports.ListingView

	unsubLinks func()
	unsubRoles func()
	unsubUser  func()
}

func (ls *listingSession) Updates() <-chan ports.ListingView { return ls.updates }

// Close cancels all subscriptions and closes the update channel. Safe to
// call more than once. The channel is closed while holding the mutex that
// emit sends under: an in-flight bus dispatch that already captured a
// callback either sends before the close or observes closed and drops the
// view, never sends after.
func (ls *listingSession) Close() {
	ls.mu.Lock()
	if ls.closed {
		ls.mu.Unlock()
		return
	}
	ls.closed = true
	unsubs := []func(){ls.unsubLinks, ls.unsubRoles, ls.unsubUser}
	close(ls.updates)
	ls.mu.Unlock()

	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
}

func (ls *listingSession) onLinks(snap ports.Snapshot) {
	ls.mu.Lock()
	ls.links = snap
	view := buildView(ls.identity, ls.links, ls.roles)
	ls.mu.Unlock()
	ls.emit(view)
}

func (ls *listingSession) onRoles(snap ports.Snapshot) {
	ls.mu.Lock()
	ls.roles = snap
	view := buildView(ls.identity, ls.links, ls.roles)
	ls.mu.Unlock()
	ls.emit(view)
}

// onAccount refreshes the in-memory identity when the backing record
// changes. This is how an admin's role edit reaches an already-open session
// without a re-login. A vanished record forces the session out.
func (ls *listingSession) onAccount(snap ports.Snapshot) {
	if !snap.Exists {
		ls.mu.Lock()
		identity := ls.identity
		ls.mu.Unlock()
		ls.emit(ports.ListingView{Identity: identity, LoggedOut: true})
		ls.Close()
		return
	}

	ls.mu.Lock()
	account := domain.AccountFromRecord(snap.Value)
	ls.identity = domain.IdentityFromAccount(ls.identity.UserKey, account)
	view := buildView(ls.identity, ls.links, ls.roles)
	ls.mu.Unlock()
	ls.emit(view)
}

// onStreamError logs and stops: subscriptions do not retry, and the last
// delivered view stays in place on the client.
func (ls *listingSession) onStreamError(err error) {
	ls.log.Error().Err(err).Msg("listing subscription failed")
}

func (ls *listingSession) emit(view ports.ListingView) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return
	}
	// The send stays under the lock so Close cannot slip between the closed
	// check and the send; it never blocks, so the lock is held only briefly.
	select {
	case ls.updates <- view:
	default:
		// Slow consumer: drop the stale view, the next change re-derives
		// everything from a full snapshot anyway.
	}
}

// buildView derives the filtered listing from full snapshots. Missing
// minimum roles default to the lowest built-in role, missing statuses to
// online; gates are resolved against the known custom roles so dangling
// values degrade to least privilege. Visible links are sorted newest first.
func buildView(identity domain.Identity, links, customRoles ports.Snapshot) ports.ListingView {
	known := make(map[string]domain.CustomRole)
	for key, rec := range customRoles.Records() {
		role := domain.CustomRoleFromRecord(key, rec)
		known[role.Value] = role
	}

	view := ports.ListingView{Identity: identity}
	for key, rec := range links.Records() {
		link := domain.LinkFromRecord(key, rec)
		link.MinRole = domain.ResolveRole(link.MinRole, known)
		view.Total++
		if link.VisibleTo(identity.Roles) {
			view.Visible = append(view.Visible, *link)
		}
	}

	sort.Slice(view.Visible, func(i, j int) bool {
		return view.Visible[i].CreatedAt.After(view.Visible[j].CreatedAt)
	})
	return view
}

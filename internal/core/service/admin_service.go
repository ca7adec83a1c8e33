package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/core/ports"
)

// AdminService implements the panel workflows: user role management, custom
// role management, and link management. Writes are direct last-write-wins
// updates with no version check; concurrent panel edits silently overwrite
// each other, same as every other writer of the directory.
type AdminService struct {
	dir ports.Directory
	log zerolog.Logger
}

func NewAdminService(dir ports.Directory, log zerolog.Logger) *AdminService {
	return &AdminService{dir: dir, log: log}
}

// ListUsers returns every account keyed by username key.
func (s *AdminService) ListUsers(ctx context.Context) (map[string]*domain.Account, error) {
	snap, err := s.dir.Get(ctx, ports.UsersNode)
	if err != nil {
		return nil, err
	}
	users := make(map[string]*domain.Account)
	for key, rec := range snap.Records() {
		users[key] = domain.AccountFromRecord(rec)
	}
	return users, nil
}

// SetUserRole replaces the account's role set with a single role.
func (s *AdminService) SetUserRole(ctx context.Context, userKey, role string) error {
	return s.SetUserRoles(ctx, userKey, []string{role})
}

// SetUserRoles replaces the account's role set. An empty set is allowed and
// leaves the account with no roles at all. Both the legacy single-role field
// and the authoritative list are written on every mutation so older readers
// keep working: the single field gets the first of the set, or the lowest
// built-in role when the set is empty.
func (s *AdminService) SetUserRoles(ctx context.Context, userKey string, roles []string) error {
	snap, err := s.dir.Get(ctx, ports.UserPath(userKey))
	if err != nil {
		return err
	}
	if !snap.Exists {
		return domain.ErrUnknownUser
	}

	normalized := domain.NormalizeRoles(roles)
	legacy := domain.RoleOrder[0]
	if len(normalized) > 0 {
		legacy = normalized[0]
	}

	err = s.dir.Update(ctx, ports.UserPath(userKey), map[string]any{
		"role":  legacy,
		"roles": normalized,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_key", userKey).Msg("role update failed")
		return err
	}
	s.log.Info().Str("user_key", userKey).Strs("roles", normalized).Msg("user roles updated")
	return nil
}

// ResetUserLinks clears the per-user link-override record. The record is
// opaque at this level; clearing it is the only operation the panel offers.
func (s *AdminService) ResetUserLinks(ctx context.Context, userKey string) error {
	if err := s.dir.Remove(ctx, ports.UserLinksPath(userKey)); err != nil {
		s.log.Error().Err(err).Str("user_key", userKey).Msg("user links reset failed")
		return err
	}
	s.log.Info().Str("user_key", userKey).Msg("user links reset")
	return nil
}

// CreateCustomRole registers a new admin-defined role. The normalized value
// must not collide with a built-in role or an existing custom role.
func (s *AdminService) CreateCustomRole(ctx context.Context, name, value, createdBy string) (domain.CustomRole, error) {
	name = strings.TrimSpace(name)
	normalized := domain.NormalizeRole(value)
	if name == "" || strings.TrimSpace(value) == "" {
		return domain.CustomRole{}, domain.ErrValidation
	}
	if domain.IsBuiltinRole(normalized) {
		return domain.CustomRole{}, domain.ErrRoleCollision
	}

	snap, err := s.dir.Get(ctx, ports.CustomRolePath(normalized))
	if err != nil {
		return domain.CustomRole{}, err
	}
	if snap.Exists {
		return domain.CustomRole{}, domain.ErrRoleCollision
	}

	role := domain.CustomRole{
		Value:     normalized,
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.dir.Set(ctx, ports.CustomRolePath(normalized), domain.CustomRoleRecord(&role)); err != nil {
		s.log.Error().Err(err).Str("role", normalized).Msg("custom role write failed")
		return domain.CustomRole{}, err
	}
	s.log.Info().Str("role", normalized).Msg("custom role created")
	return role, nil
}

// ListCustomRoles returns every custom role keyed by normalized value.
func (s *AdminService) ListCustomRoles(ctx context.Context) (map[string]domain.CustomRole, error) {
	snap, err := s.dir.Get(ctx, ports.CustomRolesNode)
	if err != nil {
		return nil, err
	}
	roles := make(map[string]domain.CustomRole)
	for key, rec := range snap.Records() {
		role := domain.CustomRoleFromRecord(key, rec)
		roles[role.Value] = role
	}
	return roles, nil
}

// DeleteCustomRole removes a custom role. Accounts and links still carrying
// its value are NOT touched: their gates become unranked exact-match gates
// nobody satisfies until re-pointed. That consequence is accepted — a cascade
// would rewrite records the admin never asked to change.
func (s *AdminService) DeleteCustomRole(ctx context.Context, value string) error {
	normalized := domain.NormalizeRole(value)
	snap, err := s.dir.Get(ctx, ports.CustomRolePath(normalized))
	if err != nil {
		return err
	}
	if !snap.Exists {
		return domain.ErrRoleNotFound
	}
	if err := s.dir.Remove(ctx, ports.CustomRolePath(normalized)); err != nil {
		s.log.Error().Err(err).Str("role", normalized).Msg("custom role delete failed")
		return err
	}
	s.log.Info().Str("role", normalized).Msg("custom role deleted")
	return nil
}

// CreateLink publishes a new link under a fresh opaque key. Every field is
// required, description included.
func (s *AdminService) CreateLink(ctx context.Context, input ports.CreateLinkInput) (*domain.Link, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	url := strings.TrimSpace(input.URL)
	if name == "" || description == "" || url == "" || strings.TrimSpace(input.MinRole) == "" {
		return nil, domain.ErrValidation
	}

	link := &domain.Link{
		Key:         uuid.NewString(),
		Name:        name,
		Description: description,
		URL:         url,
		MinRole:     domain.NormalizeRole(input.MinRole),
		Status:      domain.NormalizeStatus(input.Status),
		CreatedBy:   input.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.dir.Set(ctx, ports.LinkPath(link.Key), domain.LinkRecord(link)); err != nil {
		s.log.Error().Err(err).Str("link", link.Key).Msg("link write failed")
		return nil, err
	}
	s.log.Info().Str("link", link.Key).Str("min_role", link.MinRole).Msg("link published")
	return link, nil
}

// ListLinks returns every link, online or not, newest first. The panel shows
// offline links; only the member listing hides them.
func (s *AdminService) ListLinks(ctx context.Context) ([]*domain.Link, error) {
	snap, err := s.dir.Get(ctx, ports.LinksNode)
	if err != nil {
		return nil, err
	}
	links := make([]*domain.Link, 0, len(snap.Value))
	for key, rec := range snap.Records() {
		links = append(links, domain.LinkFromRecord(key, rec))
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

// UpdateLink edits a link in place: name, description, url, and minimum
// role. Status is untouched; ToggleLinkStatus owns it.
func (s *AdminService) UpdateLink(ctx context.Context, key string, input ports.UpdateLinkInput) (*domain.Link, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	url := strings.TrimSpace(input.URL)
	if name == "" || description == "" || url == "" || strings.TrimSpace(input.MinRole) == "" {
		return nil, domain.ErrValidation
	}

	snap, err := s.dir.Get(ctx, ports.LinkPath(key))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, domain.ErrLinkNotFound
	}

	now := time.Now().UTC()
	err = s.dir.Update(ctx, ports.LinkPath(key), map[string]any{
		"name":        name,
		"description": description,
		"url":         url,
		"minRole":     domain.NormalizeRole(input.MinRole),
		"updatedAt":   now.UnixMilli(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("link", key).Msg("link update failed")
		return nil, err
	}

	link := domain.LinkFromRecord(key, snap.Value)
	link.Name = name
	link.Description = description
	link.URL = url
	link.MinRole = domain.NormalizeRole(input.MinRole)
	link.UpdatedAt = now
	return link, nil
}

// ToggleLinkStatus flips a link between online and offline without touching
// any other field.
func (s *AdminService) ToggleLinkStatus(ctx context.Context, key string) (*domain.Link, error) {
	snap, err := s.dir.Get(ctx, ports.LinkPath(key))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, domain.ErrLinkNotFound
	}

	link := domain.LinkFromRecord(key, snap.Value)
	next := domain.StatusOffline
	if link.Status == domain.StatusOffline {
		next = domain.StatusOnline
	}

	err = s.dir.Update(ctx, ports.LinkPath(key), map[string]any{
		"status":    string(next),
		"updatedAt": time.Now().UTC().UnixMilli(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("link", key).Msg("status toggle failed")
		return nil, err
	}
	link.Status = next
	s.log.Info().Str("link", key).Str("status", string(next)).Msg("link status toggled")
	return link, nil
}

// DeleteLink removes a link.
func (s *AdminService) DeleteLink(ctx context.Context, key string) error {
	snap, err := s.dir.Get(ctx, ports.LinkPath(key))
	if err != nil {
		return err
	}
	if !snap.Exists {
		return domain.ErrLinkNotFound
	}
	if err := s.dir.Remove(ctx, ports.LinkPath(key)); err != nil {
		s.log.Error().Err(err).Str("link", key).Msg("link delete failed")
		return err
	}
	s.log.Info().Str("link", key).Msg("link deleted")
	return nil
}

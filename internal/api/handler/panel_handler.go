package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cartelhax/portal/internal/api/metrics"
	"github.com/cartelhax/portal/internal/api/middleware"
	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/core/ports"
)

// UnlockStore marks and revokes unlocked panel tokens.
type UnlockStore interface {
	Mark(ctx context.Context, tokenID string, ttl time.Duration) error
	Clear(ctx context.Context, tokenID string) error
}

// PanelConfig carries the panel gate settings.
type PanelConfig struct {
	PasswordHash string
	TokenSecret  string
	UnlockTTL    time.Duration
}

// PanelHandler exposes the admin panel: the unlock gate plus user, custom
// role, and link management.
type PanelHandler struct {
	admin   ports.AdminService
	unlocks UnlockStore
	cfg     PanelConfig
	log     zerolog.Logger
}

func NewPanelHandler(admin ports.AdminService, unlocks UnlockStore, cfg PanelConfig, log zerolog.Logger) *PanelHandler {
	if cfg.UnlockTTL <= 0 {
		cfg.UnlockTTL = 24 * time.Hour
	}
	return &PanelHandler{admin: admin, unlocks: unlocks, cfg: cfg, log: log}
}

type unlockRequest struct {
	Password string `json:"password" validate:"required"`
}

type unlockResponse struct {
	Token string `json:"token"`
}

// Unlock verifies the shared panel secret and mints a capability token.
//
// The secret alone is not enough: the caller must also hold an active
// session whose roles meet the admin threshold. The token inherits those
// roles and stays valid until Lock revokes it or the TTL runs out.
//
// @Summary      Unlock the admin panel
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        body  body      unlockRequest  true  "Panel secret"
// @Success      200   {object}  unlockResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /panel/unlock [post]
func (h *PanelHandler) Unlock(c echo.Context) error {
	var req unlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}
	if !domain.IsAdmin(identity.Roles) {
		metrics.PanelUnlocksTotal.WithLabelValues("forbidden").Inc()
		return domain.ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(req.Password)); err != nil {
		metrics.PanelUnlocksTotal.WithLabelValues("bad_password").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "wrong panel password")
	}

	tokenID := uuid.NewString()
	claims := jwt.MapClaims{
		"jti":      tokenID,
		"username": identity.Username,
		"roles":    identity.Roles,
		"exp":      time.Now().Add(h.cfg.UnlockTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.TokenSecret))
	if err != nil {
		return err
	}

	if err := h.unlocks.Mark(c.Request().Context(), tokenID, h.cfg.UnlockTTL); err != nil {
		return domain.ErrDirectoryUnavailable
	}

	h.log.Info().Str("username", identity.Username).Msg("panel unlocked")
	metrics.PanelUnlocksTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, unlockResponse{Token: signed})
}

// Lock revokes the caller's panel token.
//
// @Summary      Lock the admin panel
// @Tags         panel
// @Success      204
// @Router       /panel/lock [post]
func (h *PanelHandler) Lock(c echo.Context) error {
	tokenID, _ := c.Get("panel_token_id").(string)
	if tokenID != "" {
		if err := h.unlocks.Clear(c.Request().Context(), tokenID); err != nil {
			return domain.ErrDirectoryUnavailable
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ── Users ─────────────────────────────────────────────────────────────────

type userEntry struct {
	Key       string    `json:"key"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers returns every registered account.
//
// @Summary      List users
// @Tags         panel
// @Produce      json
// @Success      200  {array}  userEntry
// @Router       /panel/users [get]
func (h *PanelHandler) ListUsers(c echo.Context) error {
	users, err := h.admin.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	entries := make([]userEntry, 0, len(users))
	for key, account := range users {
		entries = append(entries, userEntry{
			Key:       key,
			Username:  account.Username,
			Email:     account.Email,
			Role:      account.Role,
			Roles:     account.EffectiveRoles(),
			CreatedAt: account.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, entries)
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// SetUserRole replaces a user's role set with a single role.
//
// @Summary      Set a user's role
// @Tags         panel
// @Accept       json
// @Param        key   path  string          true  "User key"
// @Param        body  body  setRoleRequest  true  "Role"
// @Success      204
// @Router       /panel/users/{key}/role [put]
func (h *PanelHandler) SetUserRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.admin.SetUserRole(c.Request().Context(), c.Param("key"), req.Role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

// SetUserRoles replaces a user's role set. An empty list leaves the user
// with no roles.
//
// @Summary      Set a user's role set
// @Tags         panel
// @Accept       json
// @Param        key   path  string           true  "User key"
// @Param        body  body  setRolesRequest  true  "Roles"
// @Success      204
// @Router       /panel/users/{key}/roles [put]
func (h *PanelHandler) SetUserRoles(c echo.Context) error {
	var req setRolesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.admin.SetUserRoles(c.Request().Context(), c.Param("key"), req.Roles); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetUserLinks clears a user's link-override record.
//
// @Summary      Reset a user's link overrides
// @Tags         panel
// @Param        key  path  string  true  "User key"
// @Success      204
// @Router       /panel/users/{key}/links [delete]
func (h *PanelHandler) ResetUserLinks(c echo.Context) error {
	if err := h.admin.ResetUserLinks(c.Request().Context(), c.Param("key")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ── Custom roles ──────────────────────────────────────────────────────────

type createRoleRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// CreateCustomRole registers a new custom role.
//
// @Summary      Create a custom role
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        body  body      createRoleRequest  true  "Role definition"
// @Success      201   {object}  domain.CustomRole
// @Failure      409   {object}  map[string]string
// @Router       /panel/roles [post]
func (h *PanelHandler) CreateCustomRole(c echo.Context) error {
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	createdBy, _ := c.Get("panel_user").(string)
	role, err := h.admin.CreateCustomRole(c.Request().Context(), req.Name, req.Value, createdBy)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

// ListCustomRoles returns every custom role.
//
// @Summary      List custom roles
// @Tags         panel
// @Produce      json
// @Success      200  {array}  domain.CustomRole
// @Router       /panel/roles [get]
func (h *PanelHandler) ListCustomRoles(c echo.Context) error {
	roles, err := h.admin.ListCustomRoles(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]domain.CustomRole, 0, len(roles))
	for _, role := range roles {
		out = append(out, role)
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteCustomRole removes a custom role. References to it are not cascaded.
//
// @Summary      Delete a custom role
// @Tags         panel
// @Param        value  path  string  true  "Role value"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /panel/roles/{value} [delete]
func (h *PanelHandler) DeleteCustomRole(c echo.Context) error {
	if err := h.admin.DeleteCustomRole(c.Request().Context(), c.Param("value")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ── Links ─────────────────────────────────────────────────────────────────

type linkRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	MinRole     string `json:"min_role" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=online offline"`
}

// CreateLink publishes a new link.
//
// @Summary      Publish a link
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        body  body      linkRequest  true  "Link"
// @Success      201   {object}  domain.Link
// @Router       /panel/links [post]
func (h *PanelHandler) CreateLink(c echo.Context) error {
	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	createdBy, _ := c.Get("panel_user").(string)
	link, err := h.admin.CreateLink(c.Request().Context(), ports.CreateLinkInput{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		MinRole:     req.MinRole,
		Status:      req.Status,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, link)
}

// ListLinks returns every link, offline ones included.
//
// @Summary      List links
// @Tags         panel
// @Produce      json
// @Success      200  {array}  domain.Link
// @Router       /panel/links [get]
func (h *PanelHandler) ListLinks(c echo.Context) error {
	links, err := h.admin.ListLinks(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, links)
}

// UpdateLink edits a link in place. Status is not part of the edit; use the
// status toggle.
//
// @Summary      Edit a link
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        key   path      string       true  "Link key"
// @Param        body  body      linkRequest  true  "Link fields"
// @Success      200   {object}  domain.Link
// @Failure      404   {object}  map[string]string
// @Router       /panel/links/{key} [put]
func (h *PanelHandler) UpdateLink(c echo.Context) error {
	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	link, err := h.admin.UpdateLink(c.Request().Context(), c.Param("key"), ports.UpdateLinkInput{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		MinRole:     req.MinRole,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, link)
}

// ToggleLinkStatus flips a link between online and offline.
//
// @Summary      Toggle a link's status
// @Tags         panel
// @Produce      json
// @Param        key  path      string  true  "Link key"
// @Success      200  {object}  domain.Link
// @Failure      404  {object}  map[string]string
// @Router       /panel/links/{key}/status [patch]
func (h *PanelHandler) ToggleLinkStatus(c echo.Context) error {
	link, err := h.admin.ToggleLinkStatus(c.Request().Context(), c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, link)
}

// DeleteLink removes a link.
//
// @Summary      Delete a link
// @Tags         panel
// @Param        key  path  string  true  "Link key"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /panel/links/{key} [delete]
func (h *PanelHandler) DeleteLink(c echo.Context) error {
	if err := h.admin.DeleteLink(c.Request().Context(), c.Param("key")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

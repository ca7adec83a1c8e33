package domain

import "time"

// LinkStatus is the publication state of a link.
type LinkStatus string

const (
	StatusOnline  LinkStatus = "online"
	StatusOffline LinkStatus = "offline"
)

// NormalizeStatus defaults anything that is not explicitly offline to online,
// mirroring how link records have historically been read.
func NormalizeStatus(raw string) LinkStatus {
	if raw == string(StatusOffline) {
		return StatusOffline
	}
	return StatusOnline
}

// Link is a published external resource gated behind a minimum role.
type Link struct {
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url"`
	MinRole     string     `json:"min_role"`
	Status      LinkStatus `json:"status"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty"`
}

// VisibleTo reports whether an ordinary (non-admin) session holding the given
// roles should see the link: the gate must be satisfied and the link online.
func (l *Link) VisibleTo(roles []string) bool {
	if l.Status != StatusOnline {
		return false
	}
	return CanAccess(roles, l.MinRole)
}

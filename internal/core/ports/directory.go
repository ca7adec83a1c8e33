package ports

import "context"

// Directory node names. A one-segment path addresses the whole node; a
// two-segment path ("users/<key>") addresses a single record.
const (
	UsersNode       = "users"
	EmailsNode      = "emails"
	LinksNode       = "links"
	CustomRolesNode = "customRoles"
	UserLinksNode   = "userLinks"
)

// UserPath returns the record path for a username key.
func UserPath(key string) string { return UsersNode + "/" + key }

// EmailPath returns the record path for an email key.
func EmailPath(key string) string { return EmailsNode + "/" + key }

// LinkPath returns the record path for a link key.
func LinkPath(key string) string { return LinksNode + "/" + key }

// CustomRolePath returns the record path for a custom role value.
func CustomRolePath(value string) string { return CustomRolesNode + "/" + value }

// UserLinksPath returns the record path of a user's link-override record.
func UserLinksPath(key string) string { return UserLinksNode + "/" + key }

// Snapshot is the result of reading a directory path. For a record path,
// Value is the record itself; for a node path, Value maps record key to
// record. Exists is false (and Value nil) when nothing is stored there.
type Snapshot struct {
	Exists bool
	Value  map[string]any
}

// Records returns the node snapshot as key → record, tolerating records of
// unexpected shape by skipping them.
func (s Snapshot) Records() map[string]map[string]any {
	out := make(map[string]map[string]any, len(s.Value))
	for key, raw := range s.Value {
		if rec, ok := raw.(map[string]any); ok {
			out[key] = rec
		}
	}
	return out
}

// Directory is the keyed record store holding all persistent portal state.
//
// Subscribe delivers the latest full snapshot of the path as of delivery
// time; intermediate states may be coalesced, so consumers must always
// re-derive their state from the delivered snapshot, never incrementally.
// The returned function cancels the subscription; after it returns no
// further callbacks run. A subscription that fails reports once through
// onError and stops; it does not retry.
type Directory interface {
	Get(ctx context.Context, path string) (Snapshot, error)
	Set(ctx context.Context, path string, value map[string]any) error
	Update(ctx context.Context, path string, partial map[string]any) error
	Remove(ctx context.Context, path string) error
	Subscribe(path string, onChange func(Snapshot), onError func(error)) (unsubscribe func())
}

package domain

import "time"

// Directory records are schema-less maps (the store keeps whatever was last
// written). The decoders below are deliberately tolerant: missing or
// wrongly-typed fields degrade to zero values instead of failing, because a
// record written by an older client must still render.

// AccountRecord encodes an account for storage.
func AccountRecord(a *Account) map[string]any {
	roles := a.Roles
	if roles == nil {
		roles = []string{}
	}
	return map[string]any{
		"username":     a.Username,
		"email":        a.Email,
		"passwordHash": a.PasswordHash,
		"role":         a.Role,
		"roles":        roles,
		"createdAt":    a.CreatedAt.UnixMilli(),
	}
}

// AccountFromRecord decodes a stored account record.
func AccountFromRecord(value map[string]any) *Account {
	return &Account{
		Username:     recordString(value, "username"),
		Email:        recordString(value, "email"),
		PasswordHash: recordString(value, "passwordHash"),
		Role:         recordString(value, "role"),
		Roles:        recordStrings(value, "roles"),
		CreatedAt:    recordTime(value, "createdAt"),
	}
}

// EmailIndexRecord encodes the email uniqueness record.
func EmailIndexRecord(idx *EmailIndex) map[string]any {
	return map[string]any{
		"username":    idx.Username,
		"usernameKey": idx.UsernameKey,
		"createdAt":   idx.CreatedAt.UnixMilli(),
	}
}

// LinkRecord encodes a link for storage.
func LinkRecord(l *Link) map[string]any {
	rec := map[string]any{
		"name":        l.Name,
		"description": l.Description,
		"url":         l.URL,
		"minRole":     l.MinRole,
		"status":      string(l.Status),
		"createdBy":   l.CreatedBy,
		"createdAt":   l.CreatedAt.UnixMilli(),
	}
	if !l.UpdatedAt.IsZero() {
		rec["updatedAt"] = l.UpdatedAt.UnixMilli()
	}
	return rec
}

// LinkFromRecord decodes a stored link record. Missing minimum role defaults
// to the lowest built-in role and missing status to online.
func LinkFromRecord(key string, value map[string]any) *Link {
	return &Link{
		Key:         key,
		Name:        recordString(value, "name"),
		Description: recordString(value, "description"),
		URL:         recordString(value, "url"),
		MinRole:     NormalizeRole(recordString(value, "minRole")),
		Status:      NormalizeStatus(recordString(value, "status")),
		CreatedBy:   recordString(value, "createdBy"),
		CreatedAt:   recordTime(value, "createdAt"),
		UpdatedAt:   recordTime(value, "updatedAt"),
	}
}

// CustomRoleRecord encodes a custom role for storage.
func CustomRoleRecord(r *CustomRole) map[string]any {
	return map[string]any{
		"value":     r.Value,
		"name":      r.Name,
		"createdBy": r.CreatedBy,
		"createdAt": r.CreatedAt.UnixMilli(),
	}
}

// CustomRoleFromRecord decodes a stored custom role record.
func CustomRoleFromRecord(key string, value map[string]any) CustomRole {
	role := CustomRole{
		Value:     NormalizeRole(recordString(value, "value")),
		Name:      recordString(value, "name"),
		CreatedBy: recordString(value, "createdBy"),
		CreatedAt: recordTime(value, "createdAt"),
	}
	if role.Value == "" {
		role.Value = key
	}
	return role
}

func recordString(value map[string]any, field string) string {
	s, _ := value[field].(string)
	return s
}

func recordStrings(value map[string]any, field string) []string {
	switch v := value[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func recordTime(value map[string]any, field string) time.Time {
	var ms int64
	switch v := value[field].(type) {
	case int64:
		ms = v
	case int32:
		ms = int64(v)
	case int:
		ms = int64(v)
	case float64:
		ms = int64(v)
	default:
		return time.Time{}
	}
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

package shared

import (
	"context"
	"sort"
	"strings"
)

// Identity is the per-request authorization snapshot: the authenticated
// subject plus its resolved roles and effective permission set. It is
// built once by the authentication middleware and is immutable afterwards;
// concurrent requests never share an instance.
type Identity struct {
	subjectID   int64
	username    string
	roles       []string
	permissions map[string]struct{}
}

// NewIdentity constructs an Identity. Role and permission slices are
// copied; permission names are normalized to lower case.
func NewIdentity(subjectID int64, username string, roles, permissions []string) *Identity {
	id := &Identity{
		subjectID:   subjectID,
		username:    username,
		roles:       make([]string, 0, len(roles)),
		permissions: make(map[string]struct{}, len(permissions)),
	}
	id.roles = append(id.roles, roles...)
	for _, p := range permissions {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		id.permissions[p] = struct{}{}
	}
	return id
}

// SubjectID returns the authenticated subject's ID.
func (id *Identity) SubjectID() int64 {
	return id.subjectID
}

// Username returns the authenticated subject's username.
func (id *Identity) Username() string {
	return id.username
}

// Roles returns a copy of the resolved role names.
func (id *Identity) Roles() []string {
	out := make([]string, len(id.roles))
	copy(out, id.roles)
	return out
}

// HasPermission reports whether the effective permission set contains name.
func (id *Identity) HasPermission(name string) bool {
	if id == nil {
		return false
	}
	_, ok := id.permissions[strings.TrimSpace(strings.ToLower(name))]
	return ok
}

// Permissions returns the effective permission names, sorted.
func (id *Identity) Permissions() []string {
	out := make([]string, 0, len(id.permissions))
	for p := range id.permissions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. It returns nil
// when the request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

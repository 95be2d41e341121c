package rbac

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Resolver expands a subject into its current roles and effective
// permission set. Every call reads the latest assignment state; results
// are never cached across requests, trading some latency for immediate
// consistency with role and grant changes.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveRoles loads the set of roles assigned to a subject, deduplicated
// by role ID. An empty set is not an error.
func (r *Resolver) ResolveRoles(ctx context.Context, subjectID int64) ([]Role, error) {
	roles, err := r.store.RolesForSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, role := range roles {
		if _, ok := seen[role.ID]; ok {
			continue
		}
		seen[role.ID] = struct{}{}
		out = append(out, role)
	}
	return out, nil
}

// Aggregate unions the permission grants of all roles into a deduplicated,
// sorted list of permission names. Grants are fetched per role concurrently;
// a role with zero grants contributes nothing, and an empty result for a
// non-empty role set is valid. The result is deterministic regardless of
// role iteration order.
func (r *Resolver) Aggregate(ctx context.Context, roles []Role) ([]string, error) {
	set := make(map[string]struct{})
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, role := range roles {
		roleID := role.ID
		g.Go(func() error {
			perms, err := r.store.PermissionsForRole(ctx, roleID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range perms {
				name := strings.TrimSpace(strings.ToLower(p.Name))
				if name == "" {
					continue
				}
				set[name] = struct{}{}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

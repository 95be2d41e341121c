package rbac

import (
	"sort"
	"strings"

	"github.com/assetgrid/assetgrid/internal/shared"
)

// Mode selects how a multi-permission requirement combines.
type Mode int

const (
	// ModeAll requires every listed permission.
	ModeAll Mode = iota
	// ModeAny requires at least one listed permission.
	ModeAny
)

// DenyReason distinguishes an unauthenticated call from a permission
// shortfall.
type DenyReason int

const (
	// DenyNone means the decision allowed the request.
	DenyNone DenyReason = iota
	// DenyUnauthenticated means no identity was attached to the request.
	DenyUnauthenticated
	// DenyInsufficientPermissions means the identity lacks required permissions.
	DenyInsufficientPermissions
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Missing []string
}

// allow is the affirmative decision.
var allow = Decision{Allowed: true}

// Authorize decides whether the identity satisfies the required
// permissions. It is a pure function: it mutates neither the identity nor
// storage, and callers own all side effects (responses, logging, metrics).
//
// ModeAll denies with exactly the missing permissions; ModeAny denies with
// the full requirement since none matched. An empty requirement allows,
// since no restriction was requested. A nil identity denies with
// DenyUnauthenticated regardless of the requirement's content, except the
// empty requirement which stays an Allow.
func Authorize(id *shared.Identity, required []string, mode Mode) Decision {
	normalized := normalizePermissions(required)
	if len(normalized) == 0 {
		return allow
	}
	if id == nil {
		return Decision{Reason: DenyUnauthenticated}
	}

	switch mode {
	case ModeAny:
		for _, p := range normalized {
			if id.HasPermission(p) {
				return allow
			}
		}
		return Decision{Reason: DenyInsufficientPermissions, Missing: normalized}
	default:
		var missing []string
		for _, p := range normalized {
			if !id.HasPermission(p) {
				missing = append(missing, p)
			}
		}
		if len(missing) == 0 {
			return allow
		}
		return Decision{Reason: DenyInsufficientPermissions, Missing: missing}
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	sort.Strings(normalized)
	return normalized
}

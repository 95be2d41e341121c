package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/assetgrid/assetgrid/internal/authn"
	"github.com/assetgrid/assetgrid/internal/observability"
	"github.com/assetgrid/assetgrid/internal/platform/httpx"
	"github.com/assetgrid/assetgrid/internal/shared"
)

// Middleware wires the authorization pipeline for HTTP handlers.
//
// Authenticate runs the full pipeline once per request: verify credential,
// load subject, resolve roles, aggregate permissions, attach the identity.
// RequireAll/RequireAny consult the gate against that attached snapshot and
// perform no storage lookups of their own, so every check within a request
// observes one consistent permission set.
type Middleware struct {
	Authn    *authn.Service
	Resolver *Resolver
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Audit    *shared.AuditLogger

	// BypassSubject, when non-zero, authenticates credential-less requests
	// as the given subject. The config layer refuses to set it in
	// production; the pipeline from identity load onward still runs, so a
	// disabled or permission-less bypass subject is denied as usual.
	BypassSubject int64
}

// Authenticate is the authentication middleware. Any failure before the
// identity is attached short-circuits with an authentication error and the
// downstream handler never runs.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := BearerToken(r)
		var subjectID int64
		switch {
		case token != "":
			claims, err := m.Authn.VerifyCredential(ctx, token)
			if err != nil {
				m.respondAuthError(w, r, err)
				return
			}
			subjectID = claims.SubjectID
		case m.BypassSubject > 0:
			m.logWarn("authentication bypass in effect", slog.Int64("subject_id", m.BypassSubject))
			subjectID = m.BypassSubject
		default:
			m.respondAuthError(w, r, authn.NewError(authn.CodeMissingCredential, "authentication required", nil))
			return
		}

		subject, err := m.Authn.LoadSubject(ctx, subjectID)
		if err != nil {
			m.respondAuthError(w, r, err)
			return
		}

		roles, err := m.Resolver.ResolveRoles(ctx, subject.ID)
		if err != nil {
			m.respondAuthError(w, r, err)
			return
		}
		perms, err := m.Resolver.Aggregate(ctx, roles)
		if err != nil {
			m.respondAuthError(w, r, err)
			return
		}

		roleNames := make([]string, 0, len(roles))
		for _, role := range roles {
			roleNames = append(roleNames, role.Name)
		}
		identity := shared.NewIdentity(subject.ID, subject.Username, roleNames, perms)
		m.Metrics.RecordAuthn("ok")

		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(ctx, identity)))
	})
}

// RequireAll ensures the identity holds every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(ModeAll, perms)
}

// RequireAny ensures the identity holds at least one listed permission.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(ModeAny, perms)
}

func (m Middleware) require(mode Mode, perms []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			decision := Authorize(identity, perms, mode)
			if decision.Allowed {
				m.Metrics.RecordDecision(true)
				next.ServeHTTP(w, r)
				return
			}
			m.Metrics.RecordDecision(false)
			if decision.Reason == DenyUnauthenticated {
				httpx.Fail(w, http.StatusUnauthorized, "authentication required")
				return
			}
			m.recordDenial(r, identity, decision)
			httpx.FailWithMissing(w, "insufficient permissions", decision.Missing)
		})
	}
}

func (m Middleware) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	ae := authn.AsError(err)
	if ae.Code == authn.CodeStorageFailure {
		m.logError("authorization pipeline", slog.Any("error", ae), slog.String("path", r.URL.Path))
	}
	m.Metrics.RecordAuthn(string(ae.Code))
	httpx.Fail(w, ae.Code.HTTPStatus(), ae.Message)
}

func (m Middleware) recordDenial(r *http.Request, identity *shared.Identity, decision Decision) {
	if m.Audit == nil || identity == nil {
		return
	}
	ev := shared.AuthEvent{
		SubjectID: identity.SubjectID(),
		Username:  identity.Username(),
		Event:     shared.AuditAccessDenied,
		Detail: map[string]any{
			"path":    r.URL.Path,
			"method":  r.Method,
			"missing": decision.Missing,
		},
	}
	if err := m.Audit.Record(r.Context(), ev); err != nil {
		m.logWarn("record denial audit", slog.Any("error", err))
	}
}

func (m Middleware) logWarn(msg string, args ...any) {
	if m.Logger != nil {
		m.Logger.Warn(msg, args...)
	}
}

func (m Middleware) logError(msg string, args ...any) {
	if m.Logger != nil {
		m.Logger.Error(msg, args...)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// It returns "" for a missing, empty, or non-bearer header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

package authn

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/assetgrid/assetgrid/internal/platform/httpx"
	"github.com/assetgrid/assetgrid/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. audit may be nil.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountLoginRoutes registers the credential exchange route. The router
// puts it behind the strict login rate limit.
func (h *Handler) MountLoginRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

// MountLogoutRoutes registers logout outside the login rate limit, so a
// burst of failed logins from an address cannot block its revocations.
// Logout still needs a valid bearer token; it verifies the credential
// itself so the revocation works even for permission-less subjects.
func (h *Handler) MountLogoutRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
}

// MountProtectedRoutes registers routes that run behind the authentication
// middleware.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	SubjectID int64     `json:"subjectId"`
	Username  string    `json:"username"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	subject, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.recordAudit(r, 0, req.Username, shared.AuditLoginFailed, nil)
			httpx.Fail(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logError("authenticate", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, claims, err := h.service.IssueToken(subject)
	if err != nil {
		h.logError("issue token", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.recordAudit(r, subject.ID, subject.Username, shared.AuditLoginSucceeded, map[string]any{"token_id": claims.TokenID})
	httpx.OK(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		SubjectID: subject.ID,
		Username:  subject.Username,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	claims, err := h.service.VerifyCredential(r.Context(), token)
	if err != nil {
		ae := AsError(err)
		httpx.Fail(w, ae.Code.HTTPStatus(), ae.Message)
		return
	}
	if err := h.service.RevokeToken(r.Context(), claims); err != nil {
		h.logError("revoke token", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.recordAudit(r, claims.SubjectID, claims.Username, shared.AuditTokenRevoked, map[string]any{"token_id": claims.TokenID})
	httpx.OK(w, http.StatusOK, nil)
}

type meResponse struct {
	SubjectID   int64    `json:"subjectId"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	httpx.OK(w, http.StatusOK, meResponse{
		SubjectID:   identity.SubjectID(),
		Username:    identity.Username(),
		Roles:       identity.Roles(),
		Permissions: identity.Permissions(),
	})
}

func (h *Handler) recordAudit(r *http.Request, subjectID int64, username, event string, detail map[string]any) {
	if h.audit == nil {
		return
	}
	if detail == nil {
		detail = map[string]any{}
	}
	detail["ip"] = r.RemoteAddr
	detail["user_agent"] = r.UserAgent()
	if err := h.audit.Record(r.Context(), shared.AuthEvent{
		SubjectID: subjectID,
		Username:  username,
		Event:     event,
		Detail:    detail,
	}); err != nil {
		h.logWarn("record auth audit", slog.Any("error", err))
	}
}

func (h *Handler) logWarn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}

func (h *Handler) logError(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Error(msg, args...)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

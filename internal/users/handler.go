package users

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/assetgrid/assetgrid/internal/platform/httpx"
	"github.com/assetgrid/assetgrid/internal/rbac"
	"github.com/assetgrid/assetgrid/internal/shared"
)

// Handler manages user administration endpoints: listing accounts and
// managing their role assignments.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	rbacService *rbac.Service
	validator   *validator.Validate
	rbac        rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacService *rbac.Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbacService: rbacService, validator: validator.New(), rbac: mw}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermUsersRead)).Get("/", h.listUsers)
	r.Route("/{userID}/roles", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermUsersRead)).Get("/", h.listUserRoles)
		r.With(h.rbac.RequireAny(shared.PermUsersManageRoles)).Post("/", h.assignRole)
		r.With(h.rbac.RequireAny(shared.PermUsersManageRoles)).Delete("/{roleID}", h.removeRole)
	})
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type assignRoleRequest struct {
	RoleID int64 `json:"roleId" validate:"required,gt=0"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	list, pagination, err := h.service.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	views := make([]userView, 0, len(list))
	for _, u := range list {
		views = append(views, userView{ID: u.ID, Username: u.Username, Name: u.Name, IsActive: u.IsActive})
	}
	httpx.OKWithMeta(w, http.StatusOK, views, pagination)
}

func (h *Handler) listUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	assigned, err := h.rbacService.SubjectRoles(r.Context(), userID)
	if err != nil {
		h.respondRBACError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(assigned))
	for _, role := range assigned {
		out = append(out, map[string]any{"id": role.ID, "name": role.Name, "description": role.Description})
	}
	httpx.OK(w, http.StatusOK, out)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "roleId is required")
		return
	}
	if err := h.rbacService.AssignRole(r.Context(), userID, req.RoleID); err != nil {
		h.respondRBACError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.rbacService.RemoveRole(r.Context(), userID, roleID); err != nil {
		h.respondRBACError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondRBACError(w http.ResponseWriter, err error) {
	if errors.Is(err, rbac.ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "role not found")
		return
	}
	h.logger.Error("user role management", slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, "internal error")
}

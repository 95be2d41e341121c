package licenses

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/assetgrid/assetgrid/internal/platform/httpx"
	"github.com/assetgrid/assetgrid/internal/rbac"
	"github.com/assetgrid/assetgrid/internal/shared"
)

// RepositoryPort defines data access methods for licenses.
type RepositoryPort interface {
	ListLicenses(ctx context.Context) ([]License, error)
	GetLicense(ctx context.Context, id int64) (License, error)
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]License, error)
}

// Handler serves read-only license endpoints.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
	rbac   rbac.Middleware
	now    func() time.Time
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, rbac: mw, now: time.Now}
}

// MountRoutes registers license routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLicensesRead))
		r.Get("/", h.listLicenses)
		r.Get("/expiring", h.listExpiring)
		r.Get("/{licenseID}", h.getLicense)
	})
}

type licenseView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Vendor    string    `json:"vendor"`
	Seats     int       `json:"seats"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) listLicenses(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListLicenses(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, toLicenseViews(list))
}

func (h *Handler) listExpiring(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = 30
	}
	cutoff := h.now().AddDate(0, 0, days)
	list, err := h.repo.ExpiringBefore(r.Context(), cutoff)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, toLicenseViews(list))
}

func (h *Handler) getLicense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "licenseID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid license id")
		return
	}
	license, err := h.repo.GetLicense(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, toLicenseView(license))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "license not found")
		return
	}
	if h.logger != nil {
		h.logger.Error("licenses handler", slog.Any("error", err))
	}
	httpx.Fail(w, http.StatusInternalServerError, "internal error")
}

func toLicenseView(l License) licenseView {
	return licenseView{ID: l.ID, Name: l.Name, Vendor: l.Vendor, Seats: l.Seats, ExpiresAt: l.ExpiresAt}
}

func toLicenseViews(list []License) []licenseView {
	views := make([]licenseView, 0, len(list))
	for _, l := range list {
		views = append(views, toLicenseView(l))
	}
	return views
}

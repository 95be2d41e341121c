package assets

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

// Handler manages device inventory endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: mw}
}

// MountRoutes registers device routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermDevicesRead)).Get("/", h.listDevices)
	r.With(h.rbac.RequireAny(shared.PermDevicesCreate)).Post("/", h.createDevice)
	r.Route("/{deviceID}", func(r chi.Router) {
		r.With(h.rbac.RequireAny(shared.PermDevicesRead)).Get("/", h.getDevice)
		r.With(h.rbac.RequireAny(shared.PermDevicesUpdate)).Put("/", h.updateDevice)
		r.With(h.rbac.RequireAny(shared.PermDevicesDelete)).Delete("/", h.deleteDevice)
	})
}

type deviceView struct {
	ID           int64  `json:"id"`
	AssetTag     string `json:"assetTag"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	SerialNumber string `json:"serialNumber"`
	Status       string `json:"status"`
	AssignedTo   int64  `json:"assignedTo,omitempty"`
}

type deviceForm struct {
	AssetTag     string `json:"assetTag" validate:"required,min=2,max=64"`
	Name         string `json:"name" validate:"required,min=2,max=128"`
	Category     string `json:"category" validate:"max=64"`
	SerialNumber string `json:"serialNumber" validate:"max=128"`
	Status       string `json:"status" validate:"omitempty,oneof=available assigned retired"`
	AssignedTo   int64  `json:"assignedTo" validate:"gte=0"`
}

type deviceUpdateForm struct {
	Name         string `json:"name" validate:"required,min=2,max=128"`
	Category     string `json:"category" validate:"max=64"`
	SerialNumber string `json:"serialNumber" validate:"max=128"`
	Status       string `json:"status" validate:"required,oneof=available assigned retired"`
	AssignedTo   int64  `json:"assignedTo" validate:"gte=0"`
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	list, pagination, err := h.service.ListDevices(r.Context(), page, perPage)
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]deviceView, 0, len(list))
	for _, d := range list {
		views = append(views, toDeviceView(d))
	}
	httpx.OKWithMeta(w, http.StatusOK, views, pagination)
}

func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceID(w, r)
	if !ok {
		return
	}
	device, err := h.service.GetDevice(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, toDeviceView(device))
}

func (h *Handler) createDevice(w http.ResponseWriter, r *http.Request) {
	var form deviceForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}
	device, err := h.service.CreateDevice(r.Context(), Device{
		AssetTag:     form.AssetTag,
		Name:         form.Name,
		Category:     form.Category,
		SerialNumber: form.SerialNumber,
		Status:       form.Status,
		AssignedTo:   form.AssignedTo,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, toDeviceView(device))
}

func (h *Handler) updateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceID(w, r)
	if !ok {
		return
	}
	var form deviceUpdateForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed")
		return
	}

	// Retiring a device is destructive for reporting purposes, so it also
	// needs the delete permission. The gate runs against the identity
	// snapshot attached at the start of the request.
	if form.Status == StatusRetired {
		identity := shared.IdentityFromContext(r.Context())
		if decision := rbac.Authorize(identity, []string{shared.PermDevicesDelete}, rbac.ModeAll); !decision.Allowed {
			httpx.FailWithMissing(w, "insufficient permissions", decision.Missing)
			return
		}
	}

	device, err := h.service.UpdateDevice(r.Context(), Device{
		ID:           id,
		Name:         form.Name,
		Category:     form.Category,
		SerialNumber: form.SerialNumber,
		Status:       form.Status,
		AssignedTo:   form.AssignedTo,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, toDeviceView(device))
}

func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDevice(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) deviceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "deviceID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid device id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "device not found")
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, "asset tag already exists")
	default:
		if h.logger != nil {
			h.logger.Error("assets handler", slog.Any("error", err))
		}
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func toDeviceView(d Device) deviceView {
	return deviceView{
		ID:           d.ID,
		AssetTag:     d.AssetTag,
		Name:         d.Name,
		Category:     d.Category,
		SerialNumber: d.SerialNumber,
		Status:       d.Status,
		AssignedTo:   d.AssignedTo,
	}
}

package assets

import (
	"context"
	"errors"
	"strings"

	"github.com/assetgrid/assetgrid/internal/shared"
)

// RepositoryPort defines data access methods for devices.
type RepositoryPort interface {
	ListDevices(ctx context.Context, limit, offset int) ([]Device, error)
	CountDevices(ctx context.Context) (int, error)
	GetDevice(ctx context.Context, id int64) (Device, error)
	CreateDevice(ctx context.Context, d Device) (Device, error)
	UpdateDevice(ctx context.Context, d Device) (Device, error)
	DeleteDevice(ctx context.Context, id int64) error
}

// Service handles device inventory logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListDevices returns one page of devices plus pagination metadata.
func (s *Service) ListDevices(ctx context.Context, page, perPage int) ([]Device, shared.Pagination, error) {
	total, err := s.repo.CountDevices(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListDevices(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, pagination, nil
}

// GetDevice fetches a single device.
func (s *Service) GetDevice(ctx context.Context, id int64) (Device, error) {
	return s.repo.GetDevice(ctx, id)
}

// CreateDevice validates and inserts a device.
func (s *Service) CreateDevice(ctx context.Context, d Device) (Device, error) {
	d.AssetTag = strings.TrimSpace(d.AssetTag)
	d.Name = strings.TrimSpace(d.Name)
	if d.AssetTag == "" || d.Name == "" {
		return Device{}, errors.New("assets: asset tag and name required")
	}
	if d.Status == "" {
		d.Status = StatusAvailable
	}
	if !validStatus(d.Status) {
		return Device{}, errors.New("assets: invalid status")
	}
	return s.repo.CreateDevice(ctx, d)
}

// UpdateDevice validates and updates a device.
func (s *Service) UpdateDevice(ctx context.Context, d Device) (Device, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return Device{}, errors.New("assets: name required")
	}
	if !validStatus(d.Status) {
		return Device{}, errors.New("assets: invalid status")
	}
	return s.repo.UpdateDevice(ctx, d)
}

// DeleteDevice removes a device.
func (s *Service) DeleteDevice(ctx context.Context, id int64) error {
	return s.repo.DeleteDevice(ctx, id)
}

func validStatus(status string) bool {
	switch status {
	case StatusAvailable, StatusAssigned, StatusRetired:
		return true
	}
	return false
}

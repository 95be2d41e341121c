package assets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetgrid/assetgrid/internal/shared"
)

type mockDeviceRepo struct {
	devices map[int64]Device
	nextID  int64

	// Error injection
	listError   error
	createError error
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[int64]Device), nextID: 1}
}

func (m *mockDeviceRepo) ListDevices(ctx context.Context, limit, offset int) ([]Device, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDeviceRepo) CountDevices(ctx context.Context) (int, error) {
	if m.listError != nil {
		return 0, m.listError
	}
	return len(m.devices), nil
}

func (m *mockDeviceRepo) GetDevice(ctx context.Context, id int64) (Device, error) {
	d, ok := m.devices[id]
	if !ok {
		return Device{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *mockDeviceRepo) CreateDevice(ctx context.Context, d Device) (Device, error) {
	if m.createError != nil {
		return Device{}, m.createError
	}
	for _, existing := range m.devices {
		if existing.AssetTag == d.AssetTag {
			return Device{}, shared.ErrDuplicate
		}
	}
	d.ID = m.nextID
	m.devices[d.ID] = d
	m.nextID++
	return d, nil
}

func (m *mockDeviceRepo) UpdateDevice(ctx context.Context, d Device) (Device, error) {
	existing, ok := m.devices[d.ID]
	if !ok {
		return Device{}, shared.ErrNotFound
	}
	d.AssetTag = existing.AssetTag
	m.devices[d.ID] = d
	return d, nil
}

func (m *mockDeviceRepo) DeleteDevice(ctx context.Context, id int64) error {
	if _, ok := m.devices[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.devices, id)
	return nil
}

var _ RepositoryPort = (*mockDeviceRepo)(nil)

func TestCreateDeviceDefaultsStatus(t *testing.T) {
	service := NewService(newMockDeviceRepo())

	device, err := service.CreateDevice(context.Background(), Device{AssetTag: " AG-0001 ", Name: " ThinkPad "})
	require.NoError(t, err)
	assert.Equal(t, "AG-0001", device.AssetTag)
	assert.Equal(t, "ThinkPad", device.Name)
	assert.Equal(t, StatusAvailable, device.Status)
}

func TestCreateDeviceValidation(t *testing.T) {
	service := NewService(newMockDeviceRepo())
	ctx := context.Background()

	_, err := service.CreateDevice(ctx, Device{Name: "no tag"})
	require.Error(t, err)

	_, err = service.CreateDevice(ctx, Device{AssetTag: "AG-1", Name: "bad status", Status: "scrapped"})
	require.Error(t, err)
}

func TestCreateDeviceDuplicateTag(t *testing.T) {
	service := NewService(newMockDeviceRepo())
	ctx := context.Background()

	_, err := service.CreateDevice(ctx, Device{AssetTag: "AG-1", Name: "first"})
	require.NoError(t, err)
	_, err = service.CreateDevice(ctx, Device{AssetTag: "AG-1", Name: "second"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateDeviceStatusTransition(t *testing.T) {
	repo := newMockDeviceRepo()
	service := NewService(repo)
	ctx := context.Background()

	device, err := service.CreateDevice(ctx, Device{AssetTag: "AG-1", Name: "ThinkPad"})
	require.NoError(t, err)

	device.Status = StatusAssigned
	device.AssignedTo = 7
	updated, err := service.UpdateDevice(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, updated.Status)
	assert.EqualValues(t, 7, updated.AssignedTo)

	updated.Status = "lost"
	_, err = service.UpdateDevice(ctx, updated)
	require.Error(t, err)
}

func TestListDevicesPagination(t *testing.T) {
	repo := newMockDeviceRepo()
	service := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := service.CreateDevice(ctx, Device{AssetTag: string(rune('A' + i)), Name: "dev"})
		require.NoError(t, err)
	}

	_, pagination, err := service.ListDevices(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 5, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestListDevicesStorageError(t *testing.T) {
	repo := newMockDeviceRepo()
	repo.listError = errors.New("connection reset")
	service := NewService(repo)

	_, _, err := service.ListDevices(context.Background(), 1, 20)
	require.Error(t, err)
}

func TestDeleteDeviceNotFound(t *testing.T) {
	service := NewService(newMockDeviceRepo())
	err := service.DeleteDevice(context.Background(), 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

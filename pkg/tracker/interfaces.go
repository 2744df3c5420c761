package tracker

import (
	"context"
	"time"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_tracker.go -package=mocks . Geocoder,TokenVerifier,Directory,PresenceStore,LocationStore

type Geocoder interface {
	Lookup(ctx context.Context, latitude, longitude float64) *string
}

type TokenVerifier interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// Directory is the identity side of the CRUD collaborator. Lookups return
// nil without error when the record does not exist.
type Directory interface {
	FindManager(ctx context.Context, managerID string) (*models.Manager, error)
	FindDevice(ctx context.Context, deviceID string) (*models.Device, error)
	GetEmployeeActiveByID(ctx context.Context, employeeID string) (*models.Employee, error)
	TouchDevice(ctx context.Context, deviceID string, at time.Time) error
}

type PresenceStore interface {
	GetPresence(ctx context.Context, employeeID string) (*models.Presence, error)
	UpsertPresence(ctx context.Context, presence *models.Presence) error
	ListStaleOnline(ctx context.Context, cutoff time.Time) ([]string, error)
}

type LocationStore interface {
	PersistLocationSample(ctx context.Context, sample *models.Location) error
	PersistDeviceStatus(ctx context.Context, status *models.DeviceStatus) error
	GetLatestLocation(ctx context.Context, employeeID string) (*models.Location, error)
	GetLocationHistory(ctx context.Context, employeeID string, query models.HistoryQuery) ([]models.Location, error)
	ListEmployeesWithLatestLocationAndPresence(ctx context.Context, search string, page, limit int) (*models.EmployeePage, error)
}

// Publisher delivers events to every manager session. Publish must not block.
type Publisher interface {
	Publish(evt Event)
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/db"
	"liyu1981.xyz/field-presence-service/pkg/models"
)

const (
	DefaultPageLimit    = 20
	MaxPageLimit        = 100
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmployeeInactive = errors.New("employee is inactive")
)

// Store is the gorm backed persistence for employees, managers, devices,
// presence and the append-only location and device status logs.
type Store struct {
	Db     db.DB
	logger *zap.Logger
}

func New(database db.DB) *Store {
	return &Store{
		Db:     database,
		logger: common.GetLoggerWith(common.LoggerNameStore),
	}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.Db.Conn.WithContext(ctx)
}

func firstOrNil[T any](tx *gorm.DB, out *T) (*T, error) {
	if err := tx.First(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	return s.conn(ctx).Create(employee).Error
}

func (s *Store) CreateManager(ctx context.Context, manager *models.Manager) error {
	if manager.ID == "" {
		manager.ID = uuid.NewString()
	}
	if manager.CreatedAt.IsZero() {
		manager.CreatedAt = time.Now().UTC()
	}
	return s.conn(ctx).Create(manager).Error
}

func (s *Store) SetEmployeeActive(ctx context.Context, employeeID string, active bool) error {
	return s.conn(ctx).Model(&models.Employee{}).Where("id = ?", employeeID).Update("is_active", active).Error
}

func (s *Store) SetManagerActive(ctx context.Context, managerID string, active bool) error {
	return s.conn(ctx).Model(&models.Manager{}).Where("id = ?", managerID).Update("is_active", active).Error
}

func (s *Store) DeactivateDevice(ctx context.Context, deviceID string) error {
	return s.conn(ctx).Model(&models.Device{}).Where("id = ?", deviceID).Update("is_active", false).Error
}

// RegisterDevice creates or reactivates the device of an employee on a platform.
func (s *Store) RegisterDevice(ctx context.Context, employeeID, platform, pushToken string) (*models.Device, error) {
	var device models.Device
	now := time.Now().UTC()

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		employee, err := firstOrNil(tx.Where("id = ?", employeeID), &models.Employee{})
		if err != nil {
			return err
		}
		if employee == nil {
			return ErrEmployeeNotFound
		}
		if !employee.IsActive {
			return ErrEmployeeInactive
		}

		existing, err := firstOrNil(tx.Where("employee_id = ? AND platform = ?", employeeID, platform), &models.Device{})
		if err != nil {
			return err
		}

		if existing == nil {
			device = models.Device{
				ID:         uuid.NewString(),
				EmployeeID: employeeID,
				Platform:   platform,
				PushToken:  pushToken,
				LastSeenAt: &now,
				IsActive:   true,
				CreatedAt:  now,
			}
			return tx.Create(&device).Error
		}

		device = *existing
		device.PushToken = pushToken
		device.LastSeenAt = &now
		device.IsActive = true
		return tx.Model(&models.Device{}).Where("id = ?", device.ID).Updates(map[string]any{
			"push_token":   pushToken,
			"last_seen_at": now,
			"is_active":    true,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Registered device",
		zap.String("employee_id", employeeID),
		zap.String("device_id", device.ID),
		zap.String("platform", platform),
	)
	return &device, nil
}

func (s *Store) FindManager(ctx context.Context, managerID string) (*models.Manager, error) {
	return firstOrNil(s.conn(ctx).Where("id = ?", managerID), &models.Manager{})
}

// FindDevice returns the device with its parent employee loaded, or nil.
func (s *Store) FindDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	return firstOrNil(s.conn(ctx).Preload("Employee").Where("id = ?", deviceID), &models.Device{})
}

func (s *Store) GetEmployeeActiveByID(ctx context.Context, employeeID string) (*models.Employee, error) {
	return firstOrNil(s.conn(ctx).Where("id = ? AND is_active = ?", employeeID, true), &models.Employee{})
}

func (s *Store) TouchDevice(ctx context.Context, deviceID string, at time.Time) error {
	return s.conn(ctx).Model(&models.Device{}).Where("id = ?", deviceID).Update("last_seen_at", at.UTC()).Error
}

func (s *Store) GetPresence(ctx context.Context, employeeID string) (*models.Presence, error) {
	return firstOrNil(s.conn(ctx).Where("employee_id = ?", employeeID), &models.Presence{})
}

func (s *Store) UpsertPresence(ctx context.Context, presence *models.Presence) error {
	presence.LastSeenAt = presence.LastSeenAt.UTC()
	presence.UpdatedAt = time.Now().UTC()
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_online", "last_seen_at", "updated_at"}),
	}).Create(presence).Error
}

// ListStaleOnline returns ids of online employees last seen before cutoff.
func (s *Store) ListStaleOnline(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := s.conn(ctx).Model(&models.Presence{}).
		Where("is_online = ? AND last_seen_at < ?", true, cutoff.UTC()).
		Order("last_seen_at").
		Pluck("employee_id", &ids).Error
	return ids, err
}

func (s *Store) ListOnline(ctx context.Context) ([]models.Presence, error) {
	var online []models.Presence
	err := s.conn(ctx).Where("is_online = ?", true).Order("employee_id").Find(&online).Error
	return online, err
}

func (s *Store) PersistLocationSample(ctx context.Context, sample *models.Location) error {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	return s.conn(ctx).Create(sample).Error
}

func (s *Store) PersistDeviceStatus(ctx context.Context, status *models.DeviceStatus) error {
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	return s.conn(ctx).Create(status).Error
}

func (s *Store) GetLatestLocation(ctx context.Context, employeeID string) (*models.Location, error) {
	return firstOrNil(
		s.conn(ctx).Where("employee_id = ?", employeeID).Order("timestamp DESC").Order("received_at DESC"),
		&models.Location{},
	)
}

func (s *Store) GetLatestDeviceStatus(ctx context.Context, employeeID string) (*models.DeviceStatus, error) {
	return firstOrNil(
		s.conn(ctx).Where("employee_id = ?", employeeID).Order("timestamp DESC").Order("received_at DESC"),
		&models.DeviceStatus{},
	)
}

// GetLocationHistory returns samples newest first.
func (s *Store) GetLocationHistory(ctx context.Context, employeeID string, query models.HistoryQuery) ([]models.Location, error) {
	limit := clampLimit(query.Limit, DefaultHistoryLimit, MaxHistoryLimit)

	tx := s.conn(ctx).Where("employee_id = ?", employeeID)
	if query.From != nil {
		tx = tx.Where("timestamp >= ?", query.From.UTC())
	}
	if query.To != nil {
		tx = tx.Where("timestamp <= ?", query.To.UTC())
	}

	history := []models.Location{}
	err := tx.Order("timestamp DESC").Limit(limit).Find(&history).Error
	return history, err
}

// ListEmployeesWithLatestLocationAndPresence pages through active employees
// ordered by full name, optionally filtered on name or department.
func (s *Store) ListEmployeesWithLatestLocationAndPresence(ctx context.Context, search string, page, limit int) (*models.EmployeePage, error) {
	limit = clampLimit(limit, DefaultPageLimit, MaxPageLimit)
	if page < 1 {
		page = 1
	}

	search = strings.TrimSpace(search)
	filtered := func() *gorm.DB {
		tx := s.conn(ctx).Model(&models.Employee{}).Where("is_active = ?", true)
		if search != "" {
			pattern := "%" + strings.ToLower(search) + "%"
			tx = tx.Where("LOWER(full_name) LIKE ? OR LOWER(department) LIKE ?", pattern, pattern)
		}
		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}

	employees := []models.Employee{}
	err := filtered().Preload("Presence").
		Order("full_name").Order("id").
		Offset((page - 1) * limit).Limit(limit).
		Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	ids := common.Mapper(employees, func(e models.Employee) string { return e.ID })

	locations, err := latestPerEmployee[models.Location](s.conn(ctx), "locations", ids)
	if err != nil {
		return nil, fmt.Errorf("latest locations: %w", err)
	}
	statuses, err := latestPerEmployee[models.DeviceStatus](s.conn(ctx), "device_statuses", ids)
	if err != nil {
		return nil, fmt.Errorf("latest device statuses: %w", err)
	}

	overviews := make([]models.EmployeeOverview, len(employees))
	for i, e := range employees {
		overviews[i] = models.EmployeeOverview{
			Employee:           e,
			LatestLocation:     locations[e.ID],
			LatestDeviceStatus: statuses[e.ID],
		}
	}

	return &models.EmployeePage{
		Employees: overviews,
		Pagination: models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

type employeeRecord interface {
	models.Location | models.DeviceStatus
}

func latestPerEmployee[T employeeRecord](conn *gorm.DB, table string, employeeIDs []string) (map[string]*T, error) {
	latest := make(map[string]*T, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return latest, nil
	}

	var rows []T
	err := conn.Table(table+" AS t").
		Where("t.employee_id IN ?", employeeIDs).
		Where("t.timestamp = (SELECT MAX(x.timestamp) FROM " + table + " AS x WHERE x.employee_id = t.employee_id)").
		Order("t.received_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		id := recordEmployeeID(&rows[i])
		if _, seen := latest[id]; !seen {
			latest[id] = &rows[i]
		}
	}
	return latest, nil
}

func recordEmployeeID[T employeeRecord](row *T) string {
	switch r := any(row).(type) {
	case *models.Location:
		return r.EmployeeID
	case *models.DeviceStatus:
		return r.EmployeeID
	}
	return ""
}

func clampLimit(limit, fallback, maxLimit int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

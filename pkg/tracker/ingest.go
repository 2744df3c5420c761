package tracker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/models"
)

// Sample is one location report as submitted by a device.
type Sample struct {
	Latitude     *float64           `json:"latitude"`
	Longitude    *float64           `json:"longitude"`
	Accuracy     *float64           `json:"accuracy,omitempty"`
	Altitude     *float64           `json:"altitude,omitempty"`
	Speed        *float64           `json:"speed,omitempty"`
	Heading      *float64           `json:"heading,omitempty"`
	Battery      *int               `json:"battery,omitempty"`
	Timestamp    *time.Time         `json:"timestamp,omitempty"`
	DeviceStatus *DeviceStatusInput `json:"deviceStatus,omitempty"`
}

type DeviceStatusInput struct {
	BatteryLevel        *int            `json:"batteryLevel,omitempty"`
	BatteryState        *string         `json:"batteryState,omitempty"`
	IsOnline            *bool           `json:"isOnline,omitempty"`
	ConnectionType      *string         `json:"connectionType,omitempty"`
	SignalStrength      *int            `json:"signalStrength,omitempty"`
	ConnectivityResults json.RawMessage `json:"connectivityResults,omitempty"`
	Timestamp           *time.Time      `json:"timestamp,omitempty"`
}

// Pipeline turns raw samples into durable location records:
// validate, geocode, persist, refresh presence, broadcast.
type Pipeline struct {
	locations    LocationStore
	geocoder     Geocoder
	presence     *PresenceMachine
	maxClockSkew time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewPipeline(locations LocationStore, geocoder Geocoder, presence *PresenceMachine, maxClockSkew time.Duration) *Pipeline {
	return &Pipeline{
		locations:    locations,
		geocoder:     geocoder,
		presence:     presence,
		maxClockSkew: maxClockSkew,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       common.GetCategoryLogger(common.LoggerNameTracker, common.LoggerCategoryIngest),
	}
}

// Ingest stores one sample. Invalid samples are rejected before anything is
// written. Geocoding is best effort and never fails the call; a failure to
// store the sample always does. Once the sample is stored the call succeeds
// even if the presence refresh fails.
func (p *Pipeline) Ingest(ctx context.Context, employeeID string, sample *Sample) (*models.Location, error) {
	if err := validateSample(sample); err != nil {
		p.logger.Info("Rejected location sample", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	latitude, longitude := *sample.Latitude, *sample.Longitude

	var address *string
	if p.geocoder != nil {
		address = p.geocoder.Lookup(ctx, latitude, longitude)
	}

	receivedAt := p.now()
	loc := &models.Location{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Latitude:   latitude,
		Longitude:  longitude,
		Accuracy:   sample.Accuracy,
		Altitude:   sample.Altitude,
		Speed:      sample.Speed,
		Heading:    sample.Heading,
		Battery:    sample.Battery,
		Address:    address,
		Timestamp:  p.effectiveTimestamp(employeeID, sample.Timestamp, receivedAt),
		ReceivedAt: receivedAt,
	}
	if status := sample.DeviceStatus; status != nil {
		if loc.Battery == nil {
			loc.Battery = status.BatteryLevel
		}
		loc.BatteryState = status.BatteryState
	}

	if err := p.locations.PersistLocationSample(ctx, loc); err != nil {
		p.logger.Error("Failed to persist location sample", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, &PersistenceError{Op: "persist location sample", Err: err}
	}

	p.logger.Debug("Location sample stored",
		zap.String("employee_id", employeeID),
		zap.String("location_id", loc.ID),
		zap.Bool("geocoded", address != nil),
	)

	// the sample is stored; failing here would make the device resend it
	if _, err := p.presence.OnLocationIngested(ctx, employeeID, locationEvent(loc, sample.DeviceStatus)); err != nil {
		p.logger.Error("Failed to refresh presence after location sample",
			zap.String("employee_id", employeeID),
			zap.String("location_id", loc.ID),
			zap.Error(err),
		)
	}
	return loc, nil
}

// SubmitDeviceStatus stores a device health report, counts it as activity
// and broadcasts it.
func (p *Pipeline) SubmitDeviceStatus(ctx context.Context, employeeID, deviceID string, input *DeviceStatusInput) (*models.DeviceStatus, error) {
	if err := validateDeviceStatus(input); err != nil {
		return nil, err
	}

	receivedAt := p.now()
	status := &models.DeviceStatus{
		ID:             uuid.NewString(),
		EmployeeID:     employeeID,
		DeviceID:       deviceID,
		BatteryLevel:   input.BatteryLevel,
		BatteryState:   input.BatteryState,
		IsOnline:       input.IsOnline,
		ConnectionType: input.ConnectionType,
		SignalStrength: input.SignalStrength,
		Timestamp:      p.effectiveTimestamp(employeeID, input.Timestamp, receivedAt),
		ReceivedAt:     receivedAt,
	}
	if len(input.ConnectivityResults) > 0 {
		status.ConnectivityResults = string(input.ConnectivityResults)
	}

	if err := p.locations.PersistDeviceStatus(ctx, status); err != nil {
		p.logger.Error("Failed to persist device status", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, &PersistenceError{Op: "persist device status", Err: err}
	}

	if _, err := p.presence.OnActivity(ctx, employeeID, deviceStatusEvent(status)); err != nil {
		p.logger.Error("Failed to refresh presence after device status",
			zap.String("employee_id", employeeID),
			zap.String("device_status_id", status.ID),
			zap.Error(err),
		)
	}
	return status, nil
}

// effectiveTimestamp trusts the device clock unless it is too far ahead of
// the server, in which case the server time wins.
func (p *Pipeline) effectiveTimestamp(employeeID string, claimed *time.Time, receivedAt time.Time) time.Time {
	if claimed == nil || claimed.IsZero() {
		return receivedAt
	}
	ts := claimed.UTC()
	if ts.Sub(receivedAt) > p.maxClockSkew {
		p.logger.Warn("Clamped device timestamp from the future",
			zap.String("employee_id", employeeID),
			zap.Time("claimed", ts),
			zap.Time("received_at", receivedAt),
		)
		return receivedAt
	}
	return ts
}

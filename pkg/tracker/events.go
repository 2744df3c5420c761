package tracker

import (
	"encoding/json"
	"time"

	"liyu1981.xyz/field-presence-service/pkg/models"
)

type EventName string

const (
	EventInitialData        EventName = "initialData"
	EventLocationUpdate     EventName = "locationUpdate"
	EventPresenceUpdate     EventName = "presenceUpdate"
	EventDeviceStatusUpdate EventName = "deviceStatusUpdate"
	EventEmployeeUpdate     EventName = "employeeUpdate"
	EventHeartbeatAck       EventName = "heartbeatAck"
	EventError              EventName = "error"
)

// Event is one frame on the real-time channel.
type Event struct {
	Name       EventName `json:"event"`
	EmployeeID string    `json:"-"`
	Data       any       `json:"data"`
}

type PresencePayload struct {
	EmployeeID string           `json:"employeeId"`
	Employee   *EmployeeProfile `json:"employee,omitempty"`
	IsOnline   bool             `json:"isOnline"`
	LastSeenAt time.Time        `json:"lastSeenAt"`
}

// EmployeeProfile is what a dashboard needs to render an employee it has
// not listed yet.
type EmployeeProfile struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
	AvatarURL  string `json:"avatarUrl"`
}

type LocationView struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy"`
	Altitude  *float64  `json:"altitude"`
	Speed     *float64  `json:"speed"`
	Heading   *float64  `json:"heading"`
	Battery   *int      `json:"battery"`
	Address   *string   `json:"address"`
	Timestamp time.Time `json:"timestamp"`
}

type LocationPayload struct {
	EmployeeID   string             `json:"employeeId"`
	Location     LocationView       `json:"location"`
	DeviceStatus *DeviceStatusInput `json:"deviceStatus,omitempty"`
}

type DeviceStatusPayload struct {
	EmployeeID   string               `json:"employeeId"`
	DeviceStatus *models.DeviceStatus `json:"deviceStatus"`
	Timestamp    time.Time            `json:"timestamp"`
}

type EmployeeUpdatePayload struct {
	EmployeeID string           `json:"employeeId"`
	Location   *models.Location `json:"location"`
	Presence   *models.Presence `json:"presence"`
}

type InitialDataPayload struct {
	Employees []models.EmployeeOverview `json:"employees"`
}

type HeartbeatAckPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func presenceEvent(p *models.Presence, employee *models.Employee) Event {
	payload := PresencePayload{
		EmployeeID: p.EmployeeID,
		IsOnline:   p.IsOnline,
		LastSeenAt: p.LastSeenAt,
	}
	if employee != nil {
		payload.Employee = &EmployeeProfile{
			ID:         employee.ID,
			FullName:   employee.FullName,
			Department: employee.Department,
			AvatarURL:  employee.AvatarURL,
		}
	}
	return Event{Name: EventPresenceUpdate, EmployeeID: p.EmployeeID, Data: payload}
}

func locationEvent(loc *models.Location, status *DeviceStatusInput) Event {
	return Event{
		Name:       EventLocationUpdate,
		EmployeeID: loc.EmployeeID,
		Data: LocationPayload{
			EmployeeID: loc.EmployeeID,
			Location: LocationView{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				Accuracy:  loc.Accuracy,
				Altitude:  loc.Altitude,
				Speed:     loc.Speed,
				Heading:   loc.Heading,
				Battery:   loc.Battery,
				Address:   loc.Address,
				Timestamp: loc.Timestamp,
			},
			DeviceStatus: status,
		},
	}
}

func deviceStatusEvent(status *models.DeviceStatus) Event {
	return Event{
		Name:       EventDeviceStatusUpdate,
		EmployeeID: status.EmployeeID,
		Data: DeviceStatusPayload{
			EmployeeID:   status.EmployeeID,
			DeviceStatus: status,
			Timestamp:    status.Timestamp,
		},
	}
}

func ErrorEvent(message string) Event {
	return Event{Name: EventError, Data: ErrorPayload{Message: message}}
}

// Encode renders the event as a {"event", "data"} frame.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

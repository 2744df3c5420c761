package models

import "time"

type Employee struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	FullName   string    `gorm:"index" json:"fullName"`
	Department string    `json:"department"`
	AvatarURL  string    `json:"avatarUrl"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`

	Presence *Presence `gorm:"foreignKey:EmployeeID;references:ID" json:"presence,omitempty"`
}

type Manager struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Company   string    `json:"company"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Device is one per (employee, platform) pair. Devices are deactivated, never deleted.
type Device struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	EmployeeID string     `gorm:"uniqueIndex:idx_device_employee_platform" json:"employeeId"`
	Platform   string     `gorm:"uniqueIndex:idx_device_employee_platform" json:"platform"`
	PushToken  string     `json:"pushToken,omitempty"`
	LastSeenAt *time.Time `json:"lastSeenAt"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`

	Employee Employee `gorm:"foreignKey:EmployeeID;references:ID" json:"-"`
}

// Presence holds exactly one row per employee.
type Presence struct {
	EmployeeID string    `gorm:"primaryKey" json:"employeeId"`
	IsOnline   bool      `gorm:"index" json:"isOnline"`
	LastSeenAt time.Time `gorm:"index" json:"lastSeenAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Location is an immutable, append-only GPS sample.
type Location struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	EmployeeID   string    `gorm:"index:idx_location_employee_time,priority:1" json:"employeeId"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     *float64  `json:"accuracy"`
	Altitude     *float64  `json:"altitude"`
	Speed        *float64  `json:"speed"`
	Heading      *float64  `json:"heading"`
	Battery      *int      `json:"battery"`
	BatteryState *string   `json:"batteryState,omitempty"`
	Address      *string   `json:"address"`
	Timestamp    time.Time `gorm:"index:idx_location_employee_time,priority:2" json:"timestamp"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// DeviceStatus is an immutable snapshot of device health reported by the app.
type DeviceStatus struct {
	ID                  string    `gorm:"primaryKey" json:"id"`
	EmployeeID          string    `gorm:"index:idx_status_employee_time,priority:1" json:"employeeId"`
	DeviceID            string    `json:"deviceId"`
	BatteryLevel        *int      `json:"batteryLevel"`
	BatteryState        *string   `json:"batteryState"`
	IsOnline            *bool     `json:"isOnline"`
	ConnectionType      *string   `json:"connectionType"`
	SignalStrength      *int      `json:"signalStrength"`
	ConnectivityResults string    `json:"connectivityResults,omitempty"`
	Timestamp           time.Time `gorm:"index:idx_status_employee_time,priority:2" json:"timestamp"`
	ReceivedAt          time.Time `json:"receivedAt"`
}

// EmployeeOverview is one row of the manager dashboard listing.
type EmployeeOverview struct {
	Employee
	LatestLocation     *Location     `json:"latestLocation"`
	LatestDeviceStatus *DeviceStatus `json:"latestDeviceStatus"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type EmployeePage struct {
	Employees  []EmployeeOverview `json:"employees"`
	Pagination Pagination         `json:"pagination"`
}

type HistoryQuery struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

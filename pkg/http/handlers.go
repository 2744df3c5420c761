package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/store"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
)

type DeviceRequest struct {
	EmployeeID string `json:"employeeId" zog:"employeeId"`
	Platform   string `json:"platform"`
	PushToken  string `json:"pushToken" zog:"pushToken"`
}

var deviceRequestSchema = z.Struct(z.Shape{
	"EmployeeID": z.String().Required(),
	"Platform":   z.String().Required().OneOf([]string{"ios", "android", "web"}),
	"PushToken":  z.String(),
})

func (rs *RestfulServer) RegisterDevice(c *gin.Context) {
	var req DeviceRequest
	if issues := deviceRequestSchema.Parse(zhttp.Request(c.Request), &req); len(issues) > 0 {
		badRequest(c, issues)
		return
	}

	device, err := rs.Store.RegisterDevice(c.Request.Context(), req.EmployeeID, req.Platform, req.PushToken)
	switch {
	case errors.Is(err, store.ErrEmployeeNotFound):
		errorJSON(c, http.StatusNotFound, "Employee not found")
		return
	case errors.Is(err, store.ErrEmployeeInactive):
		errorJSON(c, http.StatusForbidden, "Employee is inactive")
		return
	case err != nil:
		fail(c, &tracker.PersistenceError{Op: "register device", Err: err})
		return
	}

	tokens, err := rs.Tokens.GenerateTokenPair(req.EmployeeID, auth.RoleEmployee, device.ID)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{"device": device, "tokens": tokens})
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" zog:"refreshToken"`
}

var refreshRequestSchema = z.Struct(z.Shape{
	"RefreshToken": z.String().Required(),
})

// RefreshToken swaps a refresh token for a new pair, as long as the identity
// behind it is still allowed in.
func (rs *RestfulServer) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if issues := refreshRequestSchema.Parse(zhttp.Request(c.Request), &req); len(issues) > 0 {
		badRequest(c, issues)
		return
	}

	claims, tokens, err := rs.Tokens.Refresh(req.RefreshToken)
	if err != nil {
		reason := tracker.ReasonInvalidToken
		if errors.Is(err, auth.ErrTokenExpired) {
			reason = tracker.ReasonExpiredToken
		}
		fail(c, &tracker.AuthError{Reason: reason})
		return
	}

	if _, err := rs.Tracker.Authenticate(c.Request.Context(), tracker.Credentials{
		Token: tokens.AccessToken,
		Role:  claims.Role,
	}); err != nil {
		fail(c, err)
		return
	}

	ok(c, tokens)
}

func (rs *RestfulServer) Me(c *gin.Context) {
	identity := identityFrom(c)
	if identity.Role == auth.RoleManager {
		ok(c, gin.H{"role": identity.Role, "user": identity.Manager})
		return
	}
	ok(c, gin.H{"role": identity.Role, "user": identity.Device.Employee, "deviceId": identity.DeviceID})
}

func (rs *RestfulServer) PostLocation(c *gin.Context) {
	var sample tracker.Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		errorJSON(c, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	loc, err := rs.Tracker.Ingest(c.Request.Context(), identityFrom(c), &sample)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"locationId": loc.ID,
		"timestamp":  loc.Timestamp,
		"address":    loc.Address,
	})
}

type DeviceStatusRequest struct {
	DeviceStatus *tracker.DeviceStatusInput `json:"deviceStatus"`
}

func (rs *RestfulServer) PostDeviceStatus(c *gin.Context) {
	var req DeviceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	status, err := rs.Tracker.SubmitDeviceStatus(c.Request.Context(), identityFrom(c), req.DeviceStatus)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, status)
}

func (rs *RestfulServer) PostHeartbeat(c *gin.Context) {
	evt, err := rs.Tracker.Heartbeat(c.Request.Context(), identityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, evt.Data)
}

type HistoryRequest struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Limit int       `json:"limit"`
}

var historyRequestSchema = z.Struct(z.Shape{
	"From":  z.Time(),
	"To":    z.Time(),
	"Limit": z.Int().GTE(1).LTE(store.MaxHistoryLimit),
})

func (req HistoryRequest) query() models.HistoryQuery {
	query := models.HistoryQuery{Limit: req.Limit}
	if !req.From.IsZero() {
		from := req.From.UTC()
		query.From = &from
	}
	if !req.To.IsZero() {
		to := req.To.UTC()
		query.To = &to
	}
	return query
}

func (rs *RestfulServer) GetMyLocationHistory(c *gin.Context) {
	rs.locationHistory(c, identityFrom(c).EmployeeID)
}

func (rs *RestfulServer) GetEmployeeLocationHistory(c *gin.Context) {
	rs.locationHistory(c, c.Param("employee_id"))
}

func (rs *RestfulServer) locationHistory(c *gin.Context, employeeID string) {
	var req HistoryRequest
	if issues := historyRequestSchema.Parse(zhttp.Request(c.Request), &req); len(issues) > 0 {
		badRequest(c, issues)
		return
	}

	history, err := rs.Tracker.LocationHistory(c.Request.Context(), employeeID, req.query())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, history)
}

type EmployeeListRequest struct {
	Search string `json:"search"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

var employeeListRequestSchema = z.Struct(z.Shape{
	"Search": z.String().Trim().Max(100),
	"Page":   z.Int().GTE(1).Default(1),
	"Limit":  z.Int().GTE(1).LTE(store.MaxPageLimit).Default(store.DefaultPageLimit),
})

func (rs *RestfulServer) ListEmployees(c *gin.Context) {
	var req EmployeeListRequest
	if issues := employeeListRequestSchema.Parse(zhttp.Request(c.Request), &req); len(issues) > 0 {
		badRequest(c, issues)
		return
	}

	page, err := rs.Tracker.ListEmployees(c.Request.Context(), req.Search, req.Page, req.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

type EmployeeRequest struct {
	ID         string `json:"id" zog:"id"`
	FullName   string `json:"fullName" zog:"fullName"`
	Department string `json:"department"`
	AvatarURL  string `json:"avatarUrl" zog:"avatarUrl"`
}

var employeeRequestSchema = z.Struct(z.Shape{
	"ID":         z.String().Trim(),
	"FullName":   z.String().Trim().Required().Min(1),
	"Department": z.String().Trim().Required().Min(1),
	"AvatarURL":  z.String().Trim(),
})

func (rs *RestfulServer) CreateEmployee(c *gin.Context) {
	var req EmployeeRequest
	if issues := employeeRequestSchema.Parse(zhttp.Request(c.Request), &req); len(issues) > 0 {
		badRequest(c, issues)
		return
	}

	employee := &models.Employee{
		ID:         req.ID,
		FullName:   req.FullName,
		Department: req.Department,
		AvatarURL:  req.AvatarURL,
		IsActive:   true,
	}
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}

	if existing, err := rs.Store.GetEmployeeActiveByID(c.Request.Context(), employee.ID); err != nil {
		fail(c, &tracker.PersistenceError{Op: "get employee", Err: err})
		return
	} else if existing != nil {
		errorJSON(c, http.StatusConflict, "Employee already exists")
		return
	}

	if err := rs.Store.CreateEmployee(c.Request.Context(), employee); err != nil {
		fail(c, &tracker.PersistenceError{Op: "create employee", Err: err})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": employee})
}

func (rs *RestfulServer) GetEmployee(c *gin.Context) {
	employee, found := rs.activeEmployee(c)
	if !found {
		return
	}
	ok(c, employee)
}

func (rs *RestfulServer) GetEmployeePresence(c *gin.Context) {
	employee, found := rs.activeEmployee(c)
	if !found {
		return
	}

	presence, err := rs.Tracker.Presence.Current(c.Request.Context(), employee.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, presence)
}

func (rs *RestfulServer) GetLatestLocation(c *gin.Context) {
	loc, err := rs.Tracker.LatestLocation(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		fail(c, err)
		return
	}
	if loc == nil {
		errorJSON(c, http.StatusNotFound, "No location data found for this employee")
		return
	}
	ok(c, loc)
}

func (rs *RestfulServer) activeEmployee(c *gin.Context) (*models.Employee, bool) {
	employee, err := rs.Store.GetEmployeeActiveByID(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		fail(c, &tracker.PersistenceError{Op: "get employee", Err: err})
		return nil, false
	}
	if employee == nil {
		errorJSON(c, http.StatusNotFound, "Employee not found")
		return nil, false
	}
	return employee, true
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"Rate":  z.Float64().Required().GT(0),
	"Burst": z.Int().Required().GTE(1),
})

// PostLimiter overrides the submission rate of one device.
func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req LimiterRequest
	if issues := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); len(issues) > 0 {
		badRequest(c, issues)
		return
	}

	rs.SetLimiter(deviceID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) DeactivateDevice(c *gin.Context) {
	if err := rs.Store.DeactivateDevice(c.Request.Context(), c.Param("device_id")); err != nil {
		fail(c, &tracker.PersistenceError{Op: "deactivate device", Err: err})
		return
	}
	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

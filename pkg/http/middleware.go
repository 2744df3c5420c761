package http

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
)

const identityKey = "identity"

// RequireRole authenticates the bearer token as one of roles and stores the
// identity on the context.
func (rs *RestfulServer) RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")

		var err error
		for _, role := range roles {
			var identity *tracker.Identity
			identity, err = rs.Tracker.Authenticate(c.Request.Context(), tracker.Credentials{Token: token, Role: role})
			if err == nil {
				c.Set(identityKey, identity)
				c.Next()
				return
			}

			var authErr *tracker.AuthError
			if !errors.As(err, &authErr) || authErr.Reason != tracker.ReasonRoleMismatch {
				break
			}
		}
		fail(c, err)
	}
}

// LimitDevice applies the per-device rate limit to employee submissions.
func (rs *RestfulServer) LimitDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := identityFrom(c)
		if identity != nil && !rs.CheckDeviceLimiter(identity.DeviceID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) *tracker.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*tracker.Identity)
	return identity
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func errorJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// fail maps service errors to responses: validation 400, auth 401 or 403,
// anything else 500.
func fail(c *gin.Context, err error) {
	var validationErr *tracker.ValidationError
	var authErr *tracker.AuthError

	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   validationErr.Error(),
			"fields":  validationErr.Fields,
		})
	case errors.As(err, &authErr):
		status := http.StatusUnauthorized
		if authErr.Forbidden() {
			status = http.StatusForbidden
		}
		errorJSON(c, status, authErr.Error())
	default:
		getLogger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}
}

// badRequest answers with the fields a zog schema rejected.
func badRequest[V any](c *gin.Context, issues map[string]V) {
	fields := make([]string, 0, len(issues))
	for key := range issues {
		if key == "" || strings.HasPrefix(key, "$") {
			continue
		}
		r := []rune(key)
		r[0] = unicode.ToLower(r[0])
		fields = append(fields, string(r))
	}
	sort.Strings(fields)
	fail(c, &tracker.ValidationError{Fields: fields})
}

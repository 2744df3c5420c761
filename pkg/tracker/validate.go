package tracker

import (
	"sort"
	"strings"
	"unicode"

	z "github.com/Oudwins/zog"
)

// Optional fields are checked only when present; absent ones are validated
// as their zero value, which is always in range.
type sampleBounds struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Battery   int
}

var sampleSchema = z.Struct(z.Shape{
	"Latitude":  z.Float64().GTE(-90).LTE(90),
	"Longitude": z.Float64().GTE(-180).LTE(180),
	"Accuracy":  z.Float64().GTE(0),
	"Battery":   z.Int().GTE(0).LTE(100),
})

type deviceStatusBounds struct {
	BatteryLevel int
}

var deviceStatusSchema = z.Struct(z.Shape{
	"BatteryLevel": z.Int().GTE(0).LTE(100),
})

func validateSample(sample *Sample) error {
	if sample == nil {
		return &ValidationError{Fields: []string{"latitude", "longitude"}}
	}

	var missing []string
	if sample.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if sample.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	bounds := sampleBounds{
		Latitude:  *sample.Latitude,
		Longitude: *sample.Longitude,
	}
	if sample.Accuracy != nil {
		bounds.Accuracy = *sample.Accuracy
	}
	if sample.Battery != nil {
		bounds.Battery = *sample.Battery
	}

	if issues := sampleSchema.Validate(&bounds); len(issues) > 0 {
		return &ValidationError{Fields: issueFields(issues)}
	}

	if sample.DeviceStatus != nil {
		return validateDeviceStatus(sample.DeviceStatus)
	}
	return nil
}

func validateDeviceStatus(status *DeviceStatusInput) error {
	if status == nil {
		return &ValidationError{Fields: []string{"deviceStatus"}}
	}

	var bounds deviceStatusBounds
	if status.BatteryLevel != nil {
		bounds.BatteryLevel = *status.BatteryLevel
	}

	if issues := deviceStatusSchema.Validate(&bounds); len(issues) > 0 {
		return &ValidationError{Fields: issueFields(issues)}
	}
	return nil
}

// issueFields turns a zog issue map into sorted json style field names.
func issueFields[V any](issues map[string]V) []string {
	fields := make([]string, 0, len(issues))
	for key := range issues {
		if strings.HasPrefix(key, "$") {
			continue
		}
		fields = append(fields, lowerFirst(key))
	}
	if len(fields) == 0 {
		fields = append(fields, "sample")
	}
	sort.Strings(fields)
	return fields
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

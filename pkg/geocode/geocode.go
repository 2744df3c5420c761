package geocode

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"liyu1981.xyz/field-presence-service/pkg/common"
)

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Gateway resolves coordinates to a human readable address through a
// Nominatim compatible reverse endpoint. Lookups are best-effort: every
// failure is logged and reported as a nil address.
type Gateway struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewGateway(baseURL string, timeout time.Duration, userAgent string) *Gateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Gateway{
		httpClient: client,
		logger:     common.GetLoggerWith(common.LoggerNameGeocode),
	}
}

func (g *Gateway) Lookup(ctx context.Context, latitude, longitude float64) *string {
	var response reverseResponse
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format":         "json",
			"lat":            strconv.FormatFloat(latitude, 'f', -1, 64),
			"lon":            strconv.FormatFloat(longitude, 'f', -1, 64),
			"zoom":           "18",
			"addressdetails": "1",
		}).
		SetResult(&response).
		Get("/reverse")

	if err != nil {
		g.logger.Warn("Reverse geocode request failed",
			zap.Float64("latitude", latitude),
			zap.Float64("longitude", longitude),
			zap.Error(err),
		)
		return nil
	}

	if resp.IsError() {
		g.logger.Warn("Reverse geocode returned non-2xx",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil
	}

	address := strings.TrimSpace(response.DisplayName)
	if address == "" {
		g.logger.Warn("Reverse geocode response has no address",
			zap.String("error", response.Error),
		)
		return nil
	}

	return &address
}

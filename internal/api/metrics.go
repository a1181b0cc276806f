package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/services"
)

// MetricsHandler handles device metric HTTP requests across the three
// query scopes (device, room, house)
type MetricsHandler struct {
	service *services.MetricsService
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(service *services.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: service}
}

// CreateMetricRequest represents the request body for recording a metric
type CreateMetricRequest struct {
	DeviceID    string     `json:"device_id" validate:"required"`
	MetricType  string     `json:"metric_type" validate:"required"`
	MetricValue float64    `json:"metric_value"`
	Unit        string     `json:"unit" validate:"required"`
	MeasuredAt  *time.Time `json:"measured_at,omitempty"`
}

// metricQueryParams are the raw filter query parameters. All are optional
// and independently composable; aggregate is a JSON array of
// {metric_type, fn} objects.
type metricQueryParams struct {
	From       string `query:"from"`
	To         string `query:"to"`
	Unit       string `query:"unit"`
	MetricType string `query:"metric_type"`
	Aggregate  string `query:"aggregate"`
}

// parseMetricFilters decodes the filter query parameters. Timestamps are
// RFC 3339.
func parseMetricFilters(c *fiber.Ctx) (services.MetricFilters, error) {
	var params metricQueryParams
	if err := c.QueryParser(&params); err != nil {
		return services.MetricFilters{}, errors.New("invalid query parameters")
	}

	filters := services.MetricFilters{}
	if params.From != "" {
		from, err := time.Parse(time.RFC3339, params.From)
		if err != nil {
			return filters, errors.New("invalid 'from' timestamp, expected RFC 3339")
		}
		filters.From = &from
	}
	if params.To != "" {
		to, err := time.Parse(time.RFC3339, params.To)
		if err != nil {
			return filters, errors.New("invalid 'to' timestamp, expected RFC 3339")
		}
		filters.To = &to
	}
	if params.Unit != "" {
		filters.Unit = &params.Unit
	}
	if params.MetricType != "" {
		filters.MetricType = &params.MetricType
	}
	if params.Aggregate != "" {
		var aggregations []services.AggregationRequest
		if err := json.Unmarshal([]byte(params.Aggregate), &aggregations); err != nil {
			return filters, errors.New("invalid 'aggregate' parameter, expected a JSON array of {metric_type, fn}")
		}
		filters.Aggregate = aggregations
	}
	return filters, nil
}

// CreateMetric handles POST /api/v1/metrics
func (h *MetricsHandler) CreateMetric(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}

	var req CreateMetricRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}
	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid device ID"})
	}

	metric, err := h.service.CreateMetric(userID, services.CreateMetricInput{
		DeviceID:    deviceID,
		MetricType:  req.MetricType,
		MetricValue: req.MetricValue,
		Unit:        req.Unit,
		MeasuredAt:  req.MeasuredAt,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidMetric) {
			return c.Status(400).JSON(ErrorResponse{Error: err.Error()})
		}
		return handleAccessError(c, err)
	}
	return c.Status(201).JSON(metric)
}

// GetDeviceMetrics handles GET /api/v1/devices/:device_id/metrics
func (h *MetricsHandler) GetDeviceMetrics(c *fiber.Ctx) error {
	deviceID, err := uuid.Parse(c.Params("device_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid device ID"})
	}
	return h.getMetrics(c, services.DeviceScope(deviceID))
}

// GetRoomMetrics handles GET /api/v1/rooms/:room_id/metrics
func (h *MetricsHandler) GetRoomMetrics(c *fiber.Ctx) error {
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid room ID"})
	}
	return h.getMetrics(c, services.RoomScope(roomID))
}

// GetHouseMetrics handles GET /api/v1/houses/:house_id/metrics
func (h *MetricsHandler) GetHouseMetrics(c *fiber.Ctx) error {
	houseID, err := uuid.Parse(c.Params("house_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid house ID"})
	}
	return h.getMetrics(c, services.HouseScope(houseID))
}

// GetLatestRoomMetrics handles GET /api/v1/rooms/:room_id/metrics/latest
func (h *MetricsHandler) GetLatestRoomMetrics(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid room ID"})
	}

	metrics, err := h.service.GetLatestMetricsForRoom(userID, roomID)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.JSON(metrics)
}

// getMetrics runs the shared authorize/filter/query flow for a scope and
// returns either the flat or the aggregated result shape
func (h *MetricsHandler) getMetrics(c *fiber.Ctx, scope services.MetricScope) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}

	filters, err := parseMetricFilters(c)
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: err.Error()})
	}

	if filters.Aggregated() {
		metrics, err := h.service.GetAggregatedMetrics(userID, scope, filters)
		if err != nil {
			if errors.Is(err, services.ErrInvalidAggregation) {
				return c.Status(400).JSON(ErrorResponse{Error: err.Error()})
			}
			return handleAccessError(c, err)
		}
		return c.JSON(metrics)
	}

	metrics, err := h.service.GetMetrics(userID, scope, filters)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.JSON(metrics)
}

// RegisterRoutes registers all metric routes
func (h *MetricsHandler) RegisterRoutes(api fiber.Router) {
	api.Post("/metrics", h.CreateMetric)
	api.Get("/devices/:device_id/metrics", h.GetDeviceMetrics)
	api.Get("/rooms/:room_id/metrics", h.GetRoomMetrics)
	api.Get("/rooms/:room_id/metrics/latest", h.GetLatestRoomMetrics)
	api.Get("/houses/:house_id/metrics", h.GetHouseMetrics)
}

package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrInvalidMetric is returned when a metric payload has an empty
	// metric_type or unit
	ErrInvalidMetric = errors.New("metric_type and unit must not be empty")
	// ErrInvalidAggregation is returned for an aggregation request naming an
	// unknown function or missing its metric type
	ErrInvalidAggregation = errors.New("invalid aggregation request")
)

// MetricsService orchestrates metric reads and writes: every operation
// authorizes its scope first, then expands the scope into a device
// predicate and executes a single query. Authorization failures are
// terminal before any data is fetched.
type MetricsService struct {
	db            *gorm.DB
	access        *AccessControlService
	broadcastFunc func(channel, event string, data interface{})
}

// NewMetricsService creates a new metrics service
func NewMetricsService(db *gorm.DB, access *AccessControlService) *MetricsService {
	return &MetricsService{db: db, access: access}
}

// SetBroadcastFunc sets the WebSocket broadcast function
func (s *MetricsService) SetBroadcastFunc(fn func(channel, event string, data interface{})) {
	s.broadcastFunc = fn
}

// CreateMetricInput is the validated payload for a new metric
type CreateMetricInput struct {
	DeviceID    uuid.UUID
	MetricType  string
	MetricValue float64
	Unit        string
	MeasuredAt  *time.Time
}

// CreateMetric validates the payload, authorizes the target device, and
// inserts a single metric row. MeasuredAt defaults to now when absent.
func (s *MetricsService) CreateMetric(userID uuid.UUID, input CreateMetricInput) (*models.DeviceMetric, error) {
	if strings.TrimSpace(input.MetricType) == "" || strings.TrimSpace(input.Unit) == "" {
		return nil, ErrInvalidMetric
	}

	houseID, err := s.access.HouseForDevice(input.DeviceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanAccessHouse(userID, houseID); err != nil {
		return nil, err
	}

	metric := &models.DeviceMetric{
		DeviceID:    input.DeviceID,
		MetricType:  input.MetricType,
		MetricValue: input.MetricValue,
		Unit:        input.Unit,
	}
	if input.MeasuredAt != nil {
		metric.MeasuredAt = *input.MeasuredAt
	}

	if err := s.db.Create(metric).Error; err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}

	if s.broadcastFunc != nil {
		s.broadcastFunc("house:"+houseID.String(), "metric.created", metric)
	}

	return metric, nil
}

// GetMetrics authorizes the scope, then returns the flat list of metric
// rows matching the filters. A scope that resolves to zero devices returns
// an empty list, not an error.
func (s *MetricsService) GetMetrics(userID uuid.UUID, scope MetricScope, filters MetricFilters) ([]models.DeviceMetric, error) {
	if err := s.authorizeScope(userID, scope); err != nil {
		return nil, err
	}

	query, args, err := buildMetricsQuery(scope, filters)
	if err != nil {
		return nil, err
	}

	metrics := []models.DeviceMetric{}
	if err := s.db.Raw(query, args...).Scan(&metrics).Error; err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	return metrics, nil
}

// GetAggregatedMetrics authorizes the scope, then returns one grouped row
// per (metric_type, unit) per aggregation request, in request order.
func (s *MetricsService) GetAggregatedMetrics(userID uuid.UUID, scope MetricScope, filters MetricFilters) ([]models.AggregatedMetric, error) {
	if !filters.Aggregated() {
		return nil, fmt.Errorf("%w: no aggregations requested", ErrInvalidAggregation)
	}
	if err := s.authorizeScope(userID, scope); err != nil {
		return nil, err
	}

	query, args, err := buildAggregatedMetricsQuery(scope, filters)
	if err != nil {
		return nil, err
	}

	metrics := []models.AggregatedMetric{}
	if err := s.db.Raw(query, args...).Scan(&metrics).Error; err != nil {
		return nil, fmt.Errorf("failed to query aggregated metrics: %w", err)
	}
	return metrics, nil
}

// GetLatestMetricsForRoom returns the newest metric row per device in the
// room
func (s *MetricsService) GetLatestMetricsForRoom(userID, roomID uuid.UUID) ([]models.DeviceMetric, error) {
	if err := s.access.CanAccessRoom(userID, roomID); err != nil {
		return nil, err
	}

	metrics := []models.DeviceMetric{}
	err := s.db.Raw(`
		SELECT dm.id, dm.device_id, dm.metric_type, dm.metric_value, dm.unit, dm.measured_at, dm.created_at
		FROM device_metrics dm
		INNER JOIN (
			SELECT device_id, MAX(measured_at) AS max_measured_at
			FROM device_metrics
			GROUP BY device_id
		) last_metrics ON dm.device_id = last_metrics.device_id AND dm.measured_at = last_metrics.max_measured_at
		WHERE dm.device_id IN (SELECT id FROM devices WHERE room_id = ?)`, roomID).
		Scan(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest metrics: %w", err)
	}
	return metrics, nil
}

// authorizeScope dispatches to the resolver matching the scope kind
func (s *MetricsService) authorizeScope(userID uuid.UUID, scope MetricScope) error {
	switch scope.Kind {
	case ScopeDevice:
		return s.access.CanAccessDevice(userID, scope.ID)
	case ScopeRoom:
		return s.access.CanAccessRoom(userID, scope.ID)
	case ScopeHouse:
		return s.access.CanAccessHouse(userID, scope.ID)
	default:
		return fmt.Errorf("unknown metric scope %q", scope.Kind)
	}
}

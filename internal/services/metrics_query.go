package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScopeKind is the resource level at which a metrics query is anchored
type ScopeKind string

const (
	ScopeDevice ScopeKind = "device"
	ScopeRoom   ScopeKind = "room"
	ScopeHouse  ScopeKind = "house"
)

// MetricScope anchors a metrics query to a device, room, or house. The
// scope determines which devices' metrics are eligible; it carries no
// authorization of its own, so callers must authorize the same scope/id
// pair before expanding it into a query.
type MetricScope struct {
	Kind ScopeKind
	ID   uuid.UUID
}

// DeviceScope anchors a query to a single device
func DeviceScope(id uuid.UUID) MetricScope { return MetricScope{Kind: ScopeDevice, ID: id} }

// RoomScope anchors a query to every device in a room
func RoomScope(id uuid.UUID) MetricScope { return MetricScope{Kind: ScopeRoom, ID: id} }

// HouseScope anchors a query to every device in every room of a house
func HouseScope(id uuid.UUID) MetricScope { return MetricScope{Kind: ScopeHouse, ID: id} }

// Aggregation is an aggregate function name accepted on the wire
type Aggregation string

const (
	AggregationAvg Aggregation = "Avg"
	AggregationSum Aggregation = "Sum"
	AggregationMin Aggregation = "Min"
	AggregationMax Aggregation = "Max"
)

// aggregateFuncs maps wire names onto SQL aggregate functions. Anything
// not in this map is a validation error, never raw query text.
var aggregateFuncs = map[Aggregation]string{
	AggregationAvg: "AVG",
	AggregationSum: "SUM",
	AggregationMin: "MIN",
	AggregationMax: "MAX",
}

// AggregationRequest asks for one aggregate function applied to one metric
// type. Each request produces its own grouped rows; requesting Avg and Max
// for the same type yields two rows per (metric_type, unit) group.
type AggregationRequest struct {
	Fn         Aggregation `json:"fn"`
	MetricType string      `json:"metric_type"`
}

// MetricFilters are the caller-supplied constraints on a metrics query.
// All filters are conjunctive; a nil filter means "no constraint".
type MetricFilters struct {
	From       *time.Time
	To         *time.Time
	Unit       *string
	MetricType *string
	Aggregate  []AggregationRequest
}

// Aggregated reports whether the caller requested aggregated results
func (f MetricFilters) Aggregated() bool {
	return len(f.Aggregate) > 0
}

// metricsQuery accumulates SQL text and bound arguments together, so the
// clause list and the parameter list cannot drift out of sync. All caller
// values go through pushBind; push is for fixed query text only.
type metricsQuery struct {
	sql  strings.Builder
	args []interface{}
}

func (q *metricsQuery) push(text string) {
	q.sql.WriteString(text)
}

func (q *metricsQuery) pushBind(text string, value interface{}) {
	q.sql.WriteString(text)
	q.sql.WriteString("?")
	q.args = append(q.args, value)
}

// pushScopePredicate expands the scope into a device-id predicate:
// identity for a device, an IN sub-query for a room, and a joined IN
// sub-query for a house.
func (q *metricsQuery) pushScopePredicate(scope MetricScope) error {
	switch scope.Kind {
	case ScopeDevice:
		q.pushBind("device_id = ", scope.ID)
	case ScopeRoom:
		q.pushBind("device_id IN (SELECT id FROM devices WHERE room_id = ", scope.ID)
		q.push(")")
	case ScopeHouse:
		q.pushBind("device_id IN (SELECT d.id FROM devices d JOIN rooms r ON d.room_id = r.id WHERE r.house_id = ", scope.ID)
		q.push(")")
	default:
		return fmt.Errorf("unknown metric scope %q", scope.Kind)
	}
	return nil
}

// pushRangeClauses appends the shared from/to/unit constraints
func (q *metricsQuery) pushRangeClauses(filters MetricFilters) {
	if filters.From != nil {
		q.pushBind(" AND measured_at >= ", *filters.From)
	}
	if filters.To != nil {
		q.pushBind(" AND measured_at <= ", *filters.To)
	}
	if filters.Unit != nil {
		q.pushBind(" AND unit = ", *filters.Unit)
	}
}

// buildMetricsQuery composes the flat (non-aggregated) metrics query
func buildMetricsQuery(scope MetricScope, filters MetricFilters) (string, []interface{}, error) {
	q := &metricsQuery{}
	q.push("SELECT id, device_id, metric_type, metric_value, unit, measured_at, created_at FROM device_metrics WHERE ")
	if err := q.pushScopePredicate(scope); err != nil {
		return "", nil, err
	}
	q.pushRangeClauses(filters)
	if filters.MetricType != nil {
		q.pushBind(" AND metric_type = ", *filters.MetricType)
	}
	q.push(" ORDER BY measured_at")
	return q.sql.String(), q.args, nil
}

// buildAggregatedMetricsQuery composes one grouped sub-query per
// aggregation request and joins them with UNION ALL, preserving request
// order. Each sub-query pins its own metric type and repeats the shared
// scope and range constraints, grouped by (metric_type, unit).
func buildAggregatedMetricsQuery(scope MetricScope, filters MetricFilters) (string, []interface{}, error) {
	q := &metricsQuery{}
	for i, agg := range filters.Aggregate {
		fn, ok := aggregateFuncs[agg.Fn]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidAggregation, agg.Fn)
		}
		if agg.MetricType == "" {
			return "", nil, fmt.Errorf("%w: missing metric_type", ErrInvalidAggregation)
		}
		if i > 0 {
			q.push(" UNION ALL ")
		}
		q.push("SELECT metric_type, unit, " + fn + "(metric_value) AS metric_value FROM device_metrics WHERE ")
		if err := q.pushScopePredicate(scope); err != nil {
			return "", nil, err
		}
		q.pushBind(" AND metric_type = ", agg.MetricType)
		q.pushRangeClauses(filters)
		q.push(" GROUP BY metric_type, unit")
	}
	return q.sql.String(), q.args, nil
}

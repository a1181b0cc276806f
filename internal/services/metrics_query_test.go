package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMetricsQuery_ScopePredicates(t *testing.T) {
	id := uuid.New()

	t.Run("Device scope is an identity predicate", func(t *testing.T) {
		query, args, err := buildMetricsQuery(DeviceScope(id), MetricFilters{})
		require.NoError(t, err)
		assert.Contains(t, query, "WHERE device_id = ?")
		assert.Equal(t, []interface{}{id}, args)
	})

	t.Run("Room scope expands to an IN sub-query", func(t *testing.T) {
		query, args, err := buildMetricsQuery(RoomScope(id), MetricFilters{})
		require.NoError(t, err)
		assert.Contains(t, query, "device_id IN (SELECT id FROM devices WHERE room_id = ?)")
		assert.Equal(t, []interface{}{id}, args)
	})

	t.Run("House scope joins rooms", func(t *testing.T) {
		query, args, err := buildMetricsQuery(HouseScope(id), MetricFilters{})
		require.NoError(t, err)
		assert.Contains(t, query, "JOIN rooms r ON d.room_id = r.id WHERE r.house_id = ?")
		assert.Equal(t, []interface{}{id}, args)
	})

	t.Run("Unknown scope kind is rejected", func(t *testing.T) {
		_, _, err := buildMetricsQuery(MetricScope{Kind: "cluster", ID: id}, MetricFilters{})
		assert.Error(t, err)
	})
}

func TestBuildMetricsQuery_Filters(t *testing.T) {
	id := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	unit := "C"
	metricType := "temperature"

	t.Run("No filters means no constraints", func(t *testing.T) {
		query, args, err := buildMetricsQuery(DeviceScope(id), MetricFilters{})
		require.NoError(t, err)
		assert.NotContains(t, query, "measured_at >=")
		assert.NotContains(t, query, "measured_at <=")
		assert.NotContains(t, query, "unit =")
		assert.NotContains(t, query, "metric_type =")
		assert.Len(t, args, 1)
	})

	t.Run("All filters are conjunctive and bound in clause order", func(t *testing.T) {
		query, args, err := buildMetricsQuery(DeviceScope(id), MetricFilters{
			From:       &from,
			To:         &to,
			Unit:       &unit,
			MetricType: &metricType,
		})
		require.NoError(t, err)
		assert.Contains(t, query, "AND measured_at >= ?")
		assert.Contains(t, query, "AND measured_at <= ?")
		assert.Contains(t, query, "AND unit = ?")
		assert.Contains(t, query, "AND metric_type = ?")
		assert.Equal(t, []interface{}{id, from, to, unit, metricType}, args)
	})

	t.Run("Values never appear in query text", func(t *testing.T) {
		query, _, err := buildMetricsQuery(RoomScope(id), MetricFilters{Unit: &unit, MetricType: &metricType})
		require.NoError(t, err)
		assert.NotContains(t, query, id.String())
		assert.NotContains(t, query, "'C'")
		assert.NotContains(t, query, "temperature")
	})
}

func TestBuildAggregatedMetricsQuery(t *testing.T) {
	id := uuid.New()

	t.Run("Each request becomes one grouped sub-query", func(t *testing.T) {
		query, args, err := buildAggregatedMetricsQuery(RoomScope(id), MetricFilters{
			Aggregate: []AggregationRequest{
				{Fn: AggregationAvg, MetricType: "temperature"},
				{Fn: AggregationMax, MetricType: "temperature"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(query, "UNION ALL"))
		assert.Equal(t, 1, strings.Count(query, "AVG(metric_value)"))
		assert.Equal(t, 1, strings.Count(query, "MAX(metric_value)"))
		assert.Equal(t, 2, strings.Count(query, "GROUP BY metric_type, unit"))
		// scope id + metric type, twice
		assert.Equal(t, []interface{}{id, "temperature", id, "temperature"}, args)
	})

	t.Run("Shared filters are repeated per sub-query", func(t *testing.T) {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		unit := "C"
		query, args, err := buildAggregatedMetricsQuery(HouseScope(id), MetricFilters{
			From: &from,
			Unit: &unit,
			Aggregate: []AggregationRequest{
				{Fn: AggregationSum, MetricType: "power"},
				{Fn: AggregationMin, MetricType: "humidity"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(query, "AND measured_at >= ?"))
		assert.Equal(t, 2, strings.Count(query, "AND unit = ?"))
		assert.Equal(t, []interface{}{id, "power", from, unit, id, "humidity", from, unit}, args)
	})

	t.Run("Unknown function is a validation error naming the value", func(t *testing.T) {
		_, _, err := buildAggregatedMetricsQuery(RoomScope(id), MetricFilters{
			Aggregate: []AggregationRequest{{Fn: "Median", MetricType: "temperature"}},
		})
		assert.ErrorIs(t, err, ErrInvalidAggregation)
		assert.Contains(t, err.Error(), "Median")
	})

	t.Run("Missing metric type is a validation error", func(t *testing.T) {
		_, _, err := buildAggregatedMetricsQuery(RoomScope(id), MetricFilters{
			Aggregate: []AggregationRequest{{Fn: AggregationAvg}},
		})
		assert.ErrorIs(t, err, ErrInvalidAggregation)
	})
}

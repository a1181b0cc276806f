package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceMetric represents a single measurement emitted by a device.
// Rows are append-only: never updated or deleted through the API.
// Duplicates on (device_id, metric_type, measured_at) are permitted;
// sensors retransmit.
type DeviceMetric struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID    uuid.UUID `gorm:"type:uuid;not null;index" json:"device_id"`
	MetricType  string    `gorm:"not null" json:"metric_type"`
	MetricValue float64   `gorm:"not null" json:"metric_value"`
	Unit        string    `gorm:"not null" json:"unit"`
	MeasuredAt  time.Time `gorm:"not null;index" json:"measured_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (m *DeviceMetric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MeasuredAt.IsZero() {
		m.MeasuredAt = time.Now().UTC()
	}
	return nil
}

// TableName overrides the default table name
func (DeviceMetric) TableName() string {
	return "device_metrics"
}

// AggregatedMetric is one grouped result row produced by an aggregation
// request. The grouping key is always (metric_type, unit): mixed units for
// the same metric type produce separate rows rather than being averaged
// across unit systems.
type AggregatedMetric struct {
	MetricType  string  `json:"metric_type"`
	Unit        string  `json:"unit"`
	MetricValue float64 `json:"metric_value"`
}

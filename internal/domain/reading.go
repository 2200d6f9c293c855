package domain

import "time"

// SensorReading is one immutable telemetry sample. Rows are append-only:
// correcting a past reading means inserting a new row.
type SensorReading struct {
	ID          int64     `json:"id"`
	Time        time.Time `json:"time"`
	SourceID    string    `json:"source_id"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Battery     *float64  `json:"battery,omitempty"`
	Location    *Point    `json:"location,omitempty"`
}

// ReadingBucket is one fixed-width time bucket of averaged readings.
type ReadingBucket struct {
	Bucket         time.Time `json:"bucket"`
	AvgTemperature *float64  `json:"avg_temperature,omitempty"`
	AvgHumidity    *float64  `json:"avg_humidity,omitempty"`
	AvgBattery     *float64  `json:"avg_battery,omitempty"`
	Count          int64     `json:"count"`
}

// StorageStats is read-only introspection of the hypertable state.
type StorageStats struct {
	Chunks           int64   `json:"chunks"`
	CompressionRatio float64 `json:"compression_ratio"`
}

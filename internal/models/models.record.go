// FilePath: internal/models/models.record.go
package models

import "time"

// SensorReading is the raw, untrusted key-value payload decoded from a
// single wire line. No field presence or range guarantees.
type SensorReading map[string]any

// CanonicalRecord is a validated, normalized sensor reading ready for
// persistence. It is immutable once constructed: it may end up in both
// sinks, one sink, or neither, but its values never change.
type CanonicalRecord struct {
	TemperatureC float64   `json:"temperature_c" db:"temperature_c"`
	BatteryV     float64   `json:"battery_v" db:"battery_v"`
	SolarV       float64   `json:"solar_v" db:"solar_v"`
	SignalDBm    int       `json:"signal_dbm" db:"signal_dbm"`
	StationID    string    `json:"station_id" db:"station_id"`
	LevelCm      *float64  `json:"level_cm,omitempty" db:"level_cm"`
	OutflowLps   *float64  `json:"outflow_lps,omitempty" db:"outflow_lps"`
	ObservedAt   time.Time `json:"observed_at" db:"timestamp"`
	Connected    bool      `json:"connected"`
	OnSolar      bool      `json:"on_solar"`
}

// HasPondMetrics reports whether the record carries pond telemetry and
// therefore produces a pond_metrics row in addition to station_metrics.
func (r *CanonicalRecord) HasPondMetrics() bool {
	return r.LevelCm != nil || r.OutflowLps != nil
}

// LatestStatus is the cache entity: the most recent CanonicalRecord
// projection plus a heartbeat timestamp and static station identity,
// stored under a single well-known key with a bounded TTL.
type LatestStatus struct {
	TemperatureC    float64  `json:"temperature_c"`
	BatteryV        float64  `json:"battery_v"`
	SolarV          float64  `json:"solar_v"`
	SignalDBm       int      `json:"signal_dbm"`
	StationID       string   `json:"station_id"`
	LevelCm         *float64 `json:"level_cm,omitempty"`
	OutflowLps      *float64 `json:"outflow_lps,omitempty"`
	LastHeartbeat   string   `json:"last_heartbeat"`
	Connected       bool     `json:"connected"`
	OnSolar         bool     `json:"on_solar"`
	DeviceID        string   `json:"device_id"`
	FirmwareVersion string   `json:"firmware_version"`
}

// NewLatestStatus projects a CanonicalRecord into its cache form.
func NewLatestStatus(r *CanonicalRecord, deviceID, firmwareVersion string) *LatestStatus {
	return &LatestStatus{
		TemperatureC:    r.TemperatureC,
		BatteryV:        r.BatteryV,
		SolarV:          r.SolarV,
		SignalDBm:       r.SignalDBm,
		StationID:       r.StationID,
		LevelCm:         r.LevelCm,
		OutflowLps:      r.OutflowLps,
		LastHeartbeat:   r.ObservedAt.Format(time.RFC3339),
		Connected:       r.Connected,
		OnSolar:         r.OnSolar,
		DeviceID:        deviceID,
		FirmwareVersion: firmwareVersion,
	}
}

// StationMetric is one station_metrics row as read back for the API.
type StationMetric struct {
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	TemperatureC float64   `json:"temperature_c" db:"temperature_c"`
	BatteryV     float64   `json:"battery_v" db:"battery_v"`
	SolarV       float64   `json:"solar_v" db:"solar_v"`
	SignalDBm    int       `json:"signal_dbm" db:"signal_dbm"`
	StationID    string    `json:"station_id" db:"station_id"`
}

// PondMetric is one pond_metrics row as read back for the API.
type PondMetric struct {
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	LevelCm    *float64  `json:"level_cm" db:"level_cm"`
	OutflowLps *float64  `json:"outflow_lps" db:"outflow_lps"`
}

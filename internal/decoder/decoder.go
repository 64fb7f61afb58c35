// FilePath: internal/decoder/decoder.go
package decoder

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pondworks/pondgate/internal/errors"
	"github.com/pondworks/pondgate/internal/models"
)

// Field ranges are inclusive. A record exists only if every required
// field passed validation; a partially valid reading never becomes a
// CanonicalRecord.
const (
	TemperatureMin = -50.0
	TemperatureMax = 80.0
	BatteryMin     = 0.0
	BatteryMax     = 20.0
	SolarMin       = 0.0
	SolarMax       = 25.0
	SignalMin      = -150
	SignalMax      = 0
	LevelMin       = 0.0
	LevelMax       = 500.0
	OutflowMin     = 0.0
	OutflowMax     = 100.0
)

// DefaultSignalDBm fills in signal strength when the station omits it.
const DefaultSignalDBm = -75

// DefaultStationID identifies readings from stations that do not
// announce themselves.
const DefaultStationID = "default"

// OnSolarThresholdV is the solar voltage above which the station is
// considered to be running on solar power.
const OnSolarThresholdV = 1.0

var requiredFields = []string{"temperature_c", "battery_v", "solar_v"}

// Clock supplies the decode timestamp. Injecting it keeps Decode a pure
// function of the line and the instant, which the tests rely on.
type Clock func() time.Time

// Decoder turns raw wire lines into canonical records.
type Decoder struct {
	now Clock
}

func New(clock Clock) *Decoder {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Decoder{now: clock}
}

// Decode parses one wire line into a CanonicalRecord. Malformed JSON
// yields a DecodeError; a missing, non-numeric, or out-of-range field
// yields a ValidationError naming the field. Both are per-record
// conditions the caller logs and skips.
func (d *Decoder) Decode(line string) (*models.CanonicalRecord, error) {
	var reading models.SensorReading
	if err := json.Unmarshal([]byte(line), &reading); err != nil {
		return nil, errors.NewDecodeError("malformed wire line", err)
	}
	return d.FromReading(reading)
}

// FromReading validates and normalizes an already-decoded reading. The
// simulation path enters here directly, bypassing line decoding.
func (d *Decoder) FromReading(reading models.SensorReading) (*models.CanonicalRecord, error) {
	for _, field := range requiredFields {
		raw, ok := reading[field]
		if !ok {
			return nil, errors.NewValidationError(
				fmt.Sprintf("missing required field %q", field), nil)
		}
		if _, ok := asFloat(raw); !ok {
			return nil, errors.NewValidationError(
				fmt.Sprintf("non-numeric value for %q: %v", field, raw), nil)
		}
	}

	temperature, _ := asFloat(reading["temperature_c"])
	battery, _ := asFloat(reading["battery_v"])
	solar, _ := asFloat(reading["solar_v"])

	if err := checkRange("temperature_c", temperature, TemperatureMin, TemperatureMax); err != nil {
		return nil, err
	}
	if err := checkRange("battery_v", battery, BatteryMin, BatteryMax); err != nil {
		return nil, err
	}
	if err := checkRange("solar_v", solar, SolarMin, SolarMax); err != nil {
		return nil, err
	}

	record := &models.CanonicalRecord{
		TemperatureC: round(temperature, 1),
		BatteryV:     round(battery, 2),
		SolarV:       round(solar, 2),
		SignalDBm:    DefaultSignalDBm,
		StationID:    DefaultStationID,
		ObservedAt:   d.now().UTC(),
		Connected:    true,
		OnSolar:      solar > OnSolarThresholdV,
	}

	if raw, ok := reading["signal_dbm"]; ok {
		value, numeric := asFloat(raw)
		if !numeric {
			return nil, errors.NewValidationError(
				fmt.Sprintf("non-numeric value for %q: %v", "signal_dbm", raw), nil)
		}
		if err := checkRange("signal_dbm", value, SignalMin, SignalMax); err != nil {
			return nil, err
		}
		record.SignalDBm = int(value)
	}

	if raw, ok := reading["station_id"]; ok {
		if id, isString := raw.(string); isString && id != "" {
			record.StationID = id
		}
	}

	if raw, ok := reading["level_cm"]; ok {
		value, numeric := asFloat(raw)
		if !numeric {
			return nil, errors.NewValidationError(
				fmt.Sprintf("non-numeric value for %q: %v", "level_cm", raw), nil)
		}
		if err := checkRange("level_cm", value, LevelMin, LevelMax); err != nil {
			return nil, err
		}
		rounded := round(value, 1)
		record.LevelCm = &rounded
	}

	if raw, ok := reading["outflow_lps"]; ok {
		value, numeric := asFloat(raw)
		if !numeric {
			return nil, errors.NewValidationError(
				fmt.Sprintf("non-numeric value for %q: %v", "outflow_lps", raw), nil)
		}
		if err := checkRange("outflow_lps", value, OutflowMin, OutflowMax); err != nil {
			return nil, err
		}
		rounded := round(value, 2)
		record.OutflowLps = &rounded
	}

	return record, nil
}

// Revalidate re-runs the presence and range checks against a record's
// own fields. Validation is idempotent: a record the decoder produced
// always passes.
func Revalidate(record *models.CanonicalRecord) error {
	if err := checkRange("temperature_c", record.TemperatureC, TemperatureMin, TemperatureMax); err != nil {
		return err
	}
	if err := checkRange("battery_v", record.BatteryV, BatteryMin, BatteryMax); err != nil {
		return err
	}
	if err := checkRange("solar_v", record.SolarV, SolarMin, SolarMax); err != nil {
		return err
	}
	if err := checkRange("signal_dbm", float64(record.SignalDBm), SignalMin, SignalMax); err != nil {
		return err
	}
	if record.LevelCm != nil {
		if err := checkRange("level_cm", *record.LevelCm, LevelMin, LevelMax); err != nil {
			return err
		}
	}
	if record.OutflowLps != nil {
		if err := checkRange("outflow_lps", *record.OutflowLps, OutflowMin, OutflowMax); err != nil {
			return err
		}
	}
	return nil
}

func checkRange(field string, value, min, max float64) error {
	if value < min || value > max {
		return errors.NewValidationError(
			fmt.Sprintf("%s out of range: %v not in [%v, %v]", field, value, min, max), nil)
	}
	return nil
}

// asFloat accepts the numeric shapes encoding/json produces plus plain
// ints from the simulation path. Booleans and strings are not numeric.
func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

// FilePath: internal/gateway/simulate.go
package gateway

import (
	"math"
	"math/rand"
	"time"

	"github.com/pondworks/pondgate/internal/models"
)

// SimStationID marks synthetic readings so they are distinguishable in
// the time-series store.
const SimStationID = "testing_station"

// Simulator produces realistic synthetic sensor readings: a daily
// temperature cycle, a solar curve peaking at midday, and jitter on top.
// Output always satisfies the validator's ranges.
type Simulator struct {
	now  func() time.Time
	rand *rand.Rand
}

func NewSimulator(clock func() time.Time) *Simulator {
	if clock == nil {
		clock = time.Now
	}
	return &Simulator{
		now:  clock,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns one synthetic raw reading in the wire payload shape.
func (s *Simulator) Generate() models.SensorReading {
	secondOfDay := float64(s.now().Unix() % 86400)

	baseTemp := 20.0 + 15.0*secondOfDay/86400.0
	baseBattery := 5.0
	baseSolar := math.Max(0, 18.0*math.Abs((secondOfDay-43200.0)/43200.0))

	return models.SensorReading{
		"temperature_c": roundTo(baseTemp+s.uniform(-2, 2), 1),
		"battery_v":     roundTo(baseBattery+s.uniform(-5, 0), 2),
		"solar_v":       roundTo(clamp(baseSolar+s.uniform(-2, 2), 0, 25), 2),
		"signal_dbm":    float64(-100 + s.rand.Intn(41)),
		"station_id":    SimStationID,
		"level_cm":      roundTo(150.0+s.uniform(-10, 10), 1),
		"outflow_lps":   roundTo(2.5+s.uniform(-0.5, 0.5), 2),
	}
}

func (s *Simulator) uniform(min, max float64) float64 {
	return min + s.rand.Float64()*(max-min)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

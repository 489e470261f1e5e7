package seed

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Reading is one synthetic meter reading, shaped like the payloads the
// web application forwards through the relay.
type Reading struct {
	UserID      string  `json:"user_id"`
	MeterNumber string  `json:"meter_number"`
	KwhConsumed float64 `json:"kwh_consumed"`
	CostPerKwh  float64 `json:"cost_per_kwh"`
	Timestamp   string  `json:"timestamp"`
}

// ReadingGenerator produces synthetic readings for one meter, spread
// backwards in time from now.
type ReadingGenerator struct {
	UserID      string
	MeterNumber string
	CostPerKwh  float64
}

func NewReadingGenerator(userID, meterNumber string, costPerKwh float64) *ReadingGenerator {
	if meterNumber == "" {
		meterNumber = gofakeit.Numerify("MTR-########")
	}
	if userID == "" {
		userID = gofakeit.UUID()
	}
	if costPerKwh <= 0 {
		costPerKwh = gofakeit.Float64Range(0.08, 0.45)
	}

	return &ReadingGenerator{
		UserID:      userID,
		MeterNumber: meterNumber,
		CostPerKwh:  costPerKwh,
	}
}

// Generate produces count readings evenly spaced over spread, oldest
// first. A zero spread puts every reading at now.
func (g *ReadingGenerator) Generate(count int, spread time.Duration) []Reading {
	now := time.Now().UTC()
	readings := make([]Reading, 0, count)

	for i := 0; i < count; i++ {
		ts := now
		if spread > 0 && count > 1 {
			offset := time.Duration(float64(spread) * float64(count-1-i) / float64(count-1))
			ts = now.Add(-offset)
		}

		readings = append(readings, Reading{
			UserID:      g.UserID,
			MeterNumber: g.MeterNumber,
			KwhConsumed: gofakeit.Float64Range(0.5, 48.0),
			CostPerKwh:  g.CostPerKwh,
			Timestamp:   ts.Format(time.RFC3339),
		})
	}

	return readings
}

// FakeProfile fills a Profile with plausible synthetic data, keeping
// any fields already set.
func FakeProfile(profile *Profile) {
	if profile.MeterNumber == "" {
		profile.MeterNumber = gofakeit.Numerify("MTR-########")
	}
	if profile.FullName == "" {
		profile.FullName = gofakeit.Name()
	}
	if profile.Address == "" {
		addr := gofakeit.Address()
		profile.Address = addr.Street + ", " + addr.City
	}
	if profile.CostPerKwh <= 0 {
		profile.CostPerKwh = gofakeit.Float64Range(0.08, 0.45)
	}
}

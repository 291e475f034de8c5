package analytics

import (
	"context"
	"time"

	"github.com/lonshanworld/retail-analytics/models"
)

type dateRange struct {
	from, to time.Time
}

type fakeHistory struct {
	daily    map[string][]models.TimeSeriesPoint
	orders   map[string][]models.OrderObservation
	units    map[string]int
	weekly   map[string][]models.WeeklyQuantity
	err      error
	lastCall dateRange
}

func (f *fakeHistory) DailySales(_ context.Context, storeID string, from, to time.Time) ([]models.TimeSeriesPoint, error) {
	f.lastCall = dateRange{from, to}
	if f.err != nil {
		return nil, f.err
	}
	points, ok := f.daily[storeID]
	if !ok {
		return nil, ErrNotFound
	}
	return points, nil
}

func (f *fakeHistory) OrderObservations(_ context.Context, storeID string, from, to time.Time) ([]models.OrderObservation, error) {
	f.lastCall = dateRange{from, to}
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[storeID], nil
}

func (f *fakeHistory) UnitsSold(_ context.Context, productID string, from, to time.Time) (int, error) {
	f.lastCall = dateRange{from, to}
	return f.units[productID], f.err
}

func (f *fakeHistory) WeeklyUnits(_ context.Context, productID string, from, to time.Time) ([]models.WeeklyQuantity, error) {
	f.lastCall = dateRange{from, to}
	return f.weekly[productID], f.err
}

type fakeInventory map[string]models.InventorySnapshot

func (f fakeInventory) Snapshot(_ context.Context, productID string) (*models.InventorySnapshot, error) {
	snap, ok := f[productID]
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// series builds a normalized history ending on end from revenue values.
func series(end time.Time, revenues []float64, orders int) []models.TimeSeriesPoint {
	start := DayKey(end).AddDate(0, 0, -(len(revenues) - 1))
	out := make([]models.TimeSeriesPoint, len(revenues))
	for i, r := range revenues {
		out[i] = models.TimeSeriesPoint{Date: start.AddDate(0, 0, i), Revenue: r, Orders: orders}
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// steadySeller sells the same number of units on every calendar day of the
// inclusive range it is asked about.
type steadySeller struct {
	fakeHistory
	perDay int
}

func (s *steadySeller) UnitsSold(_ context.Context, _ string, from, to time.Time) (int, error) {
	s.lastCall = dateRange{from, to}
	return s.perDay * DaysInRange(from, to), nil
}

package analytics

import (
	"time"

	"github.com/lonshanworld/retail-analytics/models"
)

// DayKey truncates t to its UTC calendar day.
func DayKey(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInRange counts the calendar days in [start, end], inclusive.
func DaysInRange(start, end time.Time) int {
	s, e := DayKey(start), DayKey(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// NormalizeDaily returns exactly one point per calendar day in [start, end],
// ascending. Days without input are zero-filled; several inputs on the same
// day are summed.
func NormalizeDaily(points []models.TimeSeriesPoint, start, end time.Time) []models.TimeSeriesPoint {
	n := DaysInRange(start, end)
	if n == 0 {
		return []models.TimeSeriesPoint{}
	}

	byDay := make(map[time.Time]models.TimeSeriesPoint, len(points))
	for _, p := range points {
		key := DayKey(p.Date)
		agg := byDay[key]
		agg.Revenue += p.Revenue
		agg.Orders += p.Orders
		byDay[key] = agg
	}

	first := DayKey(start)
	filled := make([]models.TimeSeriesPoint, n)
	for i := range filled {
		day := first.AddDate(0, 0, i)
		p := byDay[day]
		filled[i] = models.TimeSeriesPoint{Date: day, Revenue: p.Revenue, Orders: p.Orders}
	}
	return filled
}

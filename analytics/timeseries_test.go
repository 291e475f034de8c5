package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonshanworld/retail-analytics/models"
)

func TestNormalizeDaily_FillsGaps(t *testing.T) {
	start, end := day("2026-01-01"), day("2026-01-10")
	sparse := []models.TimeSeriesPoint{
		{Date: day("2026-01-03"), Revenue: 50, Orders: 2},
		{Date: time.Date(2026, 1, 7, 18, 45, 0, 0, time.UTC), Revenue: 20, Orders: 1},
	}

	filled := NormalizeDaily(sparse, start, end)

	require.Len(t, filled, 10)
	for i, p := range filled {
		assert.Equal(t, start.AddDate(0, 0, i), p.Date, "index %d", i)
	}
	assert.Equal(t, 50.0, filled[2].Revenue)
	assert.Equal(t, 2, filled[2].Orders)
	assert.Equal(t, 20.0, filled[6].Revenue)
	assert.Zero(t, filled[0].Revenue)
	assert.Zero(t, filled[9].Orders)
}

func TestNormalizeDaily_SumsSameDay(t *testing.T) {
	d := day("2026-03-05")
	filled := NormalizeDaily([]models.TimeSeriesPoint{
		{Date: d.Add(2 * time.Hour), Revenue: 10, Orders: 1},
		{Date: d.Add(20 * time.Hour), Revenue: 15, Orders: 2},
	}, d, d)

	require.Len(t, filled, 1)
	assert.Equal(t, 25.0, filled[0].Revenue)
	assert.Equal(t, 3, filled[0].Orders)
}

func TestNormalizeDaily_IgnoresOutOfRangeAndEmptyRange(t *testing.T) {
	filled := NormalizeDaily([]models.TimeSeriesPoint{{Date: day("2025-12-31"), Revenue: 99}}, day("2026-01-01"), day("2026-01-02"))
	require.Len(t, filled, 2)
	assert.Zero(t, filled[0].Revenue)

	assert.Empty(t, NormalizeDaily(nil, day("2026-01-05"), day("2026-01-01")))
}

func TestDaysInRange(t *testing.T) {
	assert.Equal(t, 91, DaysInRange(day("2026-07-18"), day("2026-10-16")))
	assert.Equal(t, 1, DaysInRange(day("2026-10-16"), time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysInRange(day("2026-10-17"), day("2026-10-16")))
}

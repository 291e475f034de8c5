package analytics

import (
	"math"

	"github.com/lonshanworld/retail-analytics/models"
)

// Volatility levels by coefficient of variation.
const (
	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"
)

const forecastMethod = "linear_regression"

// DetectWeeklySeasonality reports whether values repeat on a seven-day lag:
// the mean squared 7-day difference (over at most 30 lags) must be under half
// the population variance.
func DetectWeeklySeasonality(values []float64) bool {
	if len(values) < 14 {
		return false
	}
	n := min(len(values)-trendWindow, 30)
	var lagged float64
	for i := 0; i < n; i++ {
		d := values[i] - values[i+trendWindow]
		lagged += d * d
	}
	variance := popStdDev(values)
	variance *= variance
	return variance > 0 && lagged/float64(n) < variance*0.5
}

// Volatility buckets the coefficient of variation of values.
func Volatility(values []float64) string {
	if len(values) < 2 {
		return VolatilityLow
	}
	m := mean(values)
	if m == 0 {
		return VolatilityLow
	}
	switch cv := popStdDev(values) / m; {
	case cv < 0.3:
		return VolatilityLow
	case cv < 0.6:
		return VolatilityMedium
	default:
		return VolatilityHigh
	}
}

// GrowthRate compares a week of forecast revenue with the last week of
// history, as a fraction rounded to three decimals.
func GrowthRate(f *models.SalesForecast) float64 {
	if f == nil || f.ForecastDays <= 0 {
		return 0
	}
	revenues := historicalRevenues(f.Historical)
	var lastWeek float64
	for _, v := range lastN(revenues, trendWindow) {
		lastWeek += v
	}
	if lastWeek <= 0 {
		return 0
	}
	projected := f.TotalPredictedRevenue / float64(f.ForecastDays) * trendWindow
	return math.Round((projected-lastWeek)/lastWeek*1000) / 1000
}

// DescribeForecast derives display metadata for a forecast.
func DescribeForecast(f *models.SalesForecast) models.ForecastMetadata {
	revenues := historicalRevenues(f.Historical)
	return models.ForecastMetadata{
		Method:              forecastMethod,
		SeasonalityDetected: DetectWeeklySeasonality(revenues),
		Volatility:          Volatility(revenues),
		DataPoints:          len(f.Historical),
		GrowthRate:          GrowthRate(f),
	}
}

func historicalRevenues(points []models.TimeSeriesPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Revenue
	}
	return out
}

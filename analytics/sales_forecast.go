package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/lonshanworld/retail-analytics/models"
)

const (
	// confidenceZ is the two-sided 95% normal quantile.
	confidenceZ = 1.96
	// trendWindow is the number of days compared at each end of the history.
	trendWindow = 7
	// minHistoryDays is the shortest history pulled for a forecast.
	minHistoryDays = 90
)

// HistoryWindow is the number of days of history used for a horizon.
func HistoryWindow(days int) int {
	return max(days*3, minHistoryDays)
}

// ClassifyTrend compares the mean of the last seven values with the mean of
// the first seven.
func ClassifyTrend(values []float64) models.Trend {
	recent := mean(lastN(values, trendWindow))
	older := mean(firstN(values, trendWindow))
	switch {
	case recent > older*1.1:
		return models.TrendIncreasing
	case recent < older*0.9:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// ForecastSeries extrapolates a linear trend over a normalized daily history.
// Forecast dates start the day after endDate.
func ForecastSeries(history []models.TimeSeriesPoint, days int, endDate time.Time) (*models.SalesForecast, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: forecast days must be positive, got %d", ErrInvalidParameter, days)
	}

	revenues := make([]float64, len(history))
	orders := make([]float64, len(history))
	for i, p := range history {
		revenues[i] = p.Revenue
		orders[i] = float64(p.Orders)
	}

	revenueLine := fitLine(revenues)
	orderLine := fitLine(orders)
	band := popStdDev(revenues) * confidenceZ

	last := DayKey(endDate)
	lastIndex := len(history) - 1
	points := make([]models.ForecastPoint, 0, days)
	var total float64
	for i := 1; i <= days; i++ {
		x := float64(lastIndex + i)
		predicted := math.Max(0, revenueLine.at(x))
		predictedOrders := max(0, int(math.Round(orderLine.at(x))))

		p := models.ForecastPoint{
			Date:             last.AddDate(0, 0, i).Format(models.DateLayout),
			PredictedRevenue: round2(predicted),
			PredictedOrders:  predictedOrders,
			ConfidenceLower:  round2(math.Max(0, predicted-band)),
			ConfidenceUpper:  round2(predicted + band),
		}
		total += p.PredictedRevenue
		points = append(points, p)
	}

	return &models.SalesForecast{
		ForecastDays:          days,
		Historical:            history,
		Forecast:              points,
		TotalPredictedRevenue: round2(total),
		AverageDailyRevenue:   round2(total / float64(days)),
		Trend:                 ClassifyTrend(revenues),
		Accuracy:              round2(backtestAccuracy(revenues, revenueLine)),
	}, nil
}

// backtestAccuracy scores the fitted line against the last week of actuals.
func backtestAccuracy(revenues []float64, fit line) float64 {
	actual := lastN(revenues, trendWindow)
	offset := len(revenues) - len(actual)
	predicted := make([]float64, len(actual))
	for i := range actual {
		predicted[i] = fit.at(float64(offset + i))
	}
	return AccuracyFromMAPE(MAPE(actual, predicted))
}

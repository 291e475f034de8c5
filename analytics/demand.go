package analytics

import (
	"math"
	"sort"

	"github.com/lonshanworld/retail-analytics/models"
)

const (
	weeksPerMonth      = 4
	stockCoverMonths   = 2
	safetyStockStdDevs = 2
	demandLookbackDays = 90
)

// SmoothBackward folds values from newest to oldest: the latest value seeds
// the estimate and each older value is blended in with weight alpha.
// values must be in chronological order.
func SmoothBackward(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return 0
	}
	smoothed := values[len(values)-1]
	for i := len(values) - 2; i >= 0; i-- {
		smoothed = alpha*values[i] + (1-alpha)*smoothed
	}
	return smoothed
}

// ForecastDemandFromWeeks projects weekly unit sales into next-week and
// next-month demand plus replenishment quantities.
func ForecastDemandFromWeeks(snap models.InventorySnapshot, weeks []models.WeeklyQuantity, params Params) *models.DemandForecast {
	params = params.withDefaults()

	ordered := make([]models.WeeklyQuantity, len(weeks))
	copy(ordered, weeks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].WeekStart.Before(ordered[j].WeekStart)
	})

	quantities := make([]float64, len(ordered))
	for i, w := range ordered {
		quantities[i] = float64(w.Quantity)
	}

	avgWeekly := mean(quantities)
	nextWeek := avgWeekly
	if len(quantities) > 0 {
		nextWeek = SmoothBackward(quantities, params.SmoothingAlpha)
	}
	nextMonth := nextWeek * weeksPerMonth
	safety := ceilUnits(popStdDev(quantities) * safetyStockStdDevs)

	current := snap.CurrentStock
	if snap.Unlimited {
		current = 0
	}

	return &models.DemandForecast{
		ProductID:             snap.ProductID,
		ProductName:           snap.ProductName,
		CurrentStock:          current,
		AverageWeeklySales:    round2(avgWeekly),
		NextWeekDemand:        ceilUnits(nextWeek),
		NextMonthDemand:       ceilUnits(nextMonth),
		SafetyStock:           safety,
		RecommendedStock:      ceilUnits(nextMonth*stockCoverMonths + float64(safety)),
		ReorderPoint:          ceilUnits(nextWeek + float64(safety)),
		EconomicOrderQuantity: EconomicOrderQuantity(nextMonth, params.OrderCost, params.HoldingCost),
	}
}

// EconomicOrderQuantity is ceil(sqrt(2*demand*orderCost/holdingCost)).
func EconomicOrderQuantity(demand, orderCost, holdingCost float64) int {
	if demand <= 0 || holdingCost <= 0 {
		return 0
	}
	return ceilUnits(math.Sqrt(2 * demand * orderCost / holdingCost))
}

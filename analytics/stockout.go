package analytics

import (
	"time"

	"github.com/lonshanworld/retail-analytics/models"
)

const (
	// stockoutWindowDays is the sales window behind the daily burn rate.
	stockoutWindowDays = 30
	// reorderCoverMonths sizes a reorder to this many months of demand.
	reorderCoverMonths = 1.5
)

// PriorityFor tiers a days-until-stockout value.
func PriorityFor(daysUntilStockout *int) models.Priority {
	if daysUntilStockout == nil {
		return models.PriorityLow
	}
	switch d := *daysUntilStockout; {
	case d <= 3:
		return models.PriorityCritical
	case d <= 7:
		return models.PriorityHigh
	case d <= 14:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// PredictStockout models depletion of snap given the units sold over the
// trailing thirty days. Dates are whole days from today.
func PredictStockout(snap models.InventorySnapshot, unitsSold int, today time.Time, params Params) *models.StockoutPrediction {
	params = params.withDefaults()
	today = DayKey(today)
	daily := float64(max(unitsSold, 0)) / stockoutWindowDays

	stock := models.StockLevel(snap.CurrentStock)
	if snap.Unlimited {
		stock = models.UnlimitedStock
	}

	reorderPoint := ceilUnits(daily * float64(params.LeadTimeDays))
	prediction := &models.StockoutPrediction{
		ProductID:                  snap.ProductID,
		ProductName:                snap.ProductName,
		CurrentStock:               stock,
		DailyAverageSales:          round2(daily),
		RecommendedReorderQuantity: ceilUnits(daily * stockoutWindowDays * reorderCoverMonths),
		ReorderPoint:               reorderPoint,
	}

	if !snap.Unlimited && daily > 0 {
		current := float64(snap.CurrentStock)
		days := ceilUnits(current / daily)
		stockoutDate := today.AddDate(0, 0, days)
		prediction.DaysUntilStockout = &days
		prediction.PredictedStockoutDate = &stockoutDate

		reorderDate := today
		if untilReorder := ceilUnits((current - float64(reorderPoint)) / daily); untilReorder > 0 {
			reorderDate = today.AddDate(0, 0, untilReorder)
		}
		prediction.RecommendedReorderDate = &reorderDate
	}

	prediction.Priority = PriorityFor(prediction.DaysUntilStockout)
	return prediction
}

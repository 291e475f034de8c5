package analytics

import (
	"math"
	"sort"

	"github.com/lonshanworld/retail-analytics/models"
)

// Direction labels used by seasonal summaries and forecast outlooks.
const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"
	DirectionCyclic = "cyclic"
)

const (
	// growthThreshold is the half-over-half change, in percent, that counts
	// as a trend.
	growthThreshold = 5
	// cyclicThreshold is the share of mirrored buckets, in percent, that
	// marks a profile as cyclic.
	cyclicThreshold = 60
	extremesShown   = 3
)

// DescribeSeasonal derives the overall analysis, peaks, troughs and a
// next-season projection from a seasonal profile.
func DescribeSeasonal(st *models.SeasonalTrend) models.SeasonalSummary {
	var trends []models.PeriodTrend
	var period models.PeriodType
	if st != nil {
		trends, period = st.Trends, st.Type
	}

	revenues := make([]float64, len(trends))
	for i, t := range trends {
		revenues[i] = t.AverageRevenue
	}

	avg := mean(revenues)
	analysis := models.SeasonalAnalysis{Trend: DirectionStable}
	var growth float64
	if n := len(trends); n >= 2 {
		mid := n / 2
		firstHalf := mean(revenues[:mid])
		secondHalf := mean(revenues[mid:])
		if firstHalf > 0 {
			growth = (secondHalf - firstHalf) / firstHalf * 100
		}
		switch {
		case growth > growthThreshold:
			analysis.Trend = DirectionUp
		case growth < -growthThreshold:
			analysis.Trend = DirectionDown
		}

		if avg > 0 {
			cv := popStdDev(revenues) / avg * 100
			analysis.Strength = int(math.Min(100, roundHalfUp(cv*2)))
		}

		var deviation float64
		for _, t := range trends {
			deviation += math.Abs(indexOrOne(t.Index) - 1)
		}
		analysis.Seasonality = int(math.Min(100, roundHalfUp(deviation/float64(n)*200)))

		if n >= 4 {
			matches := 0
			for i := 0; i < mid; i++ {
				if math.Abs(revenues[i]-revenues[i+mid]) < avg*0.2 {
					matches++
				}
			}
			analysis.Cyclicity = int(roundHalfUp(float64(matches) / float64(mid) * 100))
			if analysis.Cyclicity >= cyclicThreshold && math.Abs(growth) <= growthThreshold {
				analysis.Trend = DirectionCyclic
			}
		}
	}
	analysis.GrowthRate = roundHalfUp(growth*10) / 10

	ranked := make([]models.PeriodTrend, len(trends))
	copy(ranked, trends)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AverageRevenue > ranked[j].AverageRevenue })

	peaks := make([]models.SeasonalExtreme, 0, extremesShown)
	for _, t := range ranked[:min(extremesShown, len(ranked))] {
		peaks = append(peaks, extremeOf(t))
	}
	troughs := make([]models.SeasonalExtreme, 0, extremesShown)
	for i := len(ranked) - 1; i >= max(0, len(ranked)-extremesShown); i-- {
		troughs = append(troughs, extremeOf(ranked[i]))
	}

	expectedTrend := analysis.Trend
	if expectedTrend == DirectionCyclic {
		expectedTrend = DirectionStable
	}

	return models.SeasonalSummary{
		OverallAnalysis: analysis,
		Peaks:           peaks,
		Troughs:         troughs,
		Predictions: models.SeasonalPrediction{
			NextSeason:    nextSeason(period),
			ExpectedTrend: expectedTrend,
			ExpectedValue: roundHalfUp(avg * (1 + growth/100)),
			Confidence:    math.Max(20, math.Min(85, 60+float64(len(trends))*2-math.Abs(growth))),
		},
	}
}

// DescribeForecastDays scores each forecast day by the width of its
// confidence band and labels its move against the previous day.
func DescribeForecastDays(f *models.SalesForecast) []models.ForecastDayOutlook {
	if f == nil {
		return []models.ForecastDayOutlook{}
	}
	out := make([]models.ForecastDayOutlook, len(f.Forecast))
	for i, p := range f.Forecast {
		predicted := p.PredictedRevenue
		lower, upper := p.ConfidenceLower, p.ConfidenceUpper
		if lower == 0 {
			lower = predicted * 0.8
		}
		if upper == 0 {
			upper = predicted * 1.2
		}

		confidence := 70.0
		if predicted > 0 {
			confidence = math.Max(50, math.Min(95, 100-(upper-lower)/predicted*25))
		}

		trend := DirectionStable
		if i > 0 {
			prev := f.Forecast[i-1].PredictedRevenue
			switch {
			case predicted > prev*1.05:
				trend = DirectionUp
			case predicted < prev*0.95:
				trend = DirectionDown
			}
		}
		out[i] = models.ForecastDayOutlook{Date: p.Date, Confidence: int(roundHalfUp(confidence)), Trend: trend}
	}
	return out
}

func extremeOf(t models.PeriodTrend) models.SeasonalExtreme {
	return models.SeasonalExtreme{Period: t.Period, Value: t.AverageRevenue, SeasonalIndex: indexOrOne(t.Index)}
}

// indexOrOne treats a missing index as neutral.
func indexOrOne(index float64) float64 {
	if index == 0 {
		return 1
	}
	return index
}

func nextSeason(t models.PeriodType) string {
	switch t {
	case models.PeriodWeekly:
		return "Next Week"
	case models.PeriodDaily:
		return "Tomorrow"
	default:
		return "Next Month"
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

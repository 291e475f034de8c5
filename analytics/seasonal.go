package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lonshanworld/retail-analytics/models"
)

const (
	highPerformerIndex = 1.2
	lowPerformerIndex  = 0.8
)

var (
	monthNames   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// ParsePeriodType validates a period selector.
func ParsePeriodType(s string) (models.PeriodType, error) {
	switch t := models.PeriodType(strings.ToLower(strings.TrimSpace(s))); t {
	case models.PeriodMonthly, models.PeriodWeekly, models.PeriodDaily:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unsupported period type %q", ErrInvalidParameter, s)
	}
}

// SeasonalLookbackStart returns the beginning of the observation window for
// a period type: one year for monthly, 90 days for weekly, 30 days for daily.
func SeasonalLookbackStart(t models.PeriodType, now time.Time) (time.Time, error) {
	switch t {
	case models.PeriodMonthly:
		return now.AddDate(-1, 0, 0), nil
	case models.PeriodWeekly:
		return now.AddDate(0, 0, -90), nil
	case models.PeriodDaily:
		return now.AddDate(0, 0, -30), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported period type %q", ErrInvalidParameter, t)
	}
}

// periodKey buckets a UTC timestamp: month 1-12, weekday 1-7 with 1 = Sunday,
// or hour 0-23.
func periodKey(t models.PeriodType, ts time.Time) int {
	u := ts.UTC()
	switch t {
	case models.PeriodMonthly:
		return int(u.Month())
	case models.PeriodWeekly:
		return int(u.Weekday()) + 1
	default:
		return u.Hour()
	}
}

// PeriodLabel renders a bucket key for display.
func PeriodLabel(key int, t models.PeriodType) string {
	switch t {
	case models.PeriodMonthly:
		if key >= 1 && key <= len(monthNames) {
			return monthNames[key-1]
		}
		return fmt.Sprintf("Month %d", key)
	case models.PeriodWeekly:
		if key >= 1 && key <= len(weekdayNames) {
			return weekdayNames[key-1]
		}
		return fmt.Sprintf("Day %d", key)
	case models.PeriodDaily:
		return fmt.Sprintf("%d:00", key)
	default:
		return fmt.Sprintf("Period %d", key)
	}
}

func periodName(t models.PeriodType) string {
	switch t {
	case models.PeriodMonthly:
		return "month"
	case models.PeriodWeekly:
		return "dayOfWeek"
	default:
		return "hour"
	}
}

type bucket struct {
	revenue float64
	orders  map[string]struct{}
	anon    int
}

// AnalyzeSeasonal groups observations by period and indexes each bucket's
// revenue against the mean over all buckets present. Empty buckets are
// omitted rather than zero-filled.
func AnalyzeSeasonal(observations []models.OrderObservation, t models.PeriodType) (*models.SeasonalTrend, error) {
	if _, err := ParsePeriodType(string(t)); err != nil {
		return nil, err
	}

	buckets := make(map[int]*bucket)
	for _, o := range observations {
		key := periodKey(t, o.PlacedAt)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{orders: make(map[string]struct{})}
			buckets[key] = b
		}
		b.revenue += o.Revenue
		if o.OrderID == "" {
			b.anon++
		} else {
			b.orders[o.OrderID] = struct{}{}
		}
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	revenues := make([]float64, len(keys))
	for i, k := range keys {
		revenues[i] = round2(buckets[k].revenue)
	}
	overall := mean(revenues)

	trends := make([]models.PeriodTrend, len(keys))
	for i, k := range keys {
		index := 1.0
		if overall != 0 {
			index = round2(revenues[i] / overall)
		}
		trends[i] = models.PeriodTrend{
			Period:         PeriodLabel(k, t),
			AverageRevenue: revenues[i],
			AverageOrders:  len(buckets[k].orders) + buckets[k].anon,
			Index:          index,
		}
	}

	return &models.SeasonalTrend{
		Period:   periodName(t),
		Type:     t,
		Trends:   trends,
		Insights: seasonalInsights(trends),
	}, nil
}

func seasonalInsights(trends []models.PeriodTrend) []string {
	insights := []string{}
	if len(trends) == 0 {
		return insights
	}

	ranked := make([]models.PeriodTrend, len(trends))
	copy(ranked, trends)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageRevenue > ranked[j].AverageRevenue
	})

	peak := ranked[0]
	insights = append(insights, fmt.Sprintf("Peak period: %s with %.2f average revenue", peak.Period, peak.AverageRevenue))
	if len(ranked) > 1 {
		low := ranked[len(ranked)-1]
		insights = append(insights, fmt.Sprintf("Lowest period: %s with %.2f average revenue", low.Period, low.AverageRevenue))
	}

	high, lowCount := 0, 0
	for _, tr := range trends {
		if tr.Index >= highPerformerIndex {
			high++
		}
		if tr.Index <= lowPerformerIndex {
			lowCount++
		}
	}
	if high > 0 {
		insights = append(insights, fmt.Sprintf("%d high-performing periods (20%%+ above average)", high))
	}
	if lowCount > 0 {
		insights = append(insights, fmt.Sprintf("%d low-performing periods (20%%+ below average)", lowCount))
	}
	return insights
}

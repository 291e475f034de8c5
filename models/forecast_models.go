package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Trend classifies the direction of a revenue series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Priority is the urgency tier of a stockout prediction.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// PeriodType selects how seasonal observations are bucketed.
type PeriodType string

const (
	PeriodMonthly PeriodType = "monthly"
	PeriodWeekly  PeriodType = "weekly"
	PeriodDaily   PeriodType = "daily"
)

// TimeSeriesPoint is one calendar day of store activity.
type TimeSeriesPoint struct {
	Date    time.Time `json:"date"`
	Revenue float64   `json:"revenue"`
	Orders  int       `json:"orders"`
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (p TimeSeriesPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date    string  `json:"date"`
		Revenue float64 `json:"revenue"`
		Orders  int     `json:"orders"`
	}{p.Date.Format(DateLayout), p.Revenue, p.Orders})
}

// UnmarshalJSON accepts the YYYY-MM-DD form produced by MarshalJSON.
func (p *TimeSeriesPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date    string  `json:"date"`
		Revenue float64 `json:"revenue"`
		Orders  int     `json:"orders"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("invalid point date %q: %w", raw.Date, err)
	}
	p.Date, p.Revenue, p.Orders = d, raw.Revenue, raw.Orders
	return nil
}

// DateLayout is the calendar-day format used in forecast payloads.
const DateLayout = "2006-01-02"

// ForecastPoint is the prediction for one future day.
type ForecastPoint struct {
	Date             string  `json:"date"`
	PredictedRevenue float64 `json:"predictedRevenue"`
	PredictedOrders  int     `json:"predictedOrders"`
	ConfidenceLower  float64 `json:"confidenceLower"`
	ConfidenceUpper  float64 `json:"confidenceUpper"`
}

// SalesForecast is derived entirely from Historical.
type SalesForecast struct {
	ForecastDays          int               `json:"forecastDays"`
	Historical            []TimeSeriesPoint `json:"historical"`
	Forecast              []ForecastPoint   `json:"forecast"`
	TotalPredictedRevenue float64           `json:"totalPredictedRevenue"`
	AverageDailyRevenue   float64           `json:"averageDailyRevenue"`
	Trend                 Trend             `json:"trend"`
	Accuracy              float64           `json:"accuracy"`
}

// ForecastMetadata describes the shape of the history behind a forecast.
type ForecastMetadata struct {
	Method              string  `json:"method"`
	SeasonalityDetected bool    `json:"seasonalityDetected"`
	Volatility          string  `json:"volatility"`
	DataPoints          int     `json:"dataPoints"`
	GrowthRate          float64 `json:"growthRate"`
}

// StockLevel is an on-hand quantity. Unlimited inventory is +Inf and is
// encoded as the JSON string "unlimited".
type StockLevel float64

// UnlimitedStock is the stock level of an item that never depletes.
var UnlimitedStock = StockLevel(math.Inf(1))

func (s StockLevel) IsUnlimited() bool {
	return math.IsInf(float64(s), 1)
}

func (s StockLevel) MarshalJSON() ([]byte, error) {
	if s.IsUnlimited() {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.FormatFloat(float64(s), 'f', -1, 64)), nil
}

func (s *StockLevel) UnmarshalJSON(data []byte) error {
	if string(data) == `"unlimited"` {
		*s = UnlimitedStock
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid stock level %s: %w", data, err)
	}
	*s = StockLevel(v)
	return nil
}

// StockoutPrediction is the depletion outlook for a single product.
type StockoutPrediction struct {
	ProductID                  string     `json:"productId"`
	ProductName                string     `json:"productName"`
	CurrentStock               StockLevel `json:"currentStock"`
	DailyAverageSales          float64    `json:"dailyAverageSales"`
	PredictedStockoutDate      *time.Time `json:"predictedStockoutDate"`
	DaysUntilStockout          *int       `json:"daysUntilStockout"`
	RecommendedReorderQuantity int        `json:"recommendedReorderQuantity"`
	RecommendedReorderDate     *time.Time `json:"recommendedReorderDate"`
	ReorderPoint               int        `json:"reorderPoint"`
	Priority                   Priority   `json:"priority"`
}

// PeriodTrend is one seasonal bucket. AverageRevenue and AverageOrders are
// totals for the bucket over the whole lookback window.
type PeriodTrend struct {
	Period         string  `json:"period"`
	AverageRevenue float64 `json:"averageRevenue"`
	AverageOrders  int     `json:"averageOrders"`
	Index          float64 `json:"index"`
}

// SeasonalTrend is the seasonal profile of a store.
type SeasonalTrend struct {
	Period   string        `json:"period"`
	Type     PeriodType    `json:"type"`
	Trends   []PeriodTrend `json:"trends"`
	Insights []string      `json:"insights"`
}

// DemandForecast holds whole-unit demand and replenishment figures.
type DemandForecast struct {
	ProductID             string  `json:"productId"`
	ProductName           string  `json:"productName"`
	CurrentStock          int     `json:"currentStock"`
	AverageWeeklySales    float64 `json:"averageWeeklySales"`
	NextWeekDemand        int     `json:"nextWeekDemand"`
	NextMonthDemand       int     `json:"nextMonthDemand"`
	SafetyStock           int     `json:"safetyStock"`
	RecommendedStock      int     `json:"recommendedStock"`
	ReorderPoint          int     `json:"reorderPoint"`
	EconomicOrderQuantity int     `json:"economicOrderQuantity"`
}

// InventorySnapshot is the current stock position of a product.
type InventorySnapshot struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	CurrentStock      int    `json:"currentStock"`
	Unlimited         bool   `json:"unlimited"`
	LowStockThreshold *int   `json:"lowStockThreshold,omitempty"`
}

// OrderObservation is the revenue a single order contributed to a store.
type OrderObservation struct {
	OrderID  string    `json:"orderId"`
	PlacedAt time.Time `json:"placedAt"`
	Revenue  float64   `json:"revenue"`
}

// WeeklyQuantity is the number of units of a product sold in one week.
type WeeklyQuantity struct {
	WeekStart time.Time `json:"weekStart"`
	Quantity  int       `json:"quantity"`
}

// ForecastNarrative contains qualitative commentary on a forecast.
type ForecastNarrative struct {
	Summary         string   `json:"summary"`
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
}

// ForecastDayOutlook annotates one forecast day with a confidence score and
// its direction relative to the previous day.
type ForecastDayOutlook struct {
	Date       string `json:"date"`
	Confidence int    `json:"confidence"`
	Trend      string `json:"trend"`
}

// SeasonalAnalysis summarises the shape of a seasonal profile. Strength,
// Seasonality and Cyclicity are scores from 0 to 100; GrowthRate is a
// percentage.
type SeasonalAnalysis struct {
	Trend       string  `json:"trend"`
	Strength    int     `json:"strength"`
	Seasonality int     `json:"seasonality"`
	Cyclicity   int     `json:"cyclicity"`
	GrowthRate  float64 `json:"growthRate"`
}

// SeasonalExtreme is a peak or trough bucket.
type SeasonalExtreme struct {
	Period        string  `json:"period"`
	Value         float64 `json:"value"`
	SeasonalIndex float64 `json:"seasonalIndex"`
}

// SeasonalPrediction projects the next season from the profile.
type SeasonalPrediction struct {
	NextSeason    string  `json:"nextSeason"`
	ExpectedTrend string  `json:"expectedTrend"`
	ExpectedValue float64 `json:"expectedValue"`
	Confidence    float64 `json:"confidence"`
}

// SeasonalSummary is derived entirely from a SeasonalTrend.
type SeasonalSummary struct {
	OverallAnalysis SeasonalAnalysis   `json:"overallAnalysis"`
	Peaks           []SeasonalExtreme  `json:"peaks"`
	Troughs         []SeasonalExtreme  `json:"troughs"`
	Predictions     SeasonalPrediction `json:"predictions"`
}

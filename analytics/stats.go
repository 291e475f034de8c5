package analytics

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// unitEpsilon absorbs float noise such as 7.000000000000001 before rounding
// a quantity up to whole units.
const unitEpsilon = 1e-9

// line is a fitted y = intercept + slope*x.
type line struct {
	intercept float64
	slope     float64
}

func (l line) at(x float64) float64 {
	return l.intercept + l.slope*x
}

// fitLine runs ordinary least squares of values against their index 0..n-1.
// Fewer than two points yield a flat line through the only value (or zero).
func fitLine(values []float64) line {
	switch len(values) {
	case 0:
		return line{}
	case 1:
		return line{intercept: values[0]}
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	return line{intercept: alpha, slope: beta}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// popStdDev is the population standard deviation; empty input gives 0.
func popStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(values, nil))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ceilUnits rounds a demand quantity up to whole units.
func ceilUnits(v float64) int {
	return int(math.Ceil(v - unitEpsilon))
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func firstN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

package analytics

import "math"

// MAPE returns the mean absolute percentage error over the indices where the
// actual value is non-zero. With no usable term, or mismatched input, it is 100.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 100
	}

	var sum float64
	count := 0
	for i, a := range actual {
		if a == 0 {
			continue
		}
		sum += math.Abs((a - predicted[i]) / a)
		count++
	}
	if count == 0 {
		return 100
	}
	return sum / float64(count) * 100
}

// AccuracyFromMAPE converts an error percentage into a 0..100 score.
func AccuracyFromMAPE(mape float64) float64 {
	return math.Max(0, 100-mape)
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveComputation("sales", "ok", time.Now())
	m.CacheHits.WithLabelValues("sales").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "retail_analytics_computations_total")
	assert.Contains(t, names, "retail_analytics_compute_duration_seconds")
	assert.Contains(t, names, "retail_analytics_cache_hits_total")
}

func TestObserveComputation(t *testing.T) {
	m := New(nil)
	m.ObserveComputation("demand", "not_found", time.Now())
	m.ObserveComputation("demand", "not_found", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Computations.WithLabelValues("demand", "not_found")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Computations.WithLabelValues("demand", "ok")))
}

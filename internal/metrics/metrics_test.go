package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FeedFetches.WithLabelValues("rooms", "success").Inc()
	m.PollSkipped.WithLabelValues("live").Add(2)
	m.Buildings.Set(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "rawat_inap_feed_fetch_total")
	assert.Contains(t, names, "rawat_inap_poll_skipped_total")
	assert.Contains(t, names, "rawat_inap_buildings")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PollSkipped.WithLabelValues("live")))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}

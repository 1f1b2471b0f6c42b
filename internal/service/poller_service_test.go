package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startPoller(t *testing.T, f *fixture, live, catalog time.Duration) (*PollerService, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	p := NewPollerService(f.svc, live, catalog, f.metrics, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(stopped)
	}()
	return p, cancel, stopped
}

func waitStopped(t *testing.T, stopped <-chan struct{}) {
	t.Helper()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerService_FetchesEverythingAtStart(t *testing.T) {
	f := newFixture()
	_, cancel, stopped := startPoller(t, f, time.Hour, 0)

	require.Eventually(t, func() bool {
		b := f.svc.GetBuildings()
		return len(b) == 2 && b[0].Classes[0].Availability != nil && len(f.svc.Current().Rooms) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	waitStopped(t, stopped)
	assert.Equal(t, int32(1), f.catalog.calls.Load())
}

func TestPollerService_SkipsTicksWhileInFlight(t *testing.T) {
	f := newFixture()
	f.live.gate = make(chan struct{})
	_, cancel, stopped := startPoller(t, f, 5*time.Millisecond, 0)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.PollSkipped.WithLabelValues(groupLive)) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), f.live.calls.Load(), "skipped ticks are not queued")

	cancel()
	waitStopped(t, stopped)

	// the blocked run saw the cancel and its data was discarded
	assert.False(t, f.svc.FeedStatuses()[1].HasSnapshot)
}

func TestPollerService_LiveTicksRefetch(t *testing.T) {
	f := newFixture()
	_, cancel, stopped := startPoller(t, f, 10*time.Millisecond, 0)

	require.Eventually(t, func() bool { return f.live.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	waitStopped(t, stopped)
	assert.Equal(t, int32(1), f.catalog.calls.Load(), "catalog fetched once without an interval")
}

func TestPollerService_TriggerCatalogRefresh(t *testing.T) {
	f := newFixture()
	p, cancel, stopped := startPoller(t, f, time.Hour, 0)

	require.Eventually(t, func() bool { return f.catalog.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(f.svc.GetBuildings()) == 2 }, 2*time.Second, 5*time.Millisecond)

	f.catalog.set(sampleCatalog()[:1], nil)

	// the start-up run may still hold the in-flight flag, so keep asking
	require.Eventually(t, func() bool {
		p.TriggerCatalogRefresh()
		return len(f.svc.GetBuildings()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	waitStopped(t, stopped)
	assert.GreaterOrEqual(t, f.catalog.calls.Load(), int32(2))
}

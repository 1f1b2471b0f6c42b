package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"inpatient-room-catalog/internal/metrics"
)

// Poll groups. Each group has at most one run in flight.
const (
	groupLive    = "live"
	groupCatalog = "catalog"
)

// PollerService drives the catalog service on two cadences: the live group
// (availability and rooms) on a fixed interval, and the catalog once at start,
// optionally on its own interval, and on demand.
type PollerService struct {
	catalog         *CatalogService
	liveInterval    time.Duration
	catalogInterval time.Duration
	metrics         *metrics.Metrics
	logger          *zap.Logger

	liveRunning    atomic.Bool
	catalogRunning atomic.Bool
	trigger        chan struct{}
	wg             sync.WaitGroup
}

func NewPollerService(
	catalog *CatalogService,
	liveInterval, catalogInterval time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PollerService {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &PollerService{
		catalog:         catalog,
		liveInterval:    liveInterval,
		catalogInterval: catalogInterval,
		metrics:         m,
		logger:          logger,
		trigger:         make(chan struct{}, 1),
	}
}

// Start runs both groups immediately and then on their tickers until ctx is
// cancelled. It returns once every in-flight run has finished.
func (p *PollerService) Start(ctx context.Context) {
	liveTicker := time.NewTicker(p.liveInterval)
	defer liveTicker.Stop()

	// nil channel: catalog is only refreshed at start and on demand
	var catalogTick <-chan time.Time
	if p.catalogInterval > 0 {
		catalogTicker := time.NewTicker(p.catalogInterval)
		defer catalogTicker.Stop()
		catalogTick = catalogTicker.C
	}

	p.logger.Info("Availability poller started",
		zap.Duration("live_interval", p.liveInterval),
		zap.Duration("catalog_interval", p.catalogInterval),
	)

	p.launch(ctx, groupCatalog)
	p.launch(ctx, groupLive)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.logger.Info("Availability poller stopped")
			return
		case <-liveTicker.C:
			p.launch(ctx, groupLive)
		case <-catalogTick:
			p.launch(ctx, groupCatalog)
		case <-p.trigger:
			p.launch(ctx, groupCatalog)
		}
	}
}

// TriggerCatalogRefresh asks the running poller to refetch the catalog.
// It never blocks; a trigger already pending absorbs this one.
func (p *PollerService) TriggerCatalogRefresh() bool {
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// launch starts a run of group unless one is still in flight, in which case
// the tick is dropped.
func (p *PollerService) launch(ctx context.Context, group string) bool {
	running := &p.liveRunning
	if group == groupCatalog {
		running = &p.catalogRunning
	}

	if !running.CompareAndSwap(false, true) {
		p.metrics.PollSkipped.WithLabelValues(group).Inc()
		p.logger.Debug("Previous poll still in flight, skipping tick", zap.String("group", group))
		return false
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer running.Store(false)
		p.run(ctx, group)
	}()
	return true
}

func (p *PollerService) run(ctx context.Context, group string) {
	start := time.Now()

	var err error
	if group == groupCatalog {
		err = p.catalog.RefreshCatalog(ctx)
	} else {
		err = p.catalog.RefreshLive(ctx)
	}

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Warn("Poll finished with errors",
			zap.String("group", group),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("Poll finished", zap.String("group", group), zap.Duration("took", time.Since(start)))
}

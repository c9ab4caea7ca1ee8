package worker

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
)

const (
	DefaultProbeInterval = time.Minute
	probeTimeout         = 10 * time.Second
)

// ProbeResult is the outcome of the latest ledger ping
type ProbeResult struct {
	Available bool
	CheckedAt time.Time
	Error     string
}

// LedgerProbeWorker pings the ledger in the background so that /health never
// blocks on the durable store
type LedgerProbeWorker struct {
	ledger   interfaces.LedgerRepository
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu   sync.RWMutex
	last ProbeResult
}

// NewLedgerProbeWorker creates a worker probing ledger every interval
func NewLedgerProbeWorker(ledger interfaces.LedgerRepository, interval time.Duration) *LedgerProbeWorker {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &LedgerProbeWorker{
		ledger:   ledger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the probe loop. The first probe runs immediately in the background.
func (w *LedgerProbeWorker) Start(ctx context.Context) {
	logging.From(ctx).Info("ledger probe worker starting", "interval", w.interval.String())
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for completion
func (w *LedgerProbeWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("ledger probe worker stopped")
}

// Last returns the latest probe result. Before the first probe it reports unavailable.
func (w *LedgerProbeWorker) Last() ProbeResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

func (w *LedgerProbeWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.Probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Probe(ctx)
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Probe pings the ledger once and records the result
func (w *LedgerProbeWorker) Probe(ctx context.Context) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	result := ProbeResult{Available: true, CheckedAt: time.Now()}
	if err := w.ledger.Ping(ctx); err != nil {
		result.Available = false
		result.Error = err.Error()
		logging.From(ctx).Warn("ledger probe failed", "error", err)
	}

	w.mu.Lock()
	prev := w.last
	w.last = result
	w.mu.Unlock()

	if !prev.CheckedAt.IsZero() && prev.Available != result.Available {
		logging.From(ctx).Info("ledger availability changed", "available", result.Available)
	}
	return result
}

package poller

import (
	"context"
	"sync"
	"time"

	"github.com/ryzom/shardstatus/internal/logger"
	"github.com/ryzom/shardstatus/internal/shard"
	"github.com/ryzom/shardstatus/internal/storage"
)

// ReportCallback is called after every successful fetch
type ReportCallback func(report shard.Report)

// Status is the poller state exposed to the API
type Status struct {
	Report      shard.Report `json:"-"`
	HasReport   bool         `json:"hasReport"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	LastPoll    time.Time    `json:"lastPoll"`
	LastError   string       `json:"lastError,omitempty"`
	Consecutive int          `json:"consecutiveFailures"`
}

type Poller struct {
	fetcher  Fetcher
	storage  storage.Storage
	interval time.Duration
	ttl      time.Duration

	mu              sync.RWMutex
	last            shard.Report
	hasReport       bool
	updatedAt       time.Time
	lastPoll        time.Time
	lastError       string
	failures        int
	lastCleanupTime time.Time

	callback ReportCallback
}

// New creates a poller. store may be nil when history is not kept.
func New(fetcher Fetcher, store storage.Storage, interval, ttl time.Duration) *Poller {
	return &Poller{
		fetcher:         fetcher,
		storage:         store,
		interval:        interval,
		ttl:             ttl,
		lastCleanupTime: time.Now(),
	}
}

// SetReportCallback sets the callback for new reports
func (p *Poller) SetReportCallback(cb ReportCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callback = cb
}

// Status returns the last known report and fetch outcome
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Status{
		Report:      p.last,
		HasReport:   p.hasReport,
		UpdatedAt:   p.updatedAt,
		LastPoll:    p.lastPoll,
		LastError:   p.lastError,
		Consecutive: p.failures,
	}
}

// Run polls immediately and then every interval until ctx is done
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce performs a single fetch. On failure the previous report is kept.
func (p *Poller) PollOnce(ctx context.Context) error {
	now := time.Now()

	report, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.mu.Lock()
		p.lastPoll = now
		p.lastError = err.Error()
		p.failures++
		failures := p.failures
		p.mu.Unlock()

		logger.Warn("Status fetch failed", "error", err, "consecutive_failures", failures)
		return err
	}

	p.mu.Lock()
	p.last = report
	p.hasReport = true
	p.updatedAt = now
	p.lastPoll = now
	p.lastError = ""
	p.failures = 0
	callback := p.callback
	p.mu.Unlock()

	logger.Debug("Status fetched", "servers", len(report.Servers()))

	if callback != nil {
		callback(report)
	}

	if p.storage != nil {
		if err := storage.SaveReport(p.storage, report, now); err != nil {
			logger.Warn("Save status failed", "error", err)
		}

		// expire old history at most once a minute
		if time.Since(p.lastCleanupTime) > time.Minute {
			if err := p.storage.Cleanup(now.Add(-p.ttl)); err != nil {
				logger.Warn("Cleanup failed", "error", err)
			}
			p.lastCleanupTime = now
		}
	}

	return nil
}

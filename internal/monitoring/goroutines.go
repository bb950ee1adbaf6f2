package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Probe reports the size of one server component, such as live rooms or
// connected sessions.
type Probe func() int

// Options configures a GoroutineMonitor.
type Options struct {
	CheckInterval  time.Duration
	AlertThreshold int
	AlertCooldown  time.Duration
}

// GoroutineMonitor samples the goroutine count together with the sizes of
// registered components, so a leak can be told apart from real load.
type GoroutineMonitor struct {
	mu        sync.RWMutex
	baseline  int
	current   int
	peak      int
	lastAlert time.Time
	probes    map[string]Probe
	counts    map[string]int

	opts   Options
	logger zerolog.Logger
	count  func() int
	now    func() time.Time
}

// NewGoroutineMonitor creates a monitor whose baseline is the current
// goroutine count.
func NewGoroutineMonitor(opts Options, logger zerolog.Logger) *GoroutineMonitor {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 30 * time.Second
	}
	if opts.AlertThreshold <= 0 {
		opts.AlertThreshold = 1000
	}
	if opts.AlertCooldown <= 0 {
		opts.AlertCooldown = 5 * time.Minute
	}
	baseline := runtime.NumGoroutine()
	return &GoroutineMonitor{
		baseline: baseline,
		current:  baseline,
		peak:     baseline,
		probes:   make(map[string]Probe),
		counts:   make(map[string]int),
		opts:     opts,
		logger:   logger.With().Str("component", "GoroutineMonitor").Logger(),
		count:    runtime.NumGoroutine,
		now:      time.Now,
	}
}

// Register adds a component sampled on every check.
func (gm *GoroutineMonitor) Register(name string, probe Probe) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.probes[name] = probe
}

// Run samples every CheckInterval until ctx is cancelled.
func (gm *GoroutineMonitor) Run(ctx context.Context) error {
	gm.logger.Info().
		Int("baseline", gm.baseline).
		Dur("interval", gm.opts.CheckInterval).
		Msg("Started goroutine monitoring")

	ticker := time.NewTicker(gm.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			gm.safeCheck()
		}
	}
}

func (gm *GoroutineMonitor) safeCheck() {
	defer func() {
		if r := recover(); r != nil {
			gm.logger.Error().
				Interface("panic", r).
				Msg("Goroutine check panicked")
		}
	}()
	gm.Check()
}

// Check takes one sample and logs a warning when the goroutine count is
// above the alert threshold, at most once per cooldown.
func (gm *GoroutineMonitor) Check() GoroutineMetrics {
	current := gm.count()

	gm.mu.RLock()
	probes := make(map[string]Probe, len(gm.probes))
	for name, p := range gm.probes {
		probes[name] = p
	}
	gm.mu.RUnlock()

	// Probes may take their own locks.
	counts := make(map[string]int, len(probes))
	for name, p := range probes {
		counts[name] = p()
	}

	now := gm.now()
	gm.mu.Lock()
	gm.current = current
	if current > gm.peak {
		gm.peak = current
	}
	gm.counts = counts
	shouldAlert := current > gm.opts.AlertThreshold && now.Sub(gm.lastAlert) > gm.opts.AlertCooldown
	if shouldAlert {
		gm.lastAlert = now
	}
	metrics := gm.metricsLocked()
	gm.mu.Unlock()

	event := gm.logger.Debug()
	if shouldAlert {
		event = gm.logger.Warn().Int("threshold", gm.opts.AlertThreshold)
	}
	event = event.
		Int("current", metrics.Current).
		Int("baseline", metrics.Baseline).
		Int("peak", metrics.Peak).
		Float64("growth_rate", metrics.GrowthRate())
	for name, n := range counts {
		event = event.Int(name, n)
	}
	if shouldAlert {
		event.Msg("High goroutine count detected - possible leak")
	} else {
		event.Msg("Goroutine metrics")
	}
	return metrics
}

// Metrics returns the last sample.
func (gm *GoroutineMonitor) Metrics() GoroutineMetrics {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.metricsLocked()
}

func (gm *GoroutineMonitor) metricsLocked() GoroutineMetrics {
	counts := make(map[string]int, len(gm.counts))
	for k, v := range gm.counts {
		counts[k] = v
	}
	return GoroutineMetrics{
		Current:         gm.current,
		Baseline:        gm.baseline,
		Peak:            gm.peak,
		Growth:          gm.current - gm.baseline,
		ComponentCounts: counts,
	}
}

// GoroutineMetrics contains goroutine statistics
type GoroutineMetrics struct {
	Current         int            `json:"current"`
	Baseline        int            `json:"baseline"`
	Peak            int            `json:"peak"`
	Growth          int            `json:"growth"`
	ComponentCounts map[string]int `json:"component_counts"`
}

// GrowthRate is the growth over the baseline in percent.
func (m GoroutineMetrics) GrowthRate() float64 {
	if m.Baseline == 0 {
		return 0
	}
	return float64(m.Growth) / float64(m.Baseline) * 100
}

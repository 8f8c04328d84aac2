package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultPendingWindow is how long a fresh request counts as provisionally held.
	DefaultPendingWindow = 5 * time.Minute
	// DefaultCleanupTimeout is the age after which an unconfirmed request is reclaimed.
	DefaultCleanupTimeout = 10 * time.Minute
	// DefaultSweepInterval is how often the monitor runs.
	DefaultSweepInterval = time.Minute

	AutoCancelReason = "auto-cancelled due to timeout"
)

// IsWithinPendingWindow reports whether b is pending and no older than window.
// It is derived on every call and never stored.
func IsWithinPendingWindow(b *Booking, now time.Time, window time.Duration) bool {
	return b.Status == StatusPending && now.Sub(b.CreatedAt) <= window
}

// IsStalePending reports whether b is pending and older than timeout.
func IsStalePending(b *Booking, now time.Time, timeout time.Duration) bool {
	return b.Status == StatusPending && now.Sub(b.CreatedAt) > timeout
}

// Sweeper is the part of the booking service driven by the monitor.
type Sweeper interface {
	SweepStalePending(ctx context.Context, timeout time.Duration) (int, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

type MonitorConfig struct {
	Interval       time.Duration
	CleanupTimeout time.Duration
	AutoComplete   bool
}

// Monitor periodically reclaims stale pending bookings and, when enabled,
// completes confirmed bookings whose end time has passed.
type Monitor struct {
	sweeper Sweeper
	cfg     MonitorConfig
	logger  zerolog.Logger
}

func NewMonitor(sweeper Sweeper, cfg MonitorConfig, logger zerolog.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = DefaultCleanupTimeout
	}
	return &Monitor{
		sweeper: sweeper,
		cfg:     cfg,
		logger:  logger.With().Str("component", "booking-monitor").Logger(),
	}
}

// RunOnce performs a single pass. Errors are logged so the next tick still runs.
func (m *Monitor) RunOnce(ctx context.Context) {
	reclaimed, err := m.sweeper.SweepStalePending(ctx, m.cfg.CleanupTimeout)
	if err != nil {
		m.logger.Error().Err(err).Msg("stale pending sweep failed")
	} else if reclaimed > 0 {
		m.logger.Info().Int("reclaimed", reclaimed).Msg("auto-cancelled stale pending bookings")
	}

	if !m.cfg.AutoComplete {
		return
	}
	completed, err := m.sweeper.CompleteElapsed(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("completion sweep failed")
	} else if completed > 0 {
		m.logger.Info().Int("completed", completed).Msg("completed elapsed bookings")
	}
}

// Run ticks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Info().
		Dur("interval", m.cfg.Interval).
		Dur("cleanup_timeout", m.cfg.CleanupTimeout).
		Bool("auto_complete", m.cfg.AutoComplete).
		Msg("booking monitor started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("booking monitor stopped")
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

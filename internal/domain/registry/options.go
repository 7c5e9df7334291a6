package registry

import (
	"log/slog"
	"time"
)

type hubConfig struct {
	evictionInterval time.Duration
	idleTimeout      time.Duration
	mailboxSize      int
	logger           *slog.Logger
}

func defaultHubConfig() hubConfig {
	return hubConfig{
		evictionInterval: time.Minute,
		idleTimeout:      5 * time.Minute,
		mailboxSize:      64,
		logger:           slog.Default(),
	}
}

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithEvictionInterval configures how often the [JANITOR] process runs
// to reclaim cells whose screens are gone. Zero disables the janitor.
func WithEvictionInterval(d time.Duration) Option {
	return func(h *Hub) {
		h.config.evictionInterval = d
	}
}

// WithIdleTimeout defines the [QUIET_PERIOD] after which a cell
// without subscribers is eligible for eviction. Zero removes empty
// cells as soon as their last subscriber leaves.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.config.idleTimeout = d
	}
}

// WithMailboxSize sets the [BACKPRESSURE] threshold of each cell.
func WithMailboxSize(size int) Option {
	return func(h *Hub) {
		h.config.mailboxSize = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.config.logger = logger
		}
	}
}

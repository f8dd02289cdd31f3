// Package connectivity answers whether the calendar feed is reachable before a fetch is attempted.
package connectivity

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/config"
	"github.com/belphemur/holidays/internal/logging"
)

// Dialer opens network connections
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Checker probes a list of TCP addresses; the network is up when any of them accepts a connection
type Checker struct {
	enabled   bool
	addresses []string
	timeout   time.Duration
	dialer    Dialer
	logger    zerolog.Logger
}

// NewChecker creates a checker from configuration. A nil dialer uses net.Dialer.
func NewChecker(cfg config.ConnectivityConfig, dialer Dialer) *Checker {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &Checker{
		enabled:   cfg.Enabled,
		addresses: cfg.ProbeAddresses,
		timeout:   cfg.Timeout,
		dialer:    dialer,
		logger:    logging.GetLogger("connectivity"),
	}
}

// IsConnected reports whether any probe address is reachable. A disabled checker always reports true.
func (c *Checker) IsConnected(ctx context.Context) bool {
	if !c.enabled {
		return true
	}

	for _, address := range c.addresses {
		probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
		conn, err := c.dialer.DialContext(probeCtx, "tcp", address)
		cancel()
		if err != nil {
			c.logger.Debug().Err(err).Str("address", address).Msg("Connectivity probe failed")
			continue
		}
		_ = conn.Close()
		c.logger.Debug().Str("address", address).Msg("Connectivity probe succeeded")
		return true
	}

	c.logger.Info().Strs("addresses", c.addresses).Msg("No probe address reachable")
	return false
}

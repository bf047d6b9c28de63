// Package health probes tunnel relay servers for reachability and picks
// the first live endpoint out of a priority-ordered candidate list.
package health

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"portkeeper/internal/logger"
	"portkeeper/internal/models"
)

// ControlPort is the relay control port the bore-style protocol listens on.
const ControlPort = 2200

// DefaultRetryDelay is the fixed pause between attempts on one server.
const DefaultRetryDelay = 500 * time.Millisecond

// TimeoutError marks a probe that got no answer inside the deadline.
type TimeoutError struct {
	Server string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("connection to %s timed out after %ds", e.Server, int(e.After.Seconds()))
}

// RefusedError marks a probe the server actively rejected or that failed
// for a non-timeout reason.
type RefusedError struct {
	Server string
	Cause  error
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Server, e.Cause)
}

func (e *RefusedError) Unwrap() error { return e.Cause }

// Prober abstracts the single-server probe so the failover policy can be
// exercised with fakes.
type Prober interface {
	Probe(server string, timeout time.Duration) models.HealthCheckResult
}

// Checker probes relay servers over bare TCP and implements the
// retry-then-fail-over selection policy.
type Checker struct {
	ControlPort int
	RetryDelay  time.Duration

	prober Prober
}

func NewChecker() *Checker {
	c := &Checker{
		ControlPort: ControlPort,
		RetryDelay:  DefaultRetryDelay,
	}
	c.prober = c
	return c
}

// NewCheckerWithProber substitutes the per-server probe, keeping the
// selection policy intact. Used by tests and diagnostics.
func NewCheckerWithProber(p Prober) *Checker {
	return &Checker{
		ControlPort: ControlPort,
		RetryDelay:  DefaultRetryDelay,
		prober:      p,
	}
}

// Probe opens one TCP connection to server:ControlPort and measures
// wall-clock latency to connection success. Timeouts and refusals produce
// distinguishable error text.
func (c *Checker) Probe(server string, timeout time.Duration) models.HealthCheckResult {
	res := models.HealthCheckResult{Server: server}
	addr := net.JoinHostPort(server, strconv.Itoa(c.ControlPort))

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			res.Error = (&TimeoutError{Server: server, After: timeout}).Error()
		} else {
			res.Error = (&RefusedError{Server: server, Cause: err}).Error()
		}
		return res
	}
	latency := time.Since(start).Milliseconds()
	conn.Close()

	res.Reachable = true
	res.LatencyMs = &latency
	return res
}

// SelectFirstAvailable walks servers in priority order, giving each up to
// maxRetries attempts with a fixed pause between attempts, and returns the
// first server any attempt reaches. This is sequential failover, not a
// race; worst case is servers x maxRetries x timeout plus retry delays.
func (c *Checker) SelectFirstAvailable(servers []string, timeout time.Duration, maxRetries int) (string, bool) {
	for _, server := range servers {
		for attempt := 1; attempt <= maxRetries; attempt++ {
			res := c.prober.Probe(server, timeout)
			if res.Reachable {
				logger.Infof("Relay %s reachable (attempt %d/%d, %dms)",
					server, attempt, maxRetries, *res.LatencyMs)
				return server, true
			}
			logger.Warnf("Relay %s unreachable (attempt %d/%d): %s",
				server, attempt, maxRetries, res.Error)
			if attempt < maxRetries {
				time.Sleep(c.RetryDelay)
			}
		}
	}
	return "", false
}

// ProbeAll probes every server exactly once for diagnostic display,
// preserving order and never short-circuiting.
func (c *Checker) ProbeAll(servers []string, timeout time.Duration) []models.HealthCheckResult {
	results := make([]models.HealthCheckResult, 0, len(servers))
	for _, server := range servers {
		results = append(results, c.prober.Probe(server, timeout))
	}
	return results
}

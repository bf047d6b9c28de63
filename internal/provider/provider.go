// Package provider adapts the generic tunnel start/stop/status contract to
// the four supported agent binaries: bore, cloudflared, ngrok and playit.
package provider

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"portkeeper/internal/models"
	"portkeeper/internal/proc"
)

// EventSink receives status transitions pushed by the adapters' watch
// goroutines as the agent process reports progress.
type EventSink interface {
	PublishStatus(instanceID string, provider models.ProviderType, status models.TunnelStatus)
	PublishURL(instanceID string, url string)
}

// Spawner is the process lifecycle surface adapters need.
type Spawner interface {
	Spawn(command string, args []string, workDir string) (*proc.Process, error)
	Terminate(pid int) error
}

// Selector picks a live relay endpoint out of a candidate list.
type Selector interface {
	SelectFirstAvailable(servers []string, timeout time.Duration, maxRetries int) (string, bool)
}

// Deps carries the collaborators shared by all adapters.
type Deps struct {
	Spawner       Spawner
	Selector      Selector
	AgentDir      string
	HealthTimeout time.Duration
	HealthRetries int
}

// Adapter is the per-provider tunnel contract. Start launches the agent
// and returns as soon as the process exists; connection progress arrives
// through the sink from a watch goroutine.
type Adapter interface {
	Name() string
	RequiresAuth() bool
	IsConfigured(cfg *models.TunnelConfig) bool
	Start(cfg *models.TunnelConfig, sink EventSink) (*models.RunningTunnel, error)
	Stop(t *models.RunningTunnel) error
}

// ForType maps a provider tag to its adapter. This is the only dispatch
// site; callers never switch on the provider themselves.
func ForType(p models.ProviderType, deps Deps) (Adapter, error) {
	switch p {
	case models.ProviderBore:
		return &boreAdapter{deps: deps}, nil
	case models.ProviderCloudflare:
		return &cloudflareAdapter{deps: deps}, nil
	case models.ProviderNgrok:
		return &ngrokAdapter{deps: deps}, nil
	case models.ProviderPlayit:
		return &playitAdapter{deps: deps}, nil
	}
	return nil, fmt.Errorf("unknown tunnel provider %q", p)
}

// ensureConfigured is the shared AuthRequired precondition check.
func ensureConfigured(a Adapter, cfg *models.TunnelConfig) error {
	if a.RequiresAuth() && !a.IsConfigured(cfg) {
		return &models.AuthRequiredError{Provider: cfg.Provider}
	}
	return nil
}

// stopAgent terminates the agent process behind a running tunnel. A
// tunnel that never got a pid has nothing to terminate yet.
func stopAgent(sp Spawner, t *models.RunningTunnel) error {
	if t == nil || t.Pid <= 0 {
		return nil
	}
	return sp.Terminate(t.Pid)
}

// scanLines feeds non-empty output lines to handle until EOF.
func scanLines(r io.Reader, handle func(line string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		handle(line)
	}
}

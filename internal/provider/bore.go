package provider

import (
	"fmt"
	"strconv"
	"strings"

	"portkeeper/internal/agent"
	"portkeeper/internal/logger"
	"portkeeper/internal/models"
	"portkeeper/internal/proc"
)

// DefaultBoreServers is the built-in relay priority list used when the
// config carries no candidates.
var DefaultBoreServers = []string{"bore.pub", "bore.digital"}

// boreAdapter runs `bore local <port> --to <server>` against the first
// relay that answers on the control port.
type boreAdapter struct {
	deps Deps
}

func (a *boreAdapter) Name() string { return "bore" }

// The bore relay secret is optional, so bore never blocks on auth.
func (a *boreAdapter) RequiresAuth() bool { return false }

func (a *boreAdapter) IsConfigured(cfg *models.TunnelConfig) bool { return true }

func (a *boreAdapter) Start(cfg *models.TunnelConfig, sink EventSink) (*models.RunningTunnel, error) {
	if err := ensureConfigured(a, cfg); err != nil {
		return nil, err
	}

	servers := cfg.CandidateServers
	if len(servers) == 0 {
		servers = DefaultBoreServers
	}
	server, ok := a.deps.Selector.SelectFirstAvailable(servers, a.deps.HealthTimeout, a.deps.HealthRetries)
	if !ok {
		err := fmt.Errorf("no reachable bore server among %s", strings.Join(servers, ", "))
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	bin := agent.BinaryPath(a.deps.AgentDir, models.ProviderBore)
	if bin == "" {
		err := fmt.Errorf("bore agent is not installed")
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	args := []string{"local", strconv.Itoa(cfg.Port), "--to", server}
	if cfg.Secret != "" {
		args = append(args, "--secret", cfg.Secret)
	}
	p, err := a.deps.Spawner.Spawn(bin, args, "")
	if err != nil {
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	t := models.NewRunningTunnel(cfg.InstanceID, models.ProviderBore, p.Pid)
	sink.PublishStatus(t.InstanceID, t.Provider, models.Connecting())
	go a.watch(p, t, sink)
	return t, nil
}

func (a *boreAdapter) Stop(t *models.RunningTunnel) error {
	return stopAgent(a.deps.Spawner, t)
}

// watch parses agent output for the assigned public endpoint, e.g.
//
//	INFO bore_cli::client: listening at bore.pub:34567
func (a *boreAdapter) watch(p *proc.Process, t *models.RunningTunnel, sink EventSink) {
	scanLines(p.Stdout, func(line string) {
		if url, ok := parseBoreListenLine(line); ok {
			t.SetStatus(models.Connected(url))
			sink.PublishStatus(t.InstanceID, t.Provider, models.Connected(url))
			sink.PublishURL(t.InstanceID, url)
			return
		}
		if isBoreErrorLine(line) && t.Status().Kind != models.StatusConnected {
			perr := &models.AgentProtocolError{Provider: t.Provider, Detail: line}
			logger.Warnf("Tunnel %s: %v", t.InstanceID, perr)
			t.SetStatus(models.ErrorStatus(perr.Error()))
			sink.PublishStatus(t.InstanceID, t.Provider, models.ErrorStatus(perr.Error()))
		}
	})
	if t.Status().Kind == models.StatusConnecting {
		msg := "bore agent exited before connecting"
		t.SetStatus(models.ErrorStatus(msg))
		sink.PublishStatus(t.InstanceID, t.Provider, models.ErrorStatus(msg))
	}
	p.Wait()
}

// parseBoreListenLine extracts "bore.pub:34567" from a listen line.
func parseBoreListenLine(line string) (string, bool) {
	const marker = "listening at "
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	url := strings.TrimSpace(line[idx+len(marker):])
	if url == "" {
		return "", false
	}
	return url, true
}

func isBoreErrorLine(line string) bool {
	return strings.Contains(line, "ERROR") || strings.Contains(line, "error:")
}

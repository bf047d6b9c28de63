package provider

import (
	"fmt"
	"regexp"

	"portkeeper/internal/agent"
	"portkeeper/internal/models"
	"portkeeper/internal/proc"
)

var (
	playitClaimURL = regexp.MustCompile(`https://playit\.gg/claim/[A-Za-z0-9]+`)
	playitAddress  = regexp.MustCompile(`[a-z0-9][a-z0-9.-]*\.(?:ply\.gg|joinmc\.link)(?::\d+)?`)
)

// playitAdapter runs the playit agent. On a fresh machine the agent
// prints a claim URL the user must visit before the tunnel comes up
// (the WaitingForClaim state); a stored secret skips that handshake.
type playitAdapter struct {
	deps Deps
}

func (a *playitAdapter) Name() string { return "playit" }

// The claim flow substitutes for a pre-stored credential.
func (a *playitAdapter) RequiresAuth() bool { return false }

func (a *playitAdapter) IsConfigured(cfg *models.TunnelConfig) bool { return true }

func (a *playitAdapter) Start(cfg *models.TunnelConfig, sink EventSink) (*models.RunningTunnel, error) {
	if err := ensureConfigured(a, cfg); err != nil {
		return nil, err
	}

	bin := agent.BinaryPath(a.deps.AgentDir, models.ProviderPlayit)
	if bin == "" {
		err := fmt.Errorf("playit agent is not installed")
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	var args []string
	if cfg.Secret != "" {
		args = append(args, "--secret", cfg.Secret)
	}
	p, err := a.deps.Spawner.Spawn(bin, args, "")
	if err != nil {
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	t := models.NewRunningTunnel(cfg.InstanceID, models.ProviderPlayit, p.Pid)
	sink.PublishStatus(t.InstanceID, t.Provider, models.Connecting())
	go a.watch(p, t, sink)
	return t, nil
}

func (a *playitAdapter) Stop(t *models.RunningTunnel) error {
	return stopAgent(a.deps.Spawner, t)
}

func (a *playitAdapter) watch(p *proc.Process, t *models.RunningTunnel, sink EventSink) {
	scanLines(p.Stdout, func(line string) {
		if t.Status().Kind == models.StatusConnected {
			return
		}
		if claim := playitClaimURL.FindString(line); claim != "" {
			t.SetStatus(models.WaitingForClaim(claim))
			sink.PublishStatus(t.InstanceID, t.Provider, models.WaitingForClaim(claim))
			return
		}
		if addr := playitAddress.FindString(line); addr != "" {
			t.SetStatus(models.Connected(addr))
			sink.PublishStatus(t.InstanceID, t.Provider, models.Connected(addr))
			sink.PublishURL(t.InstanceID, addr)
		}
	})
	switch t.Status().Kind {
	case models.StatusConnecting, models.StatusWaitingForClaim:
		msg := "playit agent exited before connecting"
		t.SetStatus(models.ErrorStatus(msg))
		sink.PublishStatus(t.InstanceID, t.Provider, models.ErrorStatus(msg))
	}
	p.Wait()
}

package provider

import (
	"fmt"
	"regexp"
	"sync"

	"portkeeper/internal/agent"
	"portkeeper/internal/models"
	"portkeeper/internal/proc"
)

var trycloudflareURL = regexp.MustCompile(`https://[a-zA-Z0-9-]+\.trycloudflare\.com`)

// cloudflareAdapter runs a cloudflared quick tunnel:
// `cloudflared tunnel --url tcp://localhost:<port> --no-autoupdate`.
// Quick tunnels need no credential.
type cloudflareAdapter struct {
	deps Deps
}

func (a *cloudflareAdapter) Name() string { return "cloudflare" }

func (a *cloudflareAdapter) RequiresAuth() bool { return false }

func (a *cloudflareAdapter) IsConfigured(cfg *models.TunnelConfig) bool { return true }

func (a *cloudflareAdapter) Start(cfg *models.TunnelConfig, sink EventSink) (*models.RunningTunnel, error) {
	if err := ensureConfigured(a, cfg); err != nil {
		return nil, err
	}

	bin := agent.BinaryPath(a.deps.AgentDir, models.ProviderCloudflare)
	if bin == "" {
		err := fmt.Errorf("cloudflared agent is not installed")
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	args := []string{
		"tunnel",
		"--url", fmt.Sprintf("tcp://localhost:%d", cfg.Port),
		"--no-autoupdate",
	}
	p, err := a.deps.Spawner.Spawn(bin, args, "")
	if err != nil {
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	t := models.NewRunningTunnel(cfg.InstanceID, models.ProviderCloudflare, p.Pid)
	sink.PublishStatus(t.InstanceID, t.Provider, models.Connecting())
	go a.watch(p, t, sink)
	return t, nil
}

func (a *cloudflareAdapter) Stop(t *models.RunningTunnel) error {
	return stopAgent(a.deps.Spawner, t)
}

// watch scans both pipes; cloudflared prints the assigned
// trycloudflare.com URL to its log output on stderr.
func (a *cloudflareAdapter) watch(p *proc.Process, t *models.RunningTunnel, sink EventSink) {
	handle := func(line string) {
		if t.Status().Kind == models.StatusConnected {
			return
		}
		if url := trycloudflareURL.FindString(line); url != "" {
			t.SetStatus(models.Connected(url))
			sink.PublishStatus(t.InstanceID, t.Provider, models.Connected(url))
			sink.PublishURL(t.InstanceID, url)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(p.Stdout, handle)
	}()
	go func() {
		defer wg.Done()
		scanLines(p.Stderr, handle)
	}()
	wg.Wait()

	if t.Status().Kind == models.StatusConnecting {
		msg := "cloudflared exited before assigning a tunnel URL"
		t.SetStatus(models.ErrorStatus(msg))
		sink.PublishStatus(t.InstanceID, t.Provider, models.ErrorStatus(msg))
	}
	p.Wait()
}

package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"portkeeper/internal/agent"
	"portkeeper/internal/logger"
	"portkeeper/internal/models"
	"portkeeper/internal/proc"
)

// ngrokAdapter runs `ngrok tcp <port>` with JSON logging on stdout.
// ngrok refuses to start without a stored authtoken.
type ngrokAdapter struct {
	deps Deps
}

func (a *ngrokAdapter) Name() string { return "ngrok" }

func (a *ngrokAdapter) RequiresAuth() bool { return true }

func (a *ngrokAdapter) IsConfigured(cfg *models.TunnelConfig) bool {
	return strings.TrimSpace(cfg.Secret) != ""
}

func (a *ngrokAdapter) Start(cfg *models.TunnelConfig, sink EventSink) (*models.RunningTunnel, error) {
	if err := ensureConfigured(a, cfg); err != nil {
		return nil, err
	}

	bin := agent.BinaryPath(a.deps.AgentDir, models.ProviderNgrok)
	if bin == "" {
		err := fmt.Errorf("ngrok agent is not installed")
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	args := []string{
		"tcp", strconv.Itoa(cfg.Port),
		"--authtoken", cfg.Secret,
		"--log", "stdout",
		"--log-format", "json",
	}
	p, err := a.deps.Spawner.Spawn(bin, args, "")
	if err != nil {
		sink.PublishStatus(cfg.InstanceID, cfg.Provider, models.ErrorStatus(err.Error()))
		return nil, err
	}

	t := models.NewRunningTunnel(cfg.InstanceID, models.ProviderNgrok, p.Pid)
	sink.PublishStatus(t.InstanceID, t.Provider, models.Connecting())
	go a.watch(p, t, sink)
	return t, nil
}

func (a *ngrokAdapter) Stop(t *models.RunningTunnel) error {
	return stopAgent(a.deps.Spawner, t)
}

// ngrokLogLine is the subset of ngrok's JSON log fields we react to.
type ngrokLogLine struct {
	Level string `json:"lvl"`
	Msg   string `json:"msg"`
	URL   string `json:"url"`
	Err   string `json:"err"`
}

func (a *ngrokAdapter) watch(p *proc.Process, t *models.RunningTunnel, sink EventSink) {
	scanLines(p.Stdout, func(line string) {
		entry, err := parseNgrokLine(line)
		if err != nil {
			if t.Status().Kind == models.StatusConnected {
				return
			}
			perr := &models.AgentProtocolError{Provider: t.Provider, Detail: err.Error()}
			logger.Warnf("Tunnel %s: %v", t.InstanceID, perr)
			t.SetStatus(models.ErrorStatus(perr.Error()))
			sink.PublishStatus(t.InstanceID, t.Provider, models.ErrorStatus(perr.Error()))
			return
		}
		switch {
		case strings.HasPrefix(entry.URL, "tcp://"):
			t.SetStatus(models.Connected(entry.URL))
			sink.PublishStatus(t.InstanceID, t.Provider, models.Connected(entry.URL))
			sink.PublishURL(t.InstanceID, entry.URL)
		case entry.Level == "eror" || entry.Level == "crit":
			msg := entry.Err
			if msg == "" {
				msg = entry.Msg
			}
			t.SetStatus(models.ErrorStatus(msg))
			sink.PublishStatus(t.InstanceID, t.Provider, models.ErrorStatus(msg))
		}
	})
	if t.Status().Kind == models.StatusConnecting {
		msg := "ngrok agent exited before connecting"
		t.SetStatus(models.ErrorStatus(msg))
		sink.PublishStatus(t.InstanceID, t.Provider, models.ErrorStatus(msg))
	}
	p.Wait()
}

func parseNgrokLine(line string) (*ngrokLogLine, error) {
	var entry ngrokLogLine
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return nil, fmt.Errorf("malformed log line %q: %v", line, err)
	}
	return &entry, nil
}

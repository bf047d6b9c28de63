package services

import (
	"time"

	"portkeeper/internal/config"
	"portkeeper/internal/health"
	"portkeeper/internal/logger"
	"portkeeper/internal/models"
	"portkeeper/internal/proc"
	"portkeeper/internal/provider"
	"portkeeper/internal/utils"
)

// TunnelManager orchestrates provider selection, registry mutation and
// event emission. It is the entry point used by the API and CLI layers
// and is safe for concurrent use.
type TunnelManager struct {
	registry *TunnelRegistry
	bus      *EventBus
	deps     provider.Deps

	// seams replaced by tests
	resolve func(models.ProviderType, provider.Deps) (provider.Adapter, error)
	alive   func(pid int) bool
}

// NewTunnelManager wires the orchestrator with its collaborators. The
// supervisor and checker are shared across all adapters.
func NewTunnelManager(registry *TunnelRegistry, bus *EventBus, supervisor *proc.Supervisor, checker *health.Checker, cfg *config.AppConfig) *TunnelManager {
	return &TunnelManager{
		registry: registry,
		bus:      bus,
		deps: provider.Deps{
			Spawner:       supervisor,
			Selector:      checker,
			AgentDir:      cfg.Agents.Dir,
			HealthTimeout: time.Duration(cfg.Health.TimeoutSeconds) * time.Second,
			HealthRetries: cfg.Health.MaxRetries,
		},
		resolve: provider.ForType,
		alive:   supervisor.IsRunning,
	}
}

// Bus exposes the event fan-out for observers (API push, URL persistence).
func (tm *TunnelManager) Bus() *EventBus { return tm.bus }

// Start launches a tunnel for instanceID with the given config. It fails
// fast with ErrAlreadyRunning when the registry already holds the
// instance, and with AuthRequiredError when the provider needs a missing
// credential. The slow work (relay probing, spawning) happens in the
// adapter before the registry's exclusive section is touched.
func (tm *TunnelManager) Start(instanceID string, cfg *models.TunnelConfig) error {
	if tm.registry.Get(instanceID) != nil {
		return models.ErrAlreadyRunning
	}

	c := *cfg
	c.InstanceID = instanceID

	if c.Port > 0 && !utils.IsPortListening(c.Port) {
		logger.Warnf("Nothing is listening on local port %d yet; the tunnel will expose it anyway", c.Port)
	}

	adapter, err := tm.resolve(c.Provider, tm.deps)
	if err != nil {
		return err
	}

	t, err := adapter.Start(&c, tm.bus)
	if err != nil {
		logger.Errorf("Failed to start %s tunnel for instance %s: %v", adapter.Name(), instanceID, err)
		return err
	}

	if !tm.registry.TryInsert(instanceID, t) {
		// Lost a start-vs-start race; tear down the extra agent.
		if stopErr := adapter.Stop(t); stopErr != nil {
			logger.Errorf("Failed to stop duplicate %s agent for instance %s: %v",
				adapter.Name(), instanceID, stopErr)
		}
		return models.ErrAlreadyRunning
	}

	logger.Infof("Started %s tunnel for instance %s (PID: %d)", adapter.Name(), instanceID, t.Pid)
	return nil
}

// Stop removes the instance's tunnel from the registry, terminates the
// agent and emits the terminal Disconnected event. The provider is
// resolved from the stored handle, not re-read from config, since config
// may have changed since start.
func (tm *TunnelManager) Stop(instanceID string) error {
	t := tm.registry.Remove(instanceID)
	if t == nil {
		return models.ErrNotRunning
	}

	adapter, err := tm.resolve(t.Provider, tm.deps)
	if err != nil {
		return err
	}

	stopErr := adapter.Stop(t)
	if stopErr != nil {
		logger.Errorf("Failed to stop %s tunnel for instance %s: %v", adapter.Name(), instanceID, stopErr)
	}

	t.SetStatus(models.Disconnected())
	tm.bus.PublishStatus(instanceID, t.Provider, models.Disconnected())
	logger.Infof("Stopped %s tunnel for instance %s", adapter.Name(), instanceID)
	return stopErr
}

// Status returns a snapshot of the instance's tunnel state. Unknown
// instances are Disconnected.
func (tm *TunnelManager) Status(instanceID string) models.TunnelStatus {
	t := tm.registry.Get(instanceID)
	if t == nil {
		return models.Disconnected()
	}
	return t.Status()
}

// IsRunning reports whether a tunnel is registered for instanceID.
func (tm *TunnelManager) IsRunning(instanceID string) bool {
	return tm.registry.Get(instanceID) != nil
}

// List snapshots every registered tunnel's instance id and status.
func (tm *TunnelManager) List() []models.StatusResponse {
	ids := tm.registry.InstanceIDs()
	out := make([]models.StatusResponse, 0, len(ids))
	for _, id := range ids {
		if t := tm.registry.Get(id); t != nil {
			out = append(out, models.StatusResponse{InstanceID: id, Status: t.Status()})
		}
	}
	return out
}

// StopAll best-effort stops every registered tunnel at shutdown.
// Individual failures are logged and do not abort the remaining stops.
func (tm *TunnelManager) StopAll() {
	for _, id := range tm.registry.InstanceIDs() {
		if err := tm.Stop(id); err != nil {
			logger.Errorf("Failed to stop tunnel for instance %s: %v", id, err)
		}
	}
}

// CheckTunnels is the periodic supervision sweep: a registered tunnel
// whose agent process has died transitions to Error. There is no
// automatic respawn; an explicit stop/start is required.
func (tm *TunnelManager) CheckTunnels() {
	for _, id := range tm.registry.InstanceIDs() {
		t := tm.registry.Get(id)
		if t == nil || t.Pid <= 0 {
			continue
		}
		kind := t.Status().Kind
		if kind == models.StatusError || kind == models.StatusDisconnected {
			continue
		}
		if tm.alive(t.Pid) {
			continue
		}
		logger.Warnf("Agent process for instance %s (PID: %d) is gone", id, t.Pid)
		status := models.ErrorStatus("agent process exited unexpectedly")
		t.SetStatus(status)
		tm.bus.PublishStatus(id, t.Provider, status)
	}
}

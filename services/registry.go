package services

import (
	"sync"

	"portkeeper/internal/models"
)

// TunnelRegistry is the single source of truth for which instances have a
// running tunnel. The exclusive section covers map operations only; slow
// work (probing, spawning) happens in the adapters before insertion.
type TunnelRegistry struct {
	mu      sync.RWMutex
	tunnels map[string]*models.RunningTunnel
}

func NewTunnelRegistry() *TunnelRegistry {
	return &TunnelRegistry{tunnels: make(map[string]*models.RunningTunnel)}
}

// TryInsert registers a tunnel for its instance id. It returns false when
// an entry already exists; this is the sole enforcement point for the
// one-tunnel-per-instance invariant.
func (r *TunnelRegistry) TryInsert(instanceID string, t *models.RunningTunnel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tunnels[instanceID]; exists {
		return false
	}
	r.tunnels[instanceID] = t
	activeTunnels.Set(float64(len(r.tunnels)))
	return true
}

// Remove deregisters and returns the tunnel for instanceID, nil if absent.
func (r *TunnelRegistry) Remove(instanceID string) *models.RunningTunnel {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, exists := r.tunnels[instanceID]
	if !exists {
		return nil
	}
	delete(r.tunnels, instanceID)
	activeTunnels.Set(float64(len(r.tunnels)))
	return t
}

// Get returns the registered tunnel for instanceID, nil if absent.
func (r *TunnelRegistry) Get(instanceID string) *models.RunningTunnel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tunnels[instanceID]
}

// InstanceIDs snapshots the ids of every registered tunnel.
func (r *TunnelRegistry) InstanceIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.tunnels))
	for id := range r.tunnels {
		ids = append(ids, id)
	}
	return ids
}

// Len reports how many tunnels are registered.
func (r *TunnelRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tunnels)
}

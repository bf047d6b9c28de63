package models

import (
	"fmt"
	"sync"
)

// ProviderType identifies which external tunnel agent exposes an instance.
type ProviderType string

const (
	ProviderBore       ProviderType = "bore"
	ProviderCloudflare ProviderType = "cloudflare"
	ProviderNgrok      ProviderType = "ngrok"
	ProviderPlayit     ProviderType = "playit"
)

// ParseProviderType validates a provider name coming from config or the API.
func ParseProviderType(s string) (ProviderType, error) {
	switch ProviderType(s) {
	case ProviderBore, ProviderCloudflare, ProviderNgrok, ProviderPlayit:
		return ProviderType(s), nil
	}
	return "", fmt.Errorf("unknown tunnel provider %q", s)
}

// StatusKind enumerates the closed set of tunnel connection states.
type StatusKind string

const (
	// Initial state and the terminal state after a stop.
	StatusDisconnected StatusKind = "disconnected"
	// Agent process launched, public route not yet established.
	StatusConnecting StatusKind = "connecting"
	// Public route established; URL is the reachable address.
	StatusConnected StatusKind = "connected"
	// Provider requires the user to visit ClaimURL before connecting.
	StatusWaitingForClaim StatusKind = "waiting_for_claim"
	// Terminal failure; Message carries the cause.
	StatusError StatusKind = "error"
)

// TunnelStatus is one state-machine value. Only the field matching Kind
// is populated.
type TunnelStatus struct {
	Kind     StatusKind `json:"kind"`
	URL      string     `json:"url,omitempty"`
	ClaimURL string     `json:"claimUrl,omitempty"`
	Message  string     `json:"message,omitempty"`
}

func Disconnected() TunnelStatus              { return TunnelStatus{Kind: StatusDisconnected} }
func Connecting() TunnelStatus                { return TunnelStatus{Kind: StatusConnecting} }
func Connected(url string) TunnelStatus       { return TunnelStatus{Kind: StatusConnected, URL: url} }
func WaitingForClaim(url string) TunnelStatus { return TunnelStatus{Kind: StatusWaitingForClaim, ClaimURL: url} }
func ErrorStatus(message string) TunnelStatus { return TunnelStatus{Kind: StatusError, Message: message} }

// TunnelConfig is the persisted per-instance tunnel settings record. It is
// created by the settings surface, stored externally, and read by the
// manager at start time.
type TunnelConfig struct {
	ID               string       `json:"id" mapstructure:"id"`
	InstanceID       string       `json:"instanceId" mapstructure:"instance_id"`
	Provider         ProviderType `json:"provider" mapstructure:"provider"`
	Enabled          bool         `json:"enabled" mapstructure:"enabled"`
	AutoStart        bool         `json:"autoStart" mapstructure:"auto_start"`
	Secret           string       `json:"secret,omitempty" mapstructure:"secret"`
	Port             int          `json:"port" mapstructure:"port"`
	LastURL          string       `json:"lastUrl,omitempty" mapstructure:"last_url"`
	CandidateServers []string     `json:"candidateServers,omitempty" mapstructure:"candidate_servers"`
}

// RunningTunnel is the live handle for one started tunnel. The registry
// entry for its instance id is the only long-lived owner; the adapter
// writes status through the cell while readers take snapshots.
type RunningTunnel struct {
	InstanceID string       `json:"instanceId"`
	Provider   ProviderType `json:"provider"`
	Pid        int          `json:"pid"`

	mu     sync.RWMutex
	status TunnelStatus
}

// NewRunningTunnel creates a handle in the Connecting state.
func NewRunningTunnel(instanceID string, provider ProviderType, pid int) *RunningTunnel {
	return &RunningTunnel{
		InstanceID: instanceID,
		Provider:   provider,
		Pid:        pid,
		status:     Connecting(),
	}
}

// SetStatus replaces the current status. Called by the owning adapter's
// watch goroutine as the agent reports progress.
func (t *RunningTunnel) SetStatus(s TunnelStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Status returns a snapshot of the current status, never a live reference.
func (t *RunningTunnel) Status() TunnelStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

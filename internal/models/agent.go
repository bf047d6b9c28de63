package models

// AgentInfo is a read-only snapshot describing the on-disk tunnel agent
// binary for one provider, used for setup diagnostics.
type AgentInfo struct {
	Provider  ProviderType `json:"provider"`
	Version   string       `json:"version,omitempty"`
	Path      string       `json:"path,omitempty"`
	Installed bool         `json:"installed"`
}

package models

// HealthCheckResult is the outcome of a single relay-server probe.
// LatencyMs is set only when the server was reachable; Error carries the
// failure text (timeout and refusal are distinguishable by message) only
// when it was not. Results are ephemeral and never persisted.
type HealthCheckResult struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	LatencyMs *int64 `json:"latencyMs,omitempty"`
	Error     string `json:"error,omitempty"`
}

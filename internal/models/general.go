package models

// ErrorResponse defines API error response format
type ErrorResponse struct {
	Error string `json:"error"`
}

// TunnelResponse defines tunnel operation success response format
type TunnelResponse struct {
	InstanceID string `json:"instanceId"` // instance identifier
	Status     string `json:"status"`     // operation status
	Message    string `json:"message"`    // response message
}

// StartTunnelRequest is the POST /tunnels request body.
type StartTunnelRequest struct {
	InstanceID string       `json:"instanceId" binding:"required"`
	Config     TunnelConfig `json:"config"`
}

// RunningResponse reports whether a tunnel is registered for an instance.
type RunningResponse struct {
	InstanceID string `json:"instanceId"`
	Running    bool   `json:"running"`
}

// StatusResponse is the GET /tunnels/:instance/status response body.
type StatusResponse struct {
	InstanceID string       `json:"instanceId"`
	Status     TunnelStatus `json:"status"`
}

// SelectServerRequest is the POST /health/select request body.
type SelectServerRequest struct {
	Servers        []string `json:"servers" binding:"required"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
	MaxRetries     int      `json:"maxRetries"`
}

// SelectServerResponse carries the first reachable server, empty if none.
type SelectServerResponse struct {
	Server string `json:"server"`
	Found  bool   `json:"found"`
}

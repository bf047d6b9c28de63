package models

import (
	"errors"
	"fmt"
)

// Precondition errors returned synchronously to callers; never retried.
var (
	ErrAlreadyRunning = errors.New("tunnel already running for instance")
	ErrNotRunning     = errors.New("no tunnel running for instance")
)

// AuthRequiredError reports a provider that needs a stored credential
// before it can be started.
type AuthRequiredError struct {
	Provider ProviderType
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("provider %s requires an auth token, none configured", e.Provider)
}

// SpawnError reports that the OS refused to create the agent process.
// Fatal for the start attempt; there is no automatic respawn.
type SpawnError struct {
	Command string
	Cause   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Command, e.Cause)
}

func (e *SpawnError) Unwrap() error { return e.Cause }

// AgentProtocolError reports malformed or unexpected agent output during
// status parsing. It marks the tunnel Error but does not kill the process.
type AgentProtocolError struct {
	Provider ProviderType
	Detail   string
}

func (e *AgentProtocolError) Error() string {
	return fmt.Sprintf("%s agent produced unexpected output: %s", e.Provider, e.Detail)
}

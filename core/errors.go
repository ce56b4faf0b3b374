package orchestration

import (
	"errors"
	"fmt"
)

var (
	ErrSessionActive = errors.New("session already starting or connected")
	// ErrStartAborted is returned by a start that was overtaken by a stop.
	ErrStartAborted = errors.New("session start aborted by stop")
	ErrNotConnected = errors.New("session not connected")
	ErrUnsupported  = errors.New("operation not supported by provider session")
	ErrConfigLocked = errors.New("configuration cannot change while a session is active")
	ErrClosed       = errors.New("orchestrator closed")
	ErrEmptyMessage = errors.New("message is empty")
	// ErrStreamDisconnected is returned by a start whose stream was lost
	// before the session connected.
	ErrStreamDisconnected = errors.New("stream disconnected while connecting")
)

// AuthError reports that no access token could be obtained.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("failed to obtain access token: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ProviderStartError reports that the provider rejected the session.
type ProviderStartError struct {
	// Op is the provider call that failed.
	Op  string
	Err error
}

func (e *ProviderStartError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}
func (e *ProviderStartError) Unwrap() error { return e.Err }

// VoiceChatError reports that voice chat could not be enabled on a started
// session. The session stays connected.
type VoiceChatError struct {
	Err error
}

func (e *VoiceChatError) Error() string { return fmt.Sprintf("failed to enable voice chat: %v", e.Err) }
func (e *VoiceChatError) Unwrap() error { return e.Err }

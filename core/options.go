package orchestration

import (
	"context"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/events"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/transcript"
)

type OrchestratorOption func(*Orchestrator)

// TokenSource issues a fresh access token for every call.
type TokenSource interface {
	Fetch(ctx context.Context) (string, error)
}

// Provider creates sessions on the streaming service.
type Provider interface {
	NewSession(ctx context.Context, token string) (ProviderSession, error)
}

// ProviderSession is one session on the streaming service. Handlers passed
// to Subscribe may be invoked from any goroutine.
//
// Sessions may additionally implement Speak(ctx, text) error,
// Interrupt(ctx) error and SendAudio(audio []byte) error.
type ProviderSession interface {
	Subscribe(kind events.Kind, handler func(events.Event))
	Start(ctx context.Context, config avatar.Config) (*avatar.MediaStream, error)
	StartVoiceChat(ctx context.Context) error
	Stop(ctx context.Context) error
}

// AudioInput captures microphone audio while voice chat is active. Stream
// should block until ctx is done.
type AudioInput interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
}

type speaker interface {
	Speak(ctx context.Context, text string) error
}

type interrupter interface {
	Interrupt(ctx context.Context) error
}

type audioSink interface {
	SendAudio(audio []byte) error
}

type callbacks struct {
	onStateChanged          func(SessionState)
	onVoiceChatStateChanged func(VoiceChatState)
	onTranscript            func(transcript.Entry)
	onEvent                 func(events.Event)
	onError                 func(error)
}

// WithConfig sets the configuration the first session starts with. The
// config is not validated until a start is requested.
func WithConfig(config avatar.Config) OrchestratorOption {
	return func(o *Orchestrator) { o.config = config }
}

func WithAudioInput(input AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput = input }
}

func WithStateChangedCallback(callback func(SessionState)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onStateChanged = callback }
}

func WithVoiceChatStateChangedCallback(callback func(VoiceChatState)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onVoiceChatStateChanged = callback }
}

// WithTranscriptCallback registers a callback for every transcript entry
// appended during the session.
func WithTranscriptCallback(callback func(transcript.Entry)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onTranscript = callback }
}

// WithEventCallback registers a callback receiving every inbound event of
// the current session after the orchestrator handled it.
func WithEventCallback(callback func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onEvent = callback }
}

// WithErrorCallback registers a callback for failures meant to be shown to
// the user: start failures, voice chat failures and failed stops.
func WithErrorCallback(callback func(error)) OrchestratorOption {
	return func(o *Orchestrator) { o.callbacks.onError = callback }
}

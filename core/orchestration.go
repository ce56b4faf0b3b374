package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/tokens"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/transcript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const cleanupTimeout = 5 * time.Second

// Orchestrator owns the lifecycle of one avatar session at a time. It is
// safe for concurrent use; provider callbacks may arrive on any goroutine.
type Orchestrator struct {
	tokens     TokenSource
	provider   Provider
	audioInput AudioInput
	callbacks  callbacks

	mu        sync.Mutex
	closed    bool
	state     SessionState
	voiceChat VoiceChatState
	config    avatar.Config
	session   ProviderSession
	stream    *avatar.MediaStream
	// epoch identifies the current session attempt. It changes whenever a
	// session ends so late callbacks and aborted starts can be recognized.
	epoch       uint64
	cancelStart context.CancelFunc
	// startDone is closed when the latest Start call has returned.
	startDone chan struct{}
	// stopCapture cancels capture and waits for the device to stop.
	stopCapture   func()
	avatarTalking bool
	userTalking   bool
	lastErr       error
	// abortErr explains why the attempt identified by abortEpoch ended
	// before its Start returned. Nil means a stop request.
	abortEpoch uint64
	abortErr   error

	transcript *transcript.Log
	closeOnce  sync.Once
}

func NewOrchestrator(tokenSource TokenSource, provider Provider, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		tokens:     tokenSource,
		provider:   provider,
		config:     avatar.DefaultConfig(),
		transcript: transcript.NewLog(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Close stops any active session and rejects further starts. It blocks
// until the provider was asked to stop and an in-flight start has unwound.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := o.Stop(ctx); err != nil {
			logger.Warn("failed to stop session on close", "error", err)
		}
	})
}

// Start requests a new session with the current configuration. It returns
// ErrSessionActive without side effects when a session is already starting
// or connected.
//
// Token and provider failures are terminal for the attempt and leave the
// orchestrator Inactive. A voice chat failure is returned as *VoiceChatError
// while the session stays usable in text mode.
func (o *Orchestrator) Start(ctx context.Context, voiceMode bool) (err error) {
	ctx, span := tracer.Start(ctx, "start session", trace.WithAttributes(attribute.Bool("voice_mode", voiceMode)))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.state != StateInactive {
		o.mu.Unlock()
		return ErrSessionActive
	}
	config, err := o.config.Clone()
	if err == nil {
		err = config.Validate()
	}
	if err != nil {
		o.lastErr = err
		o.mu.Unlock()
		o.reportError(ctx, err)
		return err
	}

	o.epoch++
	epoch := o.epoch
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.cancelStart = cancel
	startDone := make(chan struct{})
	defer close(startDone)
	o.startDone = startDone
	o.lastErr = nil
	o.voiceChat = VoiceChatOff
	o.avatarTalking, o.userTalking = false, false
	o.transcript.Clear()
	o.state = StateConnecting
	o.mu.Unlock()
	o.notifyState(StateConnecting)

	token, err := o.tokens.Fetch(attemptCtx)
	if err == nil && strings.TrimSpace(token) == "" {
		err = tokens.ErrEmptyToken
	}
	if err != nil {
		return o.failStart(ctx, epoch, &AuthError{Err: err}, nil)
	}
	if !o.isCurrent(epoch) {
		return o.startAborted(epoch)
	}

	session, err := o.provider.NewSession(attemptCtx, token)
	if err != nil {
		return o.failStart(ctx, epoch, &ProviderStartError{Op: "create session", Err: err}, nil)
	}

	// Handlers go in before Start so an early stream-ready is not lost.
	o.subscribe(session, epoch)
	if !o.attachSession(epoch, session) {
		o.stopQuietly(ctx, session)
		return o.startAborted(epoch)
	}

	stream, err := session.Start(attemptCtx, config)
	if err != nil {
		return o.failStart(ctx, epoch, &ProviderStartError{Op: "start session", Err: err}, session)
	}
	if !o.attachStream(epoch, stream) {
		o.stopQuietly(ctx, session)
		return o.startAborted(epoch)
	}
	sessionStarts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "started")))
	logger.InfoContext(ctx, "avatar session started", "avatar", config.AvatarName, "voice_mode", voiceMode)

	if voiceMode {
		return o.startVoiceChat(attemptCtx, epoch, session)
	}
	return nil
}

func (o *Orchestrator) failStart(ctx context.Context, epoch uint64, err error, session ProviderSession) error {
	if session != nil {
		o.stopQuietly(ctx, session)
	}

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return o.startAborted(epoch)
	}
	o.epoch++
	o.state = StateInactive
	o.session = nil
	o.stream = nil
	o.cancelStart = nil
	o.lastErr = err
	o.mu.Unlock()

	o.notifyState(StateInactive)
	sessionStarts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", startOutcome(err))))
	o.reportError(ctx, err)
	return err
}

func startOutcome(err error) string {
	var (
		authErr     *AuthError
		providerErr *ProviderStartError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth_error"
	case errors.As(err, &providerErr):
		return "provider_error"
	}
	return "error"
}

func (o *Orchestrator) startVoiceChat(ctx context.Context, epoch uint64, session ProviderSession) error {
	if !o.setVoiceChat(epoch, VoiceChatStarting) {
		return o.startAborted(epoch)
	}

	if err := session.StartVoiceChat(ctx); err != nil {
		voiceErr := &VoiceChatError{Err: err}
		o.mu.Lock()
		current := o.epoch == epoch
		if current {
			o.voiceChat = VoiceChatFailed
			o.lastErr = voiceErr
		}
		o.mu.Unlock()
		if !current {
			return o.startAborted(epoch)
		}

		o.notifyVoiceChat(VoiceChatFailed)
		o.reportError(ctx, voiceErr)
		return voiceErr
	}

	if !o.setVoiceChat(epoch, VoiceChatActive) {
		return o.startAborted(epoch)
	}
	o.startCapture(epoch, session)
	return nil
}

// startCapture forwards microphone audio to the session until the session
// ends. Ending the session waits for the input to release the device.
func (o *Orchestrator) startCapture(epoch uint64, session ProviderSession) {
	sink, ok := session.(audioSink)
	if o.audioInput == nil || !ok {
		return
	}

	captureCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		cancel()
		return
	}
	done := make(chan struct{})
	o.stopCapture = func() {
		cancel()
		<-done
	}
	o.mu.Unlock()

	go func() {
		defer close(done)
		err := o.audioInput.Stream(captureCtx, func(audio []byte) {
			if err := sink.SendAudio(audio); err != nil {
				logger.Debug("failed to forward captured audio", "error", err)
			}
		})
		if err != nil && captureCtx.Err() == nil {
			logger.Error("audio capture stopped", "error", err)
		}
	}()
}

// Stop ends the current session. It is a no-op when Inactive. The
// orchestrator becomes Inactive before the provider is contacted, so a
// failing provider never keeps a session alive on this side. Stop then
// waits, bounded by ctx, for an in-flight Start to unwind so that a
// provider session created meanwhile is stopped too.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if o.state == StateInactive {
		o.mu.Unlock()
		return nil
	}
	session := o.session
	voiceChat := o.voiceChat
	startDone := o.startDone
	cancelStart, stopCapture := o.resetLocked(nil)
	o.mu.Unlock()
	defer awaitStart(ctx, startDone)

	o.notifyState(StateInactive)
	if voiceChat != VoiceChatOff {
		o.notifyVoiceChat(VoiceChatOff)
	}
	if cancelStart != nil {
		cancelStart()
	}
	if stopCapture != nil {
		stopCapture()
	}
	sessionStops.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "stop")))

	if session == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "stop session")
	defer span.End()
	if err := session.Stop(ctx); err != nil {
		err = fmt.Errorf("failed to stop provider session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "provider stop failed", "error", err)
		return err
	}
	return nil
}

func awaitStart(ctx context.Context, done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// resetLocked returns the orchestrator to Inactive and hands back the
// funcs the caller must run once the lock is released. reason is what an
// in-flight Start of the ended attempt returns; nil means ErrStartAborted.
func (o *Orchestrator) resetLocked(reason error) (cancelStart context.CancelFunc, stopCapture func()) {
	cancelStart, stopCapture = o.cancelStart, o.stopCapture
	o.abortEpoch, o.abortErr = o.epoch, reason
	o.epoch++
	o.state = StateInactive
	o.voiceChat = VoiceChatOff
	o.session = nil
	o.stream = nil
	o.cancelStart = nil
	o.stopCapture = nil
	o.avatarTalking, o.userTalking = false, false
	return cancelStart, stopCapture
}

// SendMessage asks the avatar to respond to a text message.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	session, err := o.connectedSession()
	if err != nil {
		return err
	}
	s, ok := session.(speaker)
	if !ok {
		return ErrUnsupported
	}

	ctx, span := tracer.Start(ctx, "send message")
	defer span.End()
	if err := s.Speak(ctx, text); err != nil {
		err = fmt.Errorf("failed to send message: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Interrupt cuts off the avatar while it is speaking.
func (o *Orchestrator) Interrupt(ctx context.Context) error {
	session, err := o.connectedSession()
	if err != nil {
		return err
	}
	i, ok := session.(interrupter)
	if !ok {
		return ErrUnsupported
	}

	if err := i.Interrupt(ctx); err != nil {
		return fmt.Errorf("failed to interrupt avatar: %w", err)
	}
	return nil
}

func (o *Orchestrator) connectedSession() (ProviderSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateConnected || o.session == nil {
		return nil, ErrNotConnected
	}
	return o.session, nil
}

func (o *Orchestrator) State() SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) VoiceChatState() VoiceChatState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.voiceChat
}

// Config returns a copy of the configuration the next session starts with.
func (o *Orchestrator) Config() avatar.Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.config
}

// SetConfig replaces the configuration. It fails with ErrConfigLocked
// unless the orchestrator is Inactive.
func (o *Orchestrator) SetConfig(config avatar.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateInactive {
		return ErrConfigLocked
	}
	o.config = config
	return nil
}

func (o *Orchestrator) UpdateConfig(opts ...avatar.Option) error {
	return o.SetConfig(o.Config().Apply(opts...))
}

// MediaStream returns the stream handle while Connected and nil otherwise.
func (o *Orchestrator) MediaStream() *avatar.MediaStream {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateConnected {
		return nil
	}
	return o.stream
}

func (o *Orchestrator) Transcript() []transcript.Entry { return o.transcript.Entries() }
func (o *Orchestrator) Messages() []transcript.Message { return o.transcript.Messages() }

func (o *Orchestrator) IsAvatarTalking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.avatarTalking
}

func (o *Orchestrator) IsUserTalking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.userTalking
}

// LastError returns the failure of the latest start attempt, if any.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// startAborted is the error a Start of attempt epoch returns once the
// attempt was ended under it.
func (o *Orchestrator) startAborted(epoch uint64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.abortEpoch == epoch && o.abortErr != nil {
		return o.abortErr
	}
	return ErrStartAborted
}

func (o *Orchestrator) isCurrent(epoch uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.epoch == epoch
}

func (o *Orchestrator) attachSession(epoch uint64, session ProviderSession) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return false
	}
	o.session = session
	return true
}

// attachStream keeps a stream already attached by an early stream-ready.
func (o *Orchestrator) attachStream(epoch uint64, stream *avatar.MediaStream) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return false
	}
	if o.stream == nil {
		o.stream = stream
	}
	return true
}

func (o *Orchestrator) setVoiceChat(epoch uint64, state VoiceChatState) bool {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return false
	}
	o.voiceChat = state
	o.mu.Unlock()

	o.notifyVoiceChat(state)
	return true
}

func (o *Orchestrator) stopQuietly(ctx context.Context, session ProviderSession) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := session.Stop(ctx); err != nil {
		logger.WarnContext(ctx, "failed to stop abandoned provider session", "error", err)
	}
}

func (o *Orchestrator) reportError(ctx context.Context, err error) {
	logger.ErrorContext(ctx, "avatar session failure", "error", err)
	if o.callbacks.onError != nil {
		o.callbacks.onError(err)
	}
}

func (o *Orchestrator) notifyState(state SessionState) {
	if o.callbacks.onStateChanged != nil {
		o.callbacks.onStateChanged(state)
	}
}

func (o *Orchestrator) notifyVoiceChat(state VoiceChatState) {
	if o.callbacks.onVoiceChatStateChanged != nil {
		o.callbacks.onVoiceChatStateChanged(state)
	}
}

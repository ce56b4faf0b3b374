package orchestration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/events"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/transcript"
)

func newTestOrchestrator(t *testing.T, session *sessionStub, opts ...OrchestratorOption) (*Orchestrator, *tokenSourceStub, *providerStub) {
	t.Helper()
	tokens := &tokenSourceStub{token: "token-1"}
	provider := &providerStub{session: session}
	o := NewOrchestrator(tokens, provider, opts...)
	t.Cleanup(o.Close)
	return o, tokens, provider
}

func TestStartTextModeReachesConnectedThroughConnecting(t *testing.T) {
	recorder := &stateRecorder{}
	session := newSessionStub()
	o, tokens, provider := newTestOrchestrator(t, session, WithStateChangedCallback(recorder.record))

	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	states := recorder.snapshot()
	if len(states) != 2 || states[0] != StateConnecting || states[1] != StateConnected {
		t.Fatalf("expected [connecting connected], got %v", states)
	}
	if got := o.State(); got != StateConnected {
		t.Fatalf("expected connected, got %s", got)
	}
	if got := len(o.Transcript()); got != 0 {
		t.Fatalf("expected no transcript entries, got %d", got)
	}
	if tokens.calls.Load() != 1 || provider.tokens[0] != "token-1" {
		t.Fatalf("expected the fetched token to be handed to the provider, got %v", provider.tokens)
	}
	if session.voiceCalls.Load() != 0 {
		t.Fatalf("expected no voice chat call in text mode")
	}
	if o.MediaStream() != session.stream {
		t.Fatalf("expected media stream handle to be exposed by reference")
	}
}

func TestHandlersAreRegisteredBeforeStart(t *testing.T) {
	session := newSessionStub()
	o, _, _ := newTestOrchestrator(t, session)

	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if got, want := session.subscribedBeforeStart, len(events.Kinds()); got != want {
		t.Fatalf("expected %d kinds subscribed before start, got %d", want, got)
	}
}

func TestStartFreezesConfig(t *testing.T) {
	session := newSessionStub()
	o, _, _ := newTestOrchestrator(t, session,
		WithConfig(avatar.DefaultConfig().Apply(avatar.WithAvatarName("Shawn_Therapist_public"))))

	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if session.startConfig.AvatarName != "Shawn_Therapist_public" {
		t.Fatalf("expected configured avatar to be sent, got %q", session.startConfig.AvatarName)
	}
	if err := o.UpdateConfig(avatar.WithAvatarName("other")); !errors.Is(err, ErrConfigLocked) {
		t.Fatalf("expected ErrConfigLocked while connected, got %v", err)
	}
}

func TestStopWhenInactiveIsNoop(t *testing.T) {
	session := newSessionStub()
	recorder := &stateRecorder{}
	o, _, _ := newTestOrchestrator(t, session, WithStateChangedCallback(recorder.record))

	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.stopCalls.Load() != 0 {
		t.Fatalf("expected no provider stop call")
	}
	if got := o.State(); got != StateInactive {
		t.Fatalf("expected inactive, got %s", got)
	}
	if states := recorder.snapshot(); len(states) != 0 {
		t.Fatalf("expected no state change, got %v", states)
	}
}

func TestStartWhileConnectedIsRejected(t *testing.T) {
	session := newSessionStub()
	o, tokens, provider := newTestOrchestrator(t, session)

	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := o.Start(context.Background(), true); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	if tokens.calls.Load() != 1 || provider.calls.Load() != 1 || session.startCalls.Load() != 1 {
		t.Fatalf("expected no second token fetch or provider call")
	}
}

func TestTokenFailureReturnsToInactiveWithOneAuthError(t *testing.T) {
	recorder := &stateRecorder{}
	reported := atomic.Int32{}
	tokens := &tokenSourceStub{err: errors.New("connection refused")}
	provider := &providerStub{session: newSessionStub()}
	o := NewOrchestrator(tokens, provider,
		WithStateChangedCallback(recorder.record),
		WithErrorCallback(func(err error) {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				reported.Add(1)
			}
		}))
	defer o.Close()

	err := o.Start(context.Background(), false)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if got := reported.Load(); got != 1 {
		t.Fatalf("expected exactly one surfaced AuthError, got %d", got)
	}
	if got := o.State(); got != StateInactive {
		t.Fatalf("expected inactive, got %s", got)
	}
	if provider.calls.Load() != 0 {
		t.Fatalf("expected no provider call after token failure")
	}
	if states := recorder.snapshot(); len(states) != 2 || states[1] != StateInactive {
		t.Fatalf("expected [connecting inactive], got %v", states)
	}
	if !errors.As(o.LastError(), &authErr) {
		t.Fatalf("expected last error to be the auth error, got %v", o.LastError())
	}
}

func TestEmptyTokenIsAuthError(t *testing.T) {
	tokens := &tokenSourceStub{token: "  "}
	o := NewOrchestrator(tokens, &providerStub{session: newSessionStub()})
	defer o.Close()

	var authErr *AuthError
	if err := o.Start(context.Background(), false); !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestProviderStartFailureReturnsToInactive(t *testing.T) {
	session := newSessionStub()
	session.startErr = errors.New("quota exceeded")
	o, _, _ := newTestOrchestrator(t, session)

	err := o.Start(context.Background(), true)
	var providerErr *ProviderStartError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderStartError, got %v", err)
	}
	if got := o.State(); got != StateInactive {
		t.Fatalf("expected inactive, got %s", got)
	}
	if session.voiceCalls.Load() != 0 {
		t.Fatalf("expected no voice chat after failed start")
	}
	if session.stopCalls.Load() != 1 {
		t.Fatalf("expected the half-started session to be stopped, got %d stops", session.stopCalls.Load())
	}
	if o.MediaStream() != nil {
		t.Fatalf("expected no media stream after failed start")
	}
}

func TestProviderCreateFailureIsProviderStartError(t *testing.T) {
	o := NewOrchestrator(&tokenSourceStub{token: "t"}, &providerStub{err: errors.New("bad token")})
	defer o.Close()

	var providerErr *ProviderStartError
	if err := o.Start(context.Background(), false); !errors.As(err, &providerErr) || providerErr.Op != "create session" {
		t.Fatalf("expected create-session ProviderStartError, got %v", err)
	}
}

func TestVoiceChatFailureKeepsSessionConnected(t *testing.T) {
	session := newSessionStub()
	session.voiceErr = errors.New("microphone denied")
	o, _, _ := newTestOrchestrator(t, session)

	err := o.Start(context.Background(), true)
	var voiceErr *VoiceChatError
	if !errors.As(err, &voiceErr) {
		t.Fatalf("expected VoiceChatError, got %v", err)
	}
	if got := o.State(); got != StateConnected {
		t.Fatalf("expected session to stay connected, got %s", got)
	}
	if got := o.VoiceChatState(); got != VoiceChatFailed {
		t.Fatalf("expected voice chat failed, got %s", got)
	}
	if session.stopCalls.Load() != 0 {
		t.Fatalf("expected voice chat failure not to stop the session")
	}
	if err := o.SendMessage(context.Background(), "still there?"); err != nil {
		t.Fatalf("expected text mode to keep working, got %v", err)
	}
}

func TestVoiceModeActivatesVoiceChat(t *testing.T) {
	session := newSessionStub()
	o, _, _ := newTestOrchestrator(t, session)

	if err := o.Start(context.Background(), true); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if session.voiceCalls.Load() != 1 {
		t.Fatalf("expected one voice chat call")
	}
	if got := o.VoiceChatState(); got != VoiceChatActive {
		t.Fatalf("expected voice chat active, got %s", got)
	}
}

func TestAvatarPartialTranscriptAppendsEntry(t *testing.T) {
	session := newSessionStub()
	o, _, _ := newTestOrchestrator(t, session)
	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	session.emit(events.NewAvatarTranscriptPartial("Hello"))

	entries := o.Transcript()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Speaker != transcript.SpeakerAvatar || entry.Phase != transcript.PhasePartial || entry.Text != "Hello" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestStreamDisconnectedReturnsToInactive(t *testing.T) {
	session := newSessionStub()
	recorder := &stateRecorder{}
	o, _, _ := newTestOrchestrator(t, session, WithStateChangedCallback(recorder.record))
	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	session.emit(events.NewStreamDisconnected("network"))

	if got := o.State(); got != StateInactive {
		t.Fatalf("expected inactive, got %s", got)
	}
	if o.MediaStream() != nil {
		t.Fatalf("expected media stream to be released")
	}
	if err := o.Stop(context.Background()); err != nil || session.stopCalls.Load() != 0 {
		t.Fatalf("expected stop after disconnect to be a no-op, got err=%v stops=%d", err, session.stopCalls.Load())
	}
	if states := recorder.snapshot(); states[len(states)-1] != StateInactive {
		t.Fatalf("expected last state inactive, got %v", states)
	}
}

func TestStopReleasesSessionEvenWhenProviderFails(t *testing.T) {
	session := newSessionStub()
	session.stopErr = errors.New("already gone")
	o, _, _ := newTestOrchestrator(t, session)
	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}

	if err := o.Stop(context.Background()); err == nil {
		t.Fatalf("expected provider stop error to be reported")
	}
	if got := o.State(); got != StateInactive {
		t.Fatalf("expected inactive despite provider failure, got %s", got)
	}
	if o.MediaStream() != nil {
		t.Fatalf("expected media stream to be released")
	}

	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected a new session to start after stop, got %v", err)
	}
}

func TestStateSequenceStaysLegal(t *testing.T) {
	session := newSessionStub()
	recorder := &stateRecorder{}
	o, _, _ := newTestOrchestrator(t, session, WithStateChangedCallback(recorder.record))

	ctx := context.Background()
	_ = o.Stop(ctx)
	_ = o.Start(ctx, false)
	_ = o.Start(ctx, true)
	_ = o.Stop(ctx)
	_ = o.Stop(ctx)
	session.readyOnStart = false
	_ = o.Start(ctx, false)
	_ = o.Stop(ctx)

	previous := StateInactive
	for i, state := range recorder.snapshot() {
		switch state {
		case StateInactive, StateConnecting, StateConnected:
		default:
			t.Fatalf("illegal state %d at %d", state, i)
		}
		if previous == StateInactive && state == StateConnected {
			t.Fatalf("inactive jumped to connected at %d", i)
		}
		if previous == state {
			t.Fatalf("repeated state %s at %d", state, i)
		}
		previous = state
	}
}

func TestSendMessageRequiresConnectedSession(t *testing.T) {
	session := newSessionStub()
	o, _, _ := newTestOrchestrator(t, session)

	if err := o.SendMessage(context.Background(), "hi"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := o.SendMessage(context.Background(), "  "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if err := o.SendMessage(context.Background(), "Where is reception?"); err != nil {
		t.Fatalf("expected message to be sent, got %v", err)
	}
	if err := o.Interrupt(context.Background()); err != nil {
		t.Fatalf("expected interrupt to succeed, got %v", err)
	}
	if len(session.spoken) != 1 || session.spoken[0] != "Where is reception?" || session.interruptions.Load() != 1 {
		t.Fatalf("unexpected session calls spoken=%v interruptions=%d", session.spoken, session.interruptions.Load())
	}
}

func TestOptionalCapabilitiesReportUnsupported(t *testing.T) {
	inner := newSessionStub()
	o := NewOrchestrator(&tokenSourceStub{token: "t"}, bareProviderStub{session: bareSessionStub{inner: inner}})
	defer o.Close()

	if err := o.Start(context.Background(), false); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if err := o.SendMessage(context.Background(), "hi"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := o.Interrupt(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestInvalidConfigIsRejectedBeforeConnecting(t *testing.T) {
	session := newSessionStub()
	tokens := &tokenSourceStub{token: "t"}
	o := NewOrchestrator(tokens, &providerStub{session: session},
		WithConfig(avatar.DefaultConfig().Apply(avatar.WithAvatarName(""))))
	defer o.Close()

	if err := o.Start(context.Background(), false); !errors.Is(err, avatar.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if tokens.calls.Load() != 0 || o.State() != StateInactive {
		t.Fatalf("expected no token fetch and inactive state")
	}
	if err := o.SetConfig(avatar.Config{}); !errors.Is(err, avatar.ErrInvalidConfig) {
		t.Fatalf("expected SetConfig to validate, got %v", err)
	}
}

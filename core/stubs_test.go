package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/events"
)

type tokenSourceStub struct {
	token string
	err   error
	calls atomic.Int32
	// fetch overrides token/err when set.
	fetch func(ctx context.Context) (string, error)
}

func (s *tokenSourceStub) Fetch(ctx context.Context) (string, error) {
	s.calls.Add(1)
	if s.fetch != nil {
		return s.fetch(ctx)
	}
	return s.token, s.err
}

type providerStub struct {
	session *sessionStub
	err     error
	tokens  []string
	calls   atomic.Int32
	mu      sync.Mutex
}

func (p *providerStub) NewSession(_ context.Context, token string) (ProviderSession, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.tokens = append(p.tokens, token)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

type sessionStub struct {
	mu       sync.Mutex
	handlers map[events.Kind][]func(events.Event)
	// subscribedBeforeStart records how many kinds had handlers when Start
	// was called.
	subscribedBeforeStart int

	stream        *avatar.MediaStream
	readyOnStart  bool
	startErr      error
	voiceErr      error
	stopErr       error
	speakErr      error
	startConfig   avatar.Config
	startCalls    atomic.Int32
	voiceCalls    atomic.Int32
	stopCalls     atomic.Int32
	spoken        []string
	interruptions atomic.Int32
	audio         chan []byte
	// start overrides the default Start behavior when set.
	start func(ctx context.Context) (*avatar.MediaStream, error)
}

func newSessionStub() *sessionStub {
	return &sessionStub{
		handlers:     map[events.Kind][]func(events.Event){},
		stream:       &avatar.MediaStream{SessionID: "session-1", URL: "wss://media.example"},
		readyOnStart: true,
		audio:        make(chan []byte, 8),
	}
}

func (s *sessionStub) Subscribe(kind events.Kind, handler func(events.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = append(s.handlers[kind], handler)
}

func (s *sessionStub) emit(event events.Event) {
	s.mu.Lock()
	handlers := append([]func(events.Event){}, s.handlers[event.Kind()]...)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (s *sessionStub) Start(ctx context.Context, config avatar.Config) (*avatar.MediaStream, error) {
	s.startCalls.Add(1)
	s.mu.Lock()
	s.subscribedBeforeStart = len(s.handlers)
	s.startConfig = config
	s.mu.Unlock()

	if s.start != nil {
		return s.start(ctx)
	}
	if s.startErr != nil {
		return nil, s.startErr
	}
	if s.readyOnStart {
		s.emit(events.NewStreamReady(s.stream))
	}
	return s.stream, nil
}

func (s *sessionStub) StartVoiceChat(context.Context) error {
	s.voiceCalls.Add(1)
	return s.voiceErr
}

func (s *sessionStub) Stop(context.Context) error {
	s.stopCalls.Add(1)
	return s.stopErr
}

func (s *sessionStub) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	return s.speakErr
}

func (s *sessionStub) Interrupt(context.Context) error {
	s.interruptions.Add(1)
	return nil
}

func (s *sessionStub) SendAudio(audio []byte) error {
	select {
	case s.audio <- audio:
	default:
	}
	return nil
}

// bareSessionStub implements only the required session surface.
type bareSessionStub struct{ inner *sessionStub }

func (b bareSessionStub) Subscribe(kind events.Kind, handler func(events.Event)) {
	b.inner.Subscribe(kind, handler)
}

func (b bareSessionStub) Start(ctx context.Context, config avatar.Config) (*avatar.MediaStream, error) {
	return b.inner.Start(ctx, config)
}

func (b bareSessionStub) StartVoiceChat(ctx context.Context) error {
	return b.inner.StartVoiceChat(ctx)
}

func (b bareSessionStub) Stop(ctx context.Context) error {
	return b.inner.Stop(ctx)
}

type bareProviderStub struct{ session bareSessionStub }

func (p bareProviderStub) NewSession(context.Context, string) (ProviderSession, error) {
	return p.session, nil
}

type stateRecorder struct {
	mu     sync.Mutex
	states []SessionState
}

func (r *stateRecorder) record(state SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) snapshot() []SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SessionState(nil), r.states...)
}

type scriptedAudioInput struct {
	chunks [][]byte
}

func (s *scriptedAudioInput) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	for _, chunk := range s.chunks {
		onAudio(chunk)
	}
	<-ctx.Done()
	return nil
}

// releasingAudioInput keeps the device busy for a moment after capture is
// cancelled, like a driver draining its buffers.
type releasingAudioInput struct {
	capturing chan struct{}
	released  atomic.Bool
}

func (r *releasingAudioInput) Stream(ctx context.Context, _ func(audio []byte)) error {
	close(r.capturing)
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	r.released.Store(true)
	return nil
}

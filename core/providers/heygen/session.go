package heygen

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	orchestration "github.com/Odinzzz/InteractiveAvatarNextJSDemo/core"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/events"
	"github.com/gorilla/websocket"
)

const (
	pathNew       = "/v1/streaming.new"
	pathStart     = "/v1/streaming.start"
	pathStop      = "/v1/streaming.stop"
	pathTask      = "/v1/streaming.task"
	pathInterrupt = "/v1/streaming.interrupt"
	pathRealtime  = "/v1/ws/streaming.chat"

	// createTimeout bounds session creation, which a stop does not cut short.
	createTimeout = 30 * time.Second
	stopTimeout   = 10 * time.Second
)

var (
	ErrNotStarted         = errors.New("session not started")
	ErrAlreadyStarted     = errors.New("session already started")
	ErrNoRealtimeChannel  = errors.New("session has no realtime channel")
	ErrVoiceChatNotActive = errors.New("voice chat not active")
	ErrSessionStopped     = errors.New("session stopped")
)

var _ orchestration.ProviderSession = (*Session)(nil)

// Session is one streaming avatar session. Subscribed handlers run on a
// single dispatcher goroutine in the order events arrived.
type Session struct {
	provider *Provider
	token    string

	handlersMu sync.RWMutex
	handlers   map[events.Kind][]func(events.Event)

	mu          sync.Mutex
	started     bool
	info        newSessionData
	stream      *avatar.MediaStream
	language    string
	voiceActive bool
	// stopped is set by the first Stop. stopSent records that the service
	// was asked to end the session.
	stopped  bool
	stopSent bool

	// writeMu serializes websocket writes; gorilla allows one writer.
	writeMu sync.Mutex
	conn    *websocket.Conn

	inbound chan events.Event
	ctx     context.Context
	cancel  context.CancelFunc
}

func newSession(provider *Provider, token string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		provider: provider,
		token:    token,
		handlers: map[events.Kind][]func(events.Event){},
		inbound:  make(chan events.Event, provider.eventBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}
	go s.dispatch()
	return s
}

func (s *Session) Subscribe(kind events.Kind, handler func(events.Event)) {
	if handler == nil {
		return
	}
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers[kind] = append(s.handlers[kind], handler)
}

type voiceRequest struct {
	VoiceID            string              `json:"voice_id,omitempty"`
	Rate               float64             `json:"rate,omitempty"`
	Emotion            avatar.VoiceEmotion `json:"emotion,omitempty"`
	ElevenLabsSettings *elevenLabsSettings `json:"elevenlabs_settings,omitempty"`
}

type elevenLabsSettings struct {
	ModelID avatar.VoiceModel `json:"model_id"`
}

type sttSettingsRequest struct {
	Provider   avatar.STTProvider `json:"provider,omitempty"`
	Confidence float64            `json:"confidence,omitempty"`
}

type newSessionRequest struct {
	Quality             avatar.Quality     `json:"quality"`
	AvatarName          string             `json:"avatar_name"`
	KnowledgeID         string             `json:"knowledge_id,omitempty"`
	KnowledgeBase       string             `json:"knowledge_base,omitempty"`
	Voice               voiceRequest       `json:"voice"`
	Language            string             `json:"language,omitempty"`
	Version             string             `json:"version"`
	VideoEncoding       string             `json:"video_encoding"`
	Source              string             `json:"source"`
	DisableIdleTimeout  bool               `json:"disable_idle_timeout,omitempty"`
	STTSettings         sttSettingsRequest `json:"stt_settings"`
	IsLiveKitTransport  bool               `json:"ia_is_livekit_transport"`
	ActivityIdleTimeout int                `json:"activity_idle_timeout,omitempty"`
}

func toNewSessionRequest(config avatar.Config) newSessionRequest {
	request := newSessionRequest{
		Quality:       config.Quality,
		AvatarName:    config.AvatarName,
		KnowledgeID:   config.KnowledgeID,
		KnowledgeBase: config.KnowledgeBase,
		Voice: voiceRequest{
			VoiceID: config.Voice.VoiceID,
			Rate:    config.Voice.Rate,
			Emotion: config.Voice.Emotion,
		},
		Language:            config.Language,
		Version:             "v2",
		VideoEncoding:       "H264",
		Source:              "sdk",
		DisableIdleTimeout:  config.DisableIdleTimeout,
		STTSettings:         sttSettingsRequest(config.STTSettings),
		IsLiveKitTransport:  config.VoiceChatTransport == avatar.TransportLiveKit,
		ActivityIdleTimeout: config.ActivityIdleTimeout,
	}
	if config.Voice.Model != "" {
		request.Voice.ElevenLabsSettings = &elevenLabsSettings{ModelID: config.Voice.Model}
	}
	return request
}

type newSessionData struct {
	SessionID        string `json:"session_id"`
	URL              string `json:"url"`
	AccessToken      string `json:"access_token"`
	RealtimeEndpoint string `json:"realtime_endpoint"`
	DurationLimit    int    `json:"session_duration_limit"`
}

type sessionIDRequest struct {
	SessionID string `json:"session_id"`
}

// Start creates and starts the session on the service. When the config asks
// for the websocket transport the realtime channel is opened as well; a
// failure there is logged and leaves the session usable without voice chat.
//
// Creation runs to completion even when ctx is cancelled, so a session the
// service allocated is always known and can be stopped. A Stop that arrives
// while creation is in flight ends that session as soon as its id is known
// and Start returns ErrSessionStopped.
func (s *Session) Start(ctx context.Context, config avatar.Config) (*avatar.MediaStream, error) {
	ctx, span := tracer.Start(ctx, "start streaming session")
	defer span.End()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrSessionStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	s.started = true
	s.language = config.Language
	s.mu.Unlock()

	info, err := s.create(ctx, config)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.info = info
	stopped := s.stopped
	if stopped {
		s.stopSent = true
	}
	s.mu.Unlock()
	if stopped {
		s.stopDetached(ctx, info.SessionID)
		return nil, ErrSessionStopped
	}

	if err := post[struct{}](ctx, s.provider, s.token, pathStart, sessionIDRequest{SessionID: info.SessionID}, nil); err != nil {
		return nil, fmt.Errorf("failed to start streaming session: %w", err)
	}
	if s.isStopped() {
		return nil, ErrSessionStopped
	}

	if config.VoiceChatTransport == avatar.TransportWebsocket {
		if err := s.connectRealtime(ctx, info); err != nil {
			logger.WarnContext(ctx, "realtime channel unavailable", "session_id", info.SessionID, "error", err)
		}
		// Stop marks the session before closing the channel, so either it
		// saw this connection or this check sees the stop.
		if s.isStopped() {
			s.closeConn()
			return nil, ErrSessionStopped
		}
	}

	stream := &avatar.MediaStream{
		SessionID:        info.SessionID,
		URL:              info.URL,
		AccessToken:      info.AccessToken,
		RealtimeEndpoint: s.realtimeEndpoint(),
	}
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()

	s.emit(events.NewStreamReady(stream))
	if conn := s.currentConn(); conn != nil {
		go s.readLoop(conn)
	}

	logger.InfoContext(ctx, "streaming session started", "session_id", info.SessionID)
	return stream, nil
}

func (s *Session) create(ctx context.Context, config avatar.Config) (newSessionData, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), createTimeout)
	defer cancel()

	var info newSessionData
	if err := post(ctx, s.provider, s.token, pathNew, toNewSessionRequest(config), &info); err != nil {
		return info, fmt.Errorf("failed to create streaming session: %w", err)
	}
	if info.SessionID == "" {
		return info, fmt.Errorf("failed to create streaming session: response carried no session id")
	}
	return info, nil
}

// stopDetached ends a session created after Stop returned.
func (s *Session) stopDetached(ctx context.Context, sessionID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	if err := s.postStop(ctx, sessionID); err != nil {
		logger.WarnContext(ctx, "failed to stop session created after stop", "session_id", sessionID, "error", err)
		return
	}
	logger.InfoContext(ctx, "stopped session created after stop", "session_id", sessionID)
}

func (s *Session) realtimeURL(info newSessionData) (string, error) {
	if info.RealtimeEndpoint != "" {
		return info.RealtimeEndpoint, nil
	}

	base, err := url.Parse(s.provider.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch base.Scheme {
	case "https":
		base.Scheme = "wss"
	case "http":
		base.Scheme = "ws"
	}
	base.Path = strings.TrimRight(base.Path, "/") + pathRealtime

	query := url.Values{}
	query.Set("session_id", info.SessionID)
	query.Set("session_token", s.token)
	query.Set("silence_response", "false")
	s.mu.Lock()
	if s.language != "" {
		query.Set("stt_language", s.language)
	}
	s.mu.Unlock()
	base.RawQuery = query.Encode()
	return base.String(), nil
}

func (s *Session) connectRealtime(ctx context.Context, info newSessionData) error {
	wsURL, err := s.realtimeURL(info)
	if err != nil {
		return err
	}

	conn, _, err := s.provider.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to open realtime socket: %w", err)
	}

	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()
	return nil
}

func (s *Session) currentConn() *websocket.Conn {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn
}

func (s *Session) realtimeEndpoint() string {
	if s.currentConn() == nil {
		return ""
	}
	s.mu.Lock()
	info := s.info
	s.mu.Unlock()

	endpoint, err := s.realtimeURL(info)
	if err != nil {
		return ""
	}
	return endpoint
}

// StartVoiceChat requires the realtime channel opened during Start.
func (s *Session) StartVoiceChat(ctx context.Context) error {
	_, span := tracer.Start(ctx, "start voice chat")
	defer span.End()

	if !s.isStarted() {
		return ErrNotStarted
	}
	if s.currentConn() == nil {
		return ErrNoRealtimeChannel
	}

	s.mu.Lock()
	s.voiceActive = true
	s.mu.Unlock()
	return nil
}

// Speak asks the avatar to respond to text.
func (s *Session) Speak(ctx context.Context, text string) error {
	sessionID, err := s.sessionID()
	if err != nil {
		return err
	}

	return post[struct{}](ctx, s.provider, s.token, pathTask, struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
		TaskType  string `json:"task_type"`
		TaskMode  string `json:"task_mode"`
	}{SessionID: sessionID, Text: text, TaskType: "talk", TaskMode: "async"}, nil)
}

func (s *Session) Interrupt(ctx context.Context) error {
	sessionID, err := s.sessionID()
	if err != nil {
		return err
	}
	return post[struct{}](ctx, s.provider, s.token, pathInterrupt, sessionIDRequest{SessionID: sessionID}, nil)
}

// Stop closes the realtime channel and ends the session on the service.
// The service is contacted at most once. When the session id is not known
// yet, the stop is remembered and carried out by Start.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	sessionID := s.info.SessionID
	send := sessionID != "" && !s.stopSent
	if send {
		s.stopSent = true
	}
	s.mu.Unlock()

	s.cancel()
	s.closeConn()
	if !send {
		return nil
	}
	return s.postStop(ctx, sessionID)
}

func (s *Session) postStop(ctx context.Context, sessionID string) error {
	if err := post[struct{}](ctx, s.provider, s.token, pathStop, sessionIDRequest{SessionID: sessionID}, nil); err != nil {
		return fmt.Errorf("failed to stop streaming session: %w", err)
	}
	return nil
}

func (s *Session) closeConn() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.conn == nil {
		return
	}
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second))
	_ = s.conn.Close()
	s.conn = nil
}

func (s *Session) isStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.info.SessionID != ""
}

func (s *Session) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Session) sessionID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info.SessionID == "" {
		return "", ErrNotStarted
	}
	return s.info.SessionID, nil
}

// emit queues event for dispatch, blocking while the queue is full.
func (s *Session) emit(event events.Event) {
	select {
	case s.inbound <- event:
	case <-s.ctx.Done():
	}
}

func (s *Session) dispatch() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-s.inbound:
			s.deliver(event)
			if event.Kind() == events.KindStreamDisconnected {
				s.cancel()
				return
			}
		}
	}
}

func (s *Session) deliver(event events.Event) {
	s.handlersMu.RLock()
	handlers := append([]func(events.Event){}, s.handlers[event.Kind()]...)
	s.handlersMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

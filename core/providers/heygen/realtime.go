package heygen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message types sent by the service on the realtime channel.
const (
	typeAvatarStartTalking   = "avatar_start_talking"
	typeAvatarStopTalking    = "avatar_stop_talking"
	typeAvatarTalkingMessage = "avatar_talking_message"
	typeAvatarEndMessage     = "avatar_end_message"
	typeUserStart            = "user_start"
	typeUserStop             = "user_stop"
	typeUserTalkingMessage   = "user_talking_message"
	typeUserEndMessage       = "user_end_message"
	typeStreamDisconnected   = "stream_disconnected"

	typeAudioBufferAppend = "agent.audio_buffer_append"
)

type realtimeMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	TaskID  string `json:"task_id,omitempty"`
}

// decodeEvent maps a realtime frame onto an event. It reports false for
// frames that carry no session event.
func decodeEvent(data []byte) (events.Event, bool, error) {
	var msg realtimeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal realtime message: %w", err)
	}

	switch msg.Type {
	case typeAvatarStartTalking:
		return events.NewAvatarTalkingStarted(), true, nil
	case typeAvatarStopTalking:
		return events.NewAvatarTalkingStopped(), true, nil
	case typeAvatarTalkingMessage:
		return events.NewAvatarTranscriptPartial(msg.Message), true, nil
	case typeAvatarEndMessage:
		return events.NewAvatarTurnEnded(msg.Message), true, nil
	case typeUserStart:
		return events.NewUserTurnStarted(), true, nil
	case typeUserStop:
		return events.NewUserTurnStopped(), true, nil
	case typeUserTalkingMessage:
		return events.NewUserTranscriptPartial(msg.Message), true, nil
	case typeUserEndMessage:
		return events.NewUserTurnEnded(msg.Message), true, nil
	case typeStreamDisconnected:
		return events.NewStreamDisconnected(msg.Message), true, nil
	}
	return nil, false, nil
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}

			reason := err.Error()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = "closed by service"
			} else {
				logger.Warn("realtime socket failed", "error", err)
			}
			s.closeConn()
			s.emit(events.NewStreamDisconnected(reason))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		event, ok, err := decodeEvent(data)
		if err != nil {
			logger.Warn("dropped malformed realtime message", "error", err)
			continue
		}
		if !ok {
			continue
		}

		if event.Kind() == events.KindStreamDisconnected {
			s.closeConn()
			s.emit(event)
			return
		}
		s.emit(event)
	}
}

type audioAppendMessage struct {
	Type    string `json:"type"`
	Audio   string `json:"audio"`
	EventID string `json:"event_id"`
}

// SendAudio forwards captured PCM audio while voice chat is active.
func (s *Session) SendAudio(audio []byte) error {
	s.mu.Lock()
	active := s.voiceActive
	s.mu.Unlock()
	if !active {
		return ErrVoiceChatNotActive
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return ErrNoRealtimeChannel
	}

	if err := s.conn.WriteJSON(audioAppendMessage{
		Type:    typeAudioBufferAppend,
		Audio:   base64.StdEncoding.EncodeToString(audio),
		EventID: uuid.NewString(),
	}); err != nil {
		return fmt.Errorf("failed to write audio to realtime socket: %w", err)
	}
	return nil
}

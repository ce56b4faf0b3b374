package orchestration

import (
	"context"
	"fmt"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/events"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/transcript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func (o *Orchestrator) subscribe(session ProviderSession, epoch uint64) {
	handler := o.eventHandler(epoch)
	for _, kind := range events.Kinds() {
		session.Subscribe(kind, handler)
	}
}

// eventHandler returns the handler registered for one session. A failing
// handler is logged and never takes the session down.
func (o *Orchestrator) eventHandler(epoch uint64) func(events.Event) {
	return func(event events.Event) {
		if event == nil {
			return
		}
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("inbound event handler panicked",
					"kind", string(event.Kind()),
					"error", fmt.Sprintf("%v", recovered))
			}
		}()

		if !o.respondToEvent(epoch, event) {
			return
		}
		if o.callbacks.onEvent != nil {
			o.callbacks.onEvent(event)
		}
	}
}

// respondToEvent applies event to the session identified by epoch. It
// reports false when the event belongs to a session that already ended.
func (o *Orchestrator) respondToEvent(epoch uint64, event events.Event) bool {
	switch e := event.(type) {
	case events.StreamReady:
		return o.handleStreamReady(epoch, e)
	case events.StreamDisconnected:
		return o.handleStreamDisconnected(epoch, e)
	case events.AvatarTalkingStarted:
		return o.setTalking(epoch, &o.avatarTalking, true)
	case events.AvatarTalkingStopped:
		return o.setTalking(epoch, &o.avatarTalking, false)
	case events.UserTurnStarted:
		return o.setTalking(epoch, &o.userTalking, true)
	case events.UserTurnStopped:
		return o.setTalking(epoch, &o.userTalking, false)
	case events.UserTranscriptPartial:
		return o.appendPartial(epoch, transcript.SpeakerUser, e.Message)
	case events.AvatarTranscriptPartial:
		return o.appendPartial(epoch, transcript.SpeakerAvatar, e.Message)
	case events.UserTurnEnded:
		return o.appendFinal(epoch, transcript.SpeakerUser, e.Message)
	case events.AvatarTurnEnded:
		return o.appendFinal(epoch, transcript.SpeakerAvatar, e.Message)
	}

	logger.Warn("skipped inbound event of unknown type", "type", fmt.Sprintf("%T", event))
	return false
}

func (o *Orchestrator) handleStreamReady(epoch uint64, event events.StreamReady) bool {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return false
	}
	if event.Stream != nil {
		o.stream = event.Stream
	}
	transitioned := o.state == StateConnecting
	if transitioned {
		o.state = StateConnected
	}
	o.mu.Unlock()

	if transitioned {
		o.notifyState(StateConnected)
	}
	return true
}

func (o *Orchestrator) handleStreamDisconnected(epoch uint64, event events.StreamDisconnected) bool {
	o.mu.Lock()
	if o.epoch != epoch || o.state == StateInactive {
		o.mu.Unlock()
		return false
	}
	voiceChat := o.voiceChat
	var err error
	if o.state == StateConnecting {
		err = fmt.Errorf("%w: %s", ErrStreamDisconnected, event.Reason)
		o.lastErr = err
	}
	cancelStart, stopCapture := o.resetLocked(err)
	o.mu.Unlock()

	if cancelStart != nil {
		cancelStart()
	}
	if stopCapture != nil {
		stopCapture()
	}

	logger.Info("avatar stream disconnected", "reason", event.Reason)
	sessionStops.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", "disconnected")))
	o.notifyState(StateInactive)
	if voiceChat != VoiceChatOff {
		o.notifyVoiceChat(VoiceChatOff)
	}
	if err != nil {
		o.reportError(context.Background(), err)
	}
	return true
}

func (o *Orchestrator) setTalking(epoch uint64, flag *bool, talking bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return false
	}
	*flag = talking
	return true
}

func (o *Orchestrator) appendPartial(epoch uint64, speaker transcript.Speaker, text string) bool {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return false
	}
	if text == "" {
		o.mu.Unlock()
		return true
	}
	entry := o.transcript.AppendPartial(speaker, text)
	o.mu.Unlock()

	o.notifyTranscript(entry)
	return true
}

func (o *Orchestrator) appendFinal(epoch uint64, speaker transcript.Speaker, text string) bool {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return false
	}
	entry, ok := o.transcript.AppendFinal(speaker, text)
	o.mu.Unlock()

	if ok {
		o.notifyTranscript(entry)
	}
	return true
}

func (o *Orchestrator) notifyTranscript(entry transcript.Entry) {
	if o.callbacks.onTranscript != nil {
		o.callbacks.onTranscript(entry)
	}
}

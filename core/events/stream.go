package events

import "github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"

const (
	// KindStreamReady identifies provider-confirmed media stream readiness.
	KindStreamReady Kind = "stream.ready"
	// KindStreamDisconnected identifies loss of the media stream.
	KindStreamDisconnected Kind = "stream.disconnected"
)

// StreamReady marks that the media stream can be rendered.
type StreamReady struct {
	Base
	Stream *avatar.MediaStream
}

func (StreamReady) isEvent() {}

// NewStreamReady creates a stream ready event. stream may be nil.
func NewStreamReady(stream *avatar.MediaStream) StreamReady {
	return StreamReady{Base: NewBase(KindStreamReady), Stream: stream}
}

// StreamDisconnected marks that the media stream was lost.
type StreamDisconnected struct {
	Base
	Reason string
}

func (StreamDisconnected) isEvent() {}

// NewStreamDisconnected creates a stream disconnected event.
func NewStreamDisconnected(reason string) StreamDisconnected {
	return StreamDisconnected{Base: NewBase(KindStreamDisconnected), Reason: reason}
}

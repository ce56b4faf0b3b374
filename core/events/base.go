package events

import "time"

type Kind string

// Event is a closed set: only the types declared in this package implement
// it, so adding an event kind is a compile-time change.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
	isEvent()
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

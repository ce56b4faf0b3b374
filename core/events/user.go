package events

const (
	KindUserTurnStarted       Kind = "user.turn_started"
	KindUserTurnStopped       Kind = "user.turn_stopped"
	KindUserTranscriptPartial Kind = "user.transcript_partial"
	KindUserTurnEnded         Kind = "user.turn_ended"
)

type UserTurnStarted struct{ Base }

func (UserTurnStarted) isEvent() {}

func NewUserTurnStarted() UserTurnStarted {
	return UserTurnStarted{Base: NewBase(KindUserTurnStarted)}
}

type UserTurnStopped struct{ Base }

func (UserTurnStopped) isEvent() {}

func NewUserTurnStopped() UserTurnStopped {
	return UserTurnStopped{Base: NewBase(KindUserTurnStopped)}
}

// UserTranscriptPartial carries a fragment of recognized user speech.
type UserTranscriptPartial struct {
	Base
	Message string
}

func (UserTranscriptPartial) isEvent() {}

func NewUserTranscriptPartial(message string) UserTranscriptPartial {
	return UserTranscriptPartial{Base: NewBase(KindUserTranscriptPartial), Message: message}
}

// UserTurnEnded marks the end of a user turn.
type UserTurnEnded struct {
	Base
	Message string
}

func (UserTurnEnded) isEvent() {}

func NewUserTurnEnded(message string) UserTurnEnded {
	return UserTurnEnded{Base: NewBase(KindUserTurnEnded), Message: message}
}

package events

const (
	KindAvatarTalkingStarted    Kind = "avatar.talking_started"
	KindAvatarTalkingStopped    Kind = "avatar.talking_stopped"
	KindAvatarTranscriptPartial Kind = "avatar.transcript_partial"
	KindAvatarTurnEnded         Kind = "avatar.turn_ended"
)

type AvatarTalkingStarted struct{ Base }

func (AvatarTalkingStarted) isEvent() {}

func NewAvatarTalkingStarted() AvatarTalkingStarted {
	return AvatarTalkingStarted{Base: NewBase(KindAvatarTalkingStarted)}
}

type AvatarTalkingStopped struct{ Base }

func (AvatarTalkingStopped) isEvent() {}

func NewAvatarTalkingStopped() AvatarTalkingStopped {
	return AvatarTalkingStopped{Base: NewBase(KindAvatarTalkingStopped)}
}

// AvatarTranscriptPartial carries a fragment of what the avatar is saying.
type AvatarTranscriptPartial struct {
	Base
	Message string
}

func (AvatarTranscriptPartial) isEvent() {}

func NewAvatarTranscriptPartial(message string) AvatarTranscriptPartial {
	return AvatarTranscriptPartial{Base: NewBase(KindAvatarTranscriptPartial), Message: message}
}

// AvatarTurnEnded marks the end of an avatar turn. Message is empty when the
// provider does not repeat the full message.
type AvatarTurnEnded struct {
	Base
	Message string
}

func (AvatarTurnEnded) isEvent() {}

func NewAvatarTurnEnded(message string) AvatarTurnEnded {
	return AvatarTurnEnded{Base: NewBase(KindAvatarTurnEnded), Message: message}
}

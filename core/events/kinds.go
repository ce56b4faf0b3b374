package events

var allKinds = []Kind{
	KindAvatarTalkingStarted,
	KindAvatarTalkingStopped,
	KindStreamDisconnected,
	KindStreamReady,
	KindUserTurnStarted,
	KindUserTurnStopped,
	KindUserTurnEnded,
	KindUserTranscriptPartial,
	KindAvatarTranscriptPartial,
	KindAvatarTurnEnded,
}

// Kinds returns every kind a session can emit.
func Kinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

func (k Kind) IsValid() bool {
	for _, kind := range allKinds {
		if k == kind {
			return true
		}
	}
	return false
}

package orchestration

type SessionState int

const (
	StateInactive SessionState = iota
	StateConnecting
	StateConnected
)

func (s SessionState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

// VoiceChatState tracks voice chat separately from the session: a session
// can be Connected with voice chat failed, in which case it is only usable
// in text mode.
type VoiceChatState int

const (
	VoiceChatOff VoiceChatState = iota
	VoiceChatStarting
	VoiceChatActive
	VoiceChatFailed
)

func (s VoiceChatState) String() string {
	switch s {
	case VoiceChatOff:
		return "off"
	case VoiceChatStarting:
		return "starting"
	case VoiceChatActive:
		return "active"
	case VoiceChatFailed:
		return "failed"
	}
	return "unknown"
}

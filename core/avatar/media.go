package avatar

// MediaStream is the handle to the audio/video a started session produces.
// It is owned by the provider for the lifetime of the session; holders only
// pass it by reference to whatever renders it.
type MediaStream struct {
	SessionID string
	// URL is the media server the stream is published on.
	URL string
	// AccessToken authorizes a renderer to subscribe to the stream.
	AccessToken string
	// RealtimeEndpoint is the websocket endpoint used for voice chat and
	// inbound session events, empty when the provider did not open one.
	RealtimeEndpoint string
}

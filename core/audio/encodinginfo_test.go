package audio

import "testing"

func TestDefaultEncodingInfo(t *testing.T) {
	info := GetDefaultEncodingInfo()
	if info.IsZero() {
		t.Fatalf("expected default encoding to be set")
	}
	if got := info.BytesPerSecond(); got != 32000 {
		t.Fatalf("expected 32000 bytes per second, got %d", got)
	}
}

func TestBytesPerSecondUnknownFormat(t *testing.T) {
	info := EncodingInfo{SampleRate: 8000, Format: encodingFormat("opus")}
	if got := info.BytesPerSecond(); got != 0 {
		t.Fatalf("expected 0 for unknown format, got %d", got)
	}
	if got := (EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}).BytesPerSecond(); got != 8000 {
		t.Fatalf("expected 8000 for mono mulaw, got %d", got)
	}
}

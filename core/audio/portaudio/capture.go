// Package portaudio captures microphone audio through PortAudio, for hosts
// where the miniaudio backend finds no usable input device.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/audio"
	"github.com/gordonklaus/portaudio"
)

const DefaultFramesPerBuffer = 480

var ErrAlreadyStreaming = errors.New("capture already streaming")

// CaptureClient records mono 16-bit PCM from the default input device.
type CaptureClient struct {
	stream *portaudio.Stream
	in     []int16

	mu        sync.Mutex
	streaming bool
}

func NewCaptureClient(framesPerBuffer int) (*CaptureClient, error) {
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	in := make([]int16, framesPerBuffer*audio.DefaultChannels)
	stream, err := portaudio.OpenDefaultStream(audio.DefaultChannels, 0, audio.DefaultSampleRate, framesPerBuffer, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio stream: %w", err)
	}

	return &CaptureClient{stream: stream, in: in}, nil
}

func (c *CaptureClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// Stream reads from the device until ctx is done. Reads block for one
// buffer, so cancellation is noticed within a buffer's duration.
func (c *CaptureClient) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return ErrAlreadyStreaming
	}
	c.streaming = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.streaming = false
		c.mu.Unlock()
	}()

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}
	defer c.stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := c.stream.Read(); err != nil {
			// Overflow only means samples were dropped.
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			return fmt.Errorf("failed to read from PortAudio stream: %w", err)
		}
		onAudio(encodeLinear16(c.in))
	}
}

func (c *CaptureClient) Close() {
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}

func encodeLinear16(samples []int16) []byte {
	var buf bytes.Buffer
	buf.Grow(len(samples) * 2)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

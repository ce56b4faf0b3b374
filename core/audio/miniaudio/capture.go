// Package miniaudio captures microphone audio for voice chat.
package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/audio"
	"github.com/gen2brain/malgo"
)

// CaptureClient records mono 16-bit PCM from the default input device.
type CaptureClient struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	encoding     audio.EncodingInfo

	onAudio func(audio []byte)

	mu sync.Mutex
}

func NewCaptureClient() (*CaptureClient, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("malgo InitContext failed: %w", err)
	}

	client := &CaptureClient{audioContext: audioCtx, encoding: audio.GetDefaultEncodingInfo()}
	if err := client.init(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return client, nil
}

func (c *CaptureClient) init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * c.encoding.Channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(c.encoding.SampleRate)
	config.Capture.Format = format
	config.Capture.Channels = uint32(c.encoding.Channels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}

			c.mu.Lock()
			onAudio := c.onAudio
			c.mu.Unlock()
			if onAudio != nil {
				// The device reuses its buffer after the callback returns.
				onAudio(append([]byte(nil), pInput[:n]...))
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	c.device = device
	return nil
}

func (c *CaptureClient) EncodingInfo() audio.EncodingInfo {
	return c.encoding
}

// Stream captures until ctx is done.
func (c *CaptureClient) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.start(onAudio); err != nil {
		return err
	}

	<-ctx.Done()
	return c.stop()
}

func (c *CaptureClient) start(onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return fmt.Errorf("capture already streaming")
	}

	c.onAudio = onAudio
	if err := c.device.Start(); err != nil {
		c.onAudio = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *CaptureClient) stop() error {
	// device.Stop waits for the data callback, which takes c.mu.
	c.mu.Lock()
	c.onAudio = nil
	device := c.device
	c.mu.Unlock()

	if device == nil || !device.IsStarted() {
		return nil
	}
	if err := device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (c *CaptureClient) Close() {
	c.mu.Lock()
	device := c.device
	c.device = nil
	c.onAudio = nil
	c.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

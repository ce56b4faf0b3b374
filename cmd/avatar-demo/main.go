// Command avatar-demo is a terminal front end for a streaming avatar
// session: a configuration panel, start and stop controls, the live
// transcript and session status.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	orchestration "github.com/Odinzzz/InteractiveAvatarNextJSDemo/core"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/audio/miniaudio"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/audio/portaudio"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/events"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/providers/heygen"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/tokens"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/transcript"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultTokenURL = "http://localhost:3001" + tokens.DefaultRoute

const (
	backendMiniaudio = "miniaudio"
	backendPortaudio = "portaudio"
)

type demoConfig struct {
	TokenURL     string
	AvatarName   string
	VoiceMode    bool
	Microphone   bool
	AudioBackend string
}

func parseDemoConfig(args []string, getenv func(string) string) (demoConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	tokenURL := strings.TrimSpace(getenv("AVATAR_TOKEN_URL"))
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	cfg := demoConfig{}
	fs := flag.NewFlagSet("avatar-demo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.TokenURL, "token-url", tokenURL, "token-issuing route (or AVATAR_TOKEN_URL)")
	fs.StringVar(&cfg.AvatarName, "avatar", "", "avatar to preselect")
	fs.BoolVar(&cfg.VoiceMode, "voice", false, "start sessions with voice chat")
	fs.BoolVar(&cfg.Microphone, "mic", true, "capture the microphone for voice chat")
	fs.StringVar(&cfg.AudioBackend, "audio", backendMiniaudio, "capture backend: miniaudio or portaudio")
	if err := fs.Parse(args); err != nil {
		return demoConfig{}, err
	}

	switch cfg.AudioBackend {
	case backendMiniaudio, backendPortaudio:
	default:
		return demoConfig{}, fmt.Errorf("unknown audio backend %q", cfg.AudioBackend)
	}
	return cfg, nil
}

type captureClient interface {
	orchestration.AudioInput
	Close()
}

func newCaptureClient(backend string) (captureClient, error) {
	if backend == backendPortaudio {
		return portaudio.NewCaptureClient(portaudio.DefaultFramesPerBuffer)
	}
	return miniaudio.NewCaptureClient()
}

func (c demoConfig) avatarConfig() avatar.Config {
	if c.AvatarName == "" {
		return avatar.DefaultConfig()
	}
	return avatar.DefaultConfig().Apply(avatar.WithAvatarName(c.AvatarName))
}

func main() {
	cfg, err := parseDemoConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithConfig(cfg.avatarConfig()),
		orchestration.WithStateChangedCallback(func(state orchestration.SessionState) { send(stateMsg{state}) }),
		orchestration.WithVoiceChatStateChangedCallback(func(state orchestration.VoiceChatState) { send(voiceChatMsg{state}) }),
		orchestration.WithTranscriptCallback(func(entry transcript.Entry) { send(transcriptMsg{entry}) }),
		orchestration.WithErrorCallback(func(err error) { send(errMsg{err}) }),
		orchestration.WithEventCallback(func(event events.Event) {
			if disconnected, ok := event.(events.StreamDisconnected); ok {
				send(errMsg{fmt.Errorf("stream disconnected: %s", disconnected.Reason)})
			}
		}),
	}

	if cfg.Microphone {
		capture, err := newCaptureClient(cfg.AudioBackend)
		if err != nil {
			log.Printf("Microphone unavailable, voice chat will not send audio: %v", err)
		} else {
			defer capture.Close()
			opts = append(opts, orchestration.WithAudioInput(capture))
		}
	}

	orchestrator := orchestration.NewOrchestrator(tokens.NewClient(cfg.TokenURL), heygen.NewProvider(), opts...)
	// Teardown must end the provider-side session. Close runs before
	// capture.Close and returns once capture has let go of the device.
	defer orchestrator.Close()

	program = tea.NewProgram(newModel(context.Background(), orchestrator, cfg.VoiceMode), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Printf("Avatar demo failed: %v", err)
	}
}

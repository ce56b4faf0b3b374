// Package avatar describes the configuration of a streaming avatar session
// and the media handle a started session hands back.
package avatar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
)

type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

func (q Quality) IsValid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	}
	return false
}

type VoiceEmotion string

const (
	VoiceEmotionExcited     VoiceEmotion = "excited"
	VoiceEmotionSerious     VoiceEmotion = "serious"
	VoiceEmotionFriendly    VoiceEmotion = "friendly"
	VoiceEmotionSoothing    VoiceEmotion = "soothing"
	VoiceEmotionBroadcaster VoiceEmotion = "broadcaster"
)

func (e VoiceEmotion) IsValid() bool {
	switch e {
	case "", VoiceEmotionExcited, VoiceEmotionSerious, VoiceEmotionFriendly,
		VoiceEmotionSoothing, VoiceEmotionBroadcaster:
		return true
	}
	return false
}

// VoiceModel names the speech synthesis model used for the avatar voice.
type VoiceModel string

const (
	VoiceModelElevenFlashV2           VoiceModel = "eleven_flash_v2"
	VoiceModelElevenFlashV2_5         VoiceModel = "eleven_flash_v2_5"
	VoiceModelElevenMultilingualV2    VoiceModel = "eleven_multilingual_v2"
	VoiceModelElevenMultilingualStsV2 VoiceModel = "eleven_multilingual_sts_v2"
	VoiceModelElevenTurboV2           VoiceModel = "eleven_turbo_v2"
	VoiceModelElevenTurboV2_5         VoiceModel = "eleven_turbo_v2_5"
)

func (m VoiceModel) IsValid() bool {
	switch m {
	case "", VoiceModelElevenFlashV2, VoiceModelElevenFlashV2_5, VoiceModelElevenMultilingualV2,
		VoiceModelElevenMultilingualStsV2, VoiceModelElevenTurboV2, VoiceModelElevenTurboV2_5:
		return true
	}
	return false
}

type Transport string

const (
	TransportWebsocket Transport = "websocket"
	TransportLiveKit   Transport = "livekit"
)

func (t Transport) IsValid() bool {
	return t == TransportWebsocket || t == TransportLiveKit
}

type STTProvider string

const (
	STTProviderDeepgram STTProvider = "deepgram"
	STTProviderGladia   STTProvider = "gladia"
)

func (p STTProvider) IsValid() bool {
	return p == "" || p == STTProviderDeepgram || p == STTProviderGladia
}

const (
	MinVoiceRate = 0.5
	MaxVoiceRate = 1.5
)

type VoiceSettings struct {
	VoiceID string       `json:"voice_id,omitempty" jsonschema:"title=Voice ID"`
	Rate    float64      `json:"rate,omitempty" jsonschema:"title=Speaking rate,minimum=0.5,maximum=1.5"`
	Emotion VoiceEmotion `json:"emotion,omitempty" jsonschema:"title=Emotion,enum=excited,enum=serious,enum=friendly,enum=soothing,enum=broadcaster"`
	Model   VoiceModel   `json:"model,omitempty" jsonschema:"title=Voice model"`
}

type STTSettings struct {
	Provider   STTProvider `json:"provider,omitempty" jsonschema:"title=Speech recognition provider,enum=deepgram,enum=gladia"`
	Confidence float64     `json:"confidence,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// Config is the set of parameters a session is started with. It is edited
// freely before a start is requested and treated as immutable afterwards,
// see [Config.Clone].
type Config struct {
	Quality    Quality `json:"quality" jsonschema:"title=Quality,enum=low,enum=medium,enum=high"`
	AvatarName string  `json:"avatar_name" jsonschema:"title=Avatar"`
	// KnowledgeID references a knowledge base stored by the provider. Mutually
	// exclusive with KnowledgeBase.
	KnowledgeID string `json:"knowledge_id,omitempty" jsonschema:"title=Knowledge base ID"`
	// KnowledgeBase is inline prompt text that instructs the avatar.
	KnowledgeBase       string        `json:"knowledge_base,omitempty" jsonschema:"title=Knowledge base"`
	Voice               VoiceSettings `json:"voice"`
	Language            string        `json:"language,omitempty" jsonschema:"title=Language"`
	VoiceChatTransport  Transport     `json:"voice_chat_transport" jsonschema:"enum=websocket,enum=livekit"`
	STTSettings         STTSettings   `json:"stt_settings"`
	DisableIdleTimeout  bool          `json:"disable_idle_timeout,omitempty"`
	ActivityIdleTimeout int           `json:"activity_idle_timeout,omitempty" jsonschema:"description=Seconds of inactivity before the provider ends the session"`
}

var ErrInvalidConfig = errors.New("invalid session configuration")

// Validate reports every problem found in the configuration joined into one
// error wrapping [ErrInvalidConfig].
func (c Config) Validate() error {
	var problems []string
	if !c.Quality.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown quality %q", c.Quality))
	}
	if strings.TrimSpace(c.AvatarName) == "" {
		problems = append(problems, "avatar name is required")
	}
	if c.KnowledgeID != "" && c.KnowledgeBase != "" {
		problems = append(problems, "knowledge id and inline knowledge base are mutually exclusive")
	}
	if c.Voice.Rate != 0 && (c.Voice.Rate < MinVoiceRate || c.Voice.Rate > MaxVoiceRate) {
		problems = append(problems, fmt.Sprintf("voice rate %.2f outside [%.1f, %.1f]", c.Voice.Rate, MinVoiceRate, MaxVoiceRate))
	}
	if !c.Voice.Emotion.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown voice emotion %q", c.Voice.Emotion))
	}
	if !c.Voice.Model.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown voice model %q", c.Voice.Model))
	}
	if !c.VoiceChatTransport.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown voice chat transport %q", c.VoiceChatTransport))
	}
	if !c.STTSettings.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown speech recognition provider %q", c.STTSettings.Provider))
	}
	if c.ActivityIdleTimeout < 0 {
		problems = append(problems, "activity idle timeout cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Clone returns a deep copy that shares no memory with c.
func (c Config) Clone() (Config, error) {
	var clone Config
	if err := copier.CopyWithOption(&clone, &c, copier.Option{DeepCopy: true}); err != nil {
		return Config{}, fmt.Errorf("failed to copy session configuration: %w", err)
	}
	return clone, nil
}

// Apply returns a copy of c with opts applied.
func (c Config) Apply(opts ...Option) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

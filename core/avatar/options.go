package avatar

type Option func(*Config)

func WithQuality(quality Quality) Option {
	return func(c *Config) { c.Quality = quality }
}

func WithAvatarName(name string) Option {
	return func(c *Config) { c.AvatarName = name }
}

// WithKnowledgeID points the session at a provider-stored knowledge base and
// clears any inline knowledge base text.
func WithKnowledgeID(id string) Option {
	return func(c *Config) {
		c.KnowledgeID = id
		c.KnowledgeBase = ""
	}
}

// WithKnowledgeBase sets inline instructions and clears any knowledge id.
func WithKnowledgeBase(text string) Option {
	return func(c *Config) {
		c.KnowledgeBase = text
		c.KnowledgeID = ""
	}
}

func WithVoiceID(id string) Option {
	return func(c *Config) { c.Voice.VoiceID = id }
}

func WithVoiceRate(rate float64) Option {
	return func(c *Config) { c.Voice.Rate = rate }
}

func WithVoiceEmotion(emotion VoiceEmotion) Option {
	return func(c *Config) { c.Voice.Emotion = emotion }
}

func WithVoiceModel(model VoiceModel) Option {
	return func(c *Config) { c.Voice.Model = model }
}

func WithLanguage(language string) Option {
	return func(c *Config) { c.Language = language }
}

func WithTransport(transport Transport) Option {
	return func(c *Config) { c.VoiceChatTransport = transport }
}

func WithSTTProvider(provider STTProvider) Option {
	return func(c *Config) { c.STTSettings.Provider = provider }
}

func WithActivityIdleTimeout(seconds int) Option {
	return func(c *Config) { c.ActivityIdleTimeout = seconds }
}

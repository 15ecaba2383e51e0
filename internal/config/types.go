package config

// VoiceMode identifies a speech capture mode.
type VoiceMode string

const (
	VoiceStandard  VoiceMode = "standard"
	VoiceAssistant VoiceMode = "assistant"
)

// Config is the top-level smartdocq configuration, corresponding to
// config.yml under the data directory.
type Config struct {
	APIBase        string      `yaml:"api_base" koanf:"api_base"`
	DataDir        string      `yaml:"data_dir" koanf:"data_dir"`
	TimeoutSeconds int         `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	Voice          VoiceConfig `yaml:"voice" koanf:"voice"`
	Share          ShareConfig `yaml:"share" koanf:"share"`
}

// VoiceConfig holds speech recognition settings. RecognizerURL is the
// websocket endpoint of a streaming speech-to-text service; when it is
// empty, voice input is unavailable and every voice entry point is hidden.
type VoiceConfig struct {
	RecognizerURL string `yaml:"recognizer_url" koanf:"recognizer_url"`
	Language      string `yaml:"language" koanf:"language"`
}

// ShareConfig holds settings for the local shared-conversation viewer.
type ShareConfig struct {
	ServePort int `yaml:"serve_port" koanf:"serve_port"`
}

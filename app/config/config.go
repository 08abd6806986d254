package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Service name for logs
	ServiceName string     `yaml:"service_name" env:"SERVICE_NAME" example:"videoadguard"`
	Sentry      Sentry     `yaml:"sentry" envPrefix:"SENTRY_"`
	Log         Log        `yaml:"log" envPrefix:"LOG_"`
	DB          DB         `yaml:"db" envPrefix:"DB_"`
	Bilibili    Bilibili   `yaml:"bilibili" envPrefix:"BILIBILI_"`
	LLM         LLM        `yaml:"llm" envPrefix:"LLM_"`
	Transcribe  Transcribe `yaml:"transcribe" envPrefix:"TRANSCRIBE_"`
	Detector    Detector   `yaml:"detector" envPrefix:"DETECTOR_"`
	Server      Server     `yaml:"server" envPrefix:"SERVER_"`
}

type Sentry struct {
	DSN string `yaml:"dsn" env:"DSN" example:"https://a1b2c3d4e5f6g7h8a1b2c3d4e5f6g7h8@o123456.ingest.sentry.io/1234567"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram" envPrefix:"TELEGRAM_"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" env:"TOKEN" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" env:"CHAT_ID" example:"1001234567890"`
}

type DB struct {
	// Path to the sqlite database file
	Path string `yaml:"path" env:"PATH" example:"videoadguard.db" validate:"required"`
}

type Bilibili struct {
	// User-Agent header sent to the platform API
	UserAgent string `yaml:"user_agent" env:"USER_AGENT" validate:"required"`
	// Referer header sent to the platform API
	Referer string `yaml:"referer" env:"REFERER" validate:"required"`
	// Optional account cookie, enables member-only subtitle tracks
	Cookie string `yaml:"cookie" env:"COOKIE"`
}

type LLM struct {
	// OpenAI-compatible chat completions endpoint base url
	BaseURL string `yaml:"base_url" env:"BASE_URL" example:"https://open.bigmodel.cn/api/paas/v4" validate:"required"`
	// API key, analysis is refused without it
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Model name
	Model string `yaml:"model" env:"MODEL" example:"glm-4-flash" validate:"required"`
	// Sampling temperature
	Temperature float32 `yaml:"temperature" example:"0.1"`
	// Completion token cap
	MaxTokens int `yaml:"max_tokens" example:"1024" validate:"required"`
}

type Transcribe struct {
	// OpenAI-compatible audio transcription endpoint base url
	BaseURL string `yaml:"base_url" env:"BASE_URL" example:"https://api.groq.com/openai/v1" validate:"required"`
	// API key for the speech-to-text provider
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Whisper model name
	Model string `yaml:"model" env:"MODEL" example:"whisper-large-v3-turbo" validate:"required"`
	// Provider upload hard cap in bytes
	MaxAudioBytes int64 `yaml:"max_audio_bytes" example:"19922944" validate:"required"`
}

type Detector struct {
	// Detections with more raw model segments than this are not auto-skipped
	MaxRawSegments int `yaml:"max_raw_segments" example:"3" validate:"required"`
	// Detections covering at least this fraction of the video are not auto-skipped
	MaxAdRatio float64 `yaml:"max_ad_ratio" example:"0.5" validate:"required"`
	// Seconds before an ad segment at which the cancellable notice is shown
	PrerollSeconds float64 `yaml:"preroll_seconds" example:"3"`
	// Minimum seconds between auto-skip watcher checks
	WatchIntervalSeconds float64 `yaml:"watch_interval_seconds" example:"1"`
	// Seconds added past the segment end when seeking
	SeekEpsilon float64 `yaml:"seek_epsilon" example:"0.1"`
	// Manual skip activates within this many seconds before a segment start
	ManualToleranceSeconds float64 `yaml:"manual_tolerance_seconds" example:"1"`
	// Detection cache time-to-live in hours
	CacheTTLHours int `yaml:"cache_ttl_hours" example:"24" validate:"required"`
}

type Server struct {
	// Web server port
	HttpPort int `yaml:"http_port" env:"HTTP_PORT" example:"8080" validate:"required"`
}

func Load(configPath string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if err := env.ParseWithOptions(&result, env.Options{ //nolint:exhaustruct
		Prefix: "VIDEOADGUARD_",
	}); err != nil {
		return nil, oops.Errorf("failed to parse environment variables: %w", err)
	}

	if result.ServiceName == "" {
		result.ServiceName = "videoadguard"
	}
	if result.DB.Path == "" {
		result.DB.Path = "videoadguard.db"
	}
	if result.Bilibili.UserAgent == "" {
		result.Bilibili.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if result.Bilibili.Referer == "" {
		result.Bilibili.Referer = "https://www.bilibili.com/"
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = "https://open.bigmodel.cn/api/paas/v4"
	}
	if result.LLM.Model == "" {
		result.LLM.Model = "glm-4-flash"
	}
	if result.LLM.Temperature == 0 {
		result.LLM.Temperature = 0.1
	}
	if result.LLM.MaxTokens == 0 {
		result.LLM.MaxTokens = 1024
	}
	if result.Transcribe.BaseURL == "" {
		result.Transcribe.BaseURL = "https://api.groq.com/openai/v1"
	}
	if result.Transcribe.Model == "" {
		result.Transcribe.Model = "whisper-large-v3-turbo"
	}
	if result.Transcribe.MaxAudioBytes == 0 {
		result.Transcribe.MaxAudioBytes = 19 * 1024 * 1024
	}
	if result.Detector.MaxRawSegments == 0 {
		result.Detector.MaxRawSegments = 3
	}
	if result.Detector.MaxAdRatio == 0 {
		result.Detector.MaxAdRatio = 0.5
	}
	if result.Detector.PrerollSeconds == 0 {
		result.Detector.PrerollSeconds = 3
	}
	if result.Detector.WatchIntervalSeconds == 0 {
		result.Detector.WatchIntervalSeconds = 1
	}
	if result.Detector.SeekEpsilon == 0 {
		result.Detector.SeekEpsilon = 0.1
	}
	if result.Detector.ManualToleranceSeconds == 0 {
		result.Detector.ManualToleranceSeconds = 1
	}
	if result.Detector.CacheTTLHours == 0 {
		result.Detector.CacheTTLHours = 24
	}
	if result.Server.HttpPort == 0 {
		result.Server.HttpPort = 8080
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

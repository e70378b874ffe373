package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	LedgerModeMock   = "mock"
	LedgerModeNessie = "nessie"

	ChatProviderOpenAI = "openai"
	ChatProviderGemini = "gemini"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash"
)

// Config holds the resolved runtime settings.
type Config struct {
	Port        string
	LogLevel    string
	CatalogPath string

	LedgerMode    string
	NessieAPIKey  string
	NessieBaseURL string
	NessieTimeout time.Duration

	ChatProvider  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	ChatModel     string
	ChatTimeout   time.Duration

	SpeechEnabled  bool
	SpeechLanguage string
	SpeechTimeout  time.Duration
	AudioDir       string
	AudioBucket    string

	RedisAddr string
	CacheTTL  time.Duration

	CORSOrigins []string
}

var defaults = map[string]interface{}{
	"port":            "8000",
	"log_level":       "info",
	"catalog_path":    "data",
	"ledger_mode":     LedgerModeMock,
	"nessie_api_key":  "",
	"nessie_base_url": "http://api.nessieisreal.com",
	"nessie_timeout":  "10s",
	"chat_provider":   ChatProviderOpenAI,
	"openai_api_key":  "",
	"openai_base_url": "",
	"gemini_api_key":  "",
	"chat_model":      "",
	"chat_timeout":    "30s",
	"speech_enabled":  false,
	"speech_language": "en-US",
	"speech_timeout":  "10s",
	"audio_dir":       "static/audio",
	"audio_bucket":    "",
	"redis_addr":      "",
	"cache_ttl":       "5m",
	"cors_origins":    "*",
}

// ProcessEnvironmentVariables resolves configuration from defaults, then envFile when it
// exists, then the process environment. An empty envFile skips the file.
func ProcessEnvironmentVariables(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read env file %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat env file %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()

	nessieTimeout, err := duration(v, "nessie_timeout")
	if err != nil {
		return nil, err
	}
	chatTimeout, err := duration(v, "chat_timeout")
	if err != nil {
		return nil, err
	}
	speechTimeout, err := duration(v, "speech_timeout")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := duration(v, "cache_ttl")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		LogLevel:       v.GetString("log_level"),
		CatalogPath:    v.GetString("catalog_path"),
		LedgerMode:     strings.ToLower(v.GetString("ledger_mode")),
		NessieAPIKey:   v.GetString("nessie_api_key"),
		NessieBaseURL:  v.GetString("nessie_base_url"),
		NessieTimeout:  nessieTimeout,
		ChatProvider:   strings.ToLower(v.GetString("chat_provider")),
		OpenAIAPIKey:   v.GetString("openai_api_key"),
		OpenAIBaseURL:  v.GetString("openai_base_url"),
		GeminiAPIKey:   v.GetString("gemini_api_key"),
		ChatModel:      v.GetString("chat_model"),
		ChatTimeout:    chatTimeout,
		SpeechEnabled:  v.GetBool("speech_enabled"),
		SpeechLanguage: v.GetString("speech_language"),
		SpeechTimeout:  speechTimeout,
		AudioDir:       v.GetString("audio_dir"),
		AudioBucket:    v.GetString("audio_bucket"),
		RedisAddr:      v.GetString("redis_addr"),
		CacheTTL:       cacheTTL,
		CORSOrigins:    splitList(v.GetString("cors_origins")),
	}

	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultOpenAIModel
		if cfg.ChatProvider == ChatProviderGemini {
			cfg.ChatModel = defaultGeminiModel
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks mode and provider names and the keys they require.
func (c *Config) Validate() error {
	switch c.LedgerMode {
	case LedgerModeMock:
	case LedgerModeNessie:
		if c.NessieAPIKey == "" {
			return errors.New("NESSIE_API_KEY is required when LEDGER_MODE is nessie")
		}
	default:
		return fmt.Errorf("unknown LEDGER_MODE %q", c.LedgerMode)
	}

	switch c.ChatProvider {
	case ChatProviderOpenAI, ChatProviderGemini:
	default:
		return fmt.Errorf("unknown CHAT_PROVIDER %q", c.ChatProvider)
	}

	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	return nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToUpper(key), raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", strings.ToUpper(key), raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package configs

import (
	"errors"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	App        `mapstructure:"app"`
	OpenAI     `mapstructure:"openai"`
	ElevenLabs `mapstructure:"elevenlabs"`
	Session    `mapstructure:"session"`
	Redis      `mapstructure:"redis"`
	Case       `mapstructure:"case"`
	Persona    `mapstructure:"persona"`
}

// App struct
type App struct {
	Debug bool   `mapstructure:"debug"`
	Env   string `mapstructure:"env"`
	Port  string `mapstructure:"port"`
}

// OpenAI struct - chat completion provider settings.
// Timeout is expressed in seconds.
type OpenAI struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     int     `mapstructure:"timeout"`
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ElevenLabs struct - speech synthesis provider settings.
// Timeout is expressed in seconds.
type ElevenLabs struct {
	APIKey     string `mapstructure:"api_key"`
	VoiceID    string `mapstructure:"voice_id"`
	ModelID    string `mapstructure:"model_id"`
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// Session struct
// IdleTimeout is expressed in minutes, 0 disables idle expiry.
type Session struct {
	Backend         string `mapstructure:"backend"`
	MaxInteractions int    `mapstructure:"max_interactions"`
	IdleTimeout     int    `mapstructure:"idle_timeout"`
}

// Redis struct
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Case struct
type Case struct {
	Path string `mapstructure:"path"`
}

// Persona struct
type Persona struct {
	Style string `mapstructure:"style"`
}

// HasProviderCredentials reports whether both upstream API keys are configured.
func (c *Config) HasProviderCredentials() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != "" && strings.TrimSpace(c.ElevenLabs.APIKey) != ""
}

var config Config

// InitViper func
func InitViper(path, env string) {
	getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.port", "3000")

	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "gpt-3.5-turbo-1106")
	viper.SetDefault("openai.base_url", "")
	viper.SetDefault("openai.timeout", 30)
	viper.SetDefault("openai.max_retries", 2)
	viper.SetDefault("openai.temperature", 0.6)
	viper.SetDefault("openai.max_tokens", 1000)

	viper.SetDefault("elevenlabs.api_key", "")
	viper.SetDefault("elevenlabs.voice_id", "9BWtsMINqrJLrRacOk9x")
	viper.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")
	viper.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	viper.SetDefault("elevenlabs.timeout", 30)
	viper.SetDefault("elevenlabs.max_retries", 1)

	viper.SetDefault("session.backend", "memory")
	viper.SetDefault("session.max_interactions", 70)
	viper.SetDefault("session.idle_timeout", 0)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("case.path", "data/case.json")
	viper.SetDefault("persona.style", "conversational")
}

func getConfig(path, env string) {
	viper.Reset()
	setDefaults()

	if env != "" {
		viper.SetDefault("app.env", env)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// The speech key has historically been exported under both spellings.
	_ = viper.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY", "ELEVEN_LABS_API_KEY")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(err)
		}
		logrus.Warnf("No config.yaml found in %s, using defaults and environment", path)
	} else {
		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			logrus.Infof("Config file has changed: %s", e.Name)
		})
	}

	config = Config{}
	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Fatalln(err)
	}
}

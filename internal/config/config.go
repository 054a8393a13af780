package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// AuthSecret signs and verifies the HS256 bearer tokens issued to the
	// practice's front end. Required outside development.
	AuthSecret string `mapstructure:"AUTH_SECRET"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string  `mapstructure:"BODY_LIMIT"`

	// Photo storage. When PhotoDir is empty the server falls back to the
	// in-memory store (dev/test only).
	PhotoDir     string `mapstructure:"PHOTO_DIR"`
	PhotoBaseURL string `mapstructure:"PHOTO_BASE_URL"`

	// Hosted AI collaborators.
	GroqAPIKey          string `mapstructure:"GROQ_API_KEY"`
	GroqBaseURL         string `mapstructure:"GROQ_BASE_URL"`
	GroqTranscribeModel string `mapstructure:"GROQ_TRANSCRIBE_MODEL"`
	GroqChatModel       string `mapstructure:"GROQ_CHAT_MODEL"`
	GeminiAPIKey        string `mapstructure:"GEMINI_API_KEY"`
	GeminiBaseURL       string `mapstructure:"GEMINI_BASE_URL"`
	GeminiModel         string `mapstructure:"GEMINI_MODEL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "25M")
	v.SetDefault("PHOTO_BASE_URL", "http://localhost:8000/photos")
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("GROQ_TRANSCRIBE_MODEL", "whisper-large-v3")
	v.SetDefault("GROQ_CHAT_MODEL", "mixtral-8x7b-32768")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("PHOTO_DIR")
	v.BindEnv("PHOTO_BASE_URL")
	v.BindEnv("GROQ_API_KEY")
	v.BindEnv("GROQ_BASE_URL")
	v.BindEnv("GROQ_TRANSCRIBE_MODEL")
	v.BindEnv("GROQ_CHAT_MODEL")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("GEMINI_BASE_URL")
	v.BindEnv("GEMINI_MODEL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Requests without a bearer token are accepted.")
		log.Println("WARNING: Set ENV=production and AUTH_SECRET for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// AUTH_SECRET must be set so bearer authentication is enforced, and photo
// storage must be backed by a real directory rather than process memory.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSecret == "" {
		return fmt.Errorf(
			"AUTH_SECRET must be set when ENV=%q. "+
				"Refusing to start an unauthenticated patient-record server", c.Env)
	}
	if c.IsProduction() && c.PhotoDir == "" {
		return fmt.Errorf("PHOTO_DIR is required in production: the in-memory photo store loses uploads on restart")
	}
	if c.PhotoDir != "" && c.PhotoBaseURL == "" {
		return fmt.Errorf("PHOTO_BASE_URL is required when PHOTO_DIR is set")
	}
	return nil
}

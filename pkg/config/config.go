package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceName string `yaml:"service_name"`
	ServerPort  int    `yaml:"server_port"`
	LogLevel    string `yaml:"log_level"`

	DatabaseURL string `yaml:"database_url"`

	JWTAccessSecret  string        `yaml:"jwt_secret"`
	JWTRefreshSecret string        `yaml:"jwt_refresh_secret"`
	AccessTTL        time.Duration `yaml:"access_ttl"`
	RefreshTTL       time.Duration `yaml:"refresh_ttl"`
	CookieSecure     bool          `yaml:"cookie_secure"`

	AllowedOrigins []string      `yaml:"allowed_origins"`
	ClientURL      string        `yaml:"client_url"`
	ResetTokenTTL  time.Duration `yaml:"reset_token_ttl"`

	Mail MailConfig `yaml:"mail"`
	AI   AIConfig   `yaml:"ai"`

	KafkaBrokers []string `yaml:"kafka_brokers"`

	ESURL      string `yaml:"es_url"`
	ESUser     string `yaml:"es_user"`
	ESPassword string `yaml:"es_password"`

	ReminderSpec   string        `yaml:"reminder_spec"`
	ReminderWindow time.Duration `yaml:"reminder_window"`
}

type MailConfig struct {
	Provider      string `yaml:"provider"`
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPUser      string `yaml:"smtp_user"`
	SMTPPass      string `yaml:"smtp_pass"`
	From          string `yaml:"from"`
	PostmarkToken string `yaml:"postmark_token"`
}

type AIConfig struct {
	Provider  string        `yaml:"provider"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	OllamaURL string        `yaml:"ollama_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	Backoff   time.Duration `yaml:"backoff"`
}

// Load reads .env (if present), the process environment and, when
// CONFIG_FILE is set, a YAML file whose values win over the environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := FromEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

func FromEnv() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "job-tracker"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		AccessTTL:        EnvDurationDefault("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:       EnvDurationDefault("JWT_REFRESH_TTL", 7*24*time.Hour),
		CookieSecure:     EnvBoolDefault("COOKIE_SECURE", false),

		AllowedOrigins: CSV(EnvDefault("ALLOWED_ORIGINS", "http://localhost:5173")),
		ClientURL:      EnvDefault("CLIENT_URL", "http://localhost:5173"),
		ResetTokenTTL:  EnvDurationDefault("RESET_TOKEN_TTL", 15*time.Minute),

		Mail: MailConfig{
			Provider:      EnvDefault("MAIL_PROVIDER", "none"),
			SMTPHost:      os.Getenv("SMTP_HOST"),
			SMTPPort:      EnvIntDefault("SMTP_PORT", 587),
			SMTPUser:      os.Getenv("SMTP_USER"),
			SMTPPass:      os.Getenv("SMTP_PASS"),
			From:          EnvDefault("SMTP_FROM", os.Getenv("SMTP_USER")),
			PostmarkToken: os.Getenv("POSTMARK_TOKEN"),
		},

		AI: AIConfig{
			Provider:  EnvDefault("AI_PROVIDER", "gemini"),
			APIKey:    os.Getenv("GOOGLE_API_KEY"),
			Model:     EnvDefault("AI_MODEL", "gemini-2.5-flash"),
			OllamaURL: EnvDefault("OLLAMA_URL", "http://localhost:11434"),
			Timeout:   EnvDurationDefault("AI_TIMEOUT", 60*time.Second),
			Retries:   EnvIntDefault("AI_RETRIES", 1),
			Backoff:   EnvDurationDefault("AI_BACKOFF", 500*time.Millisecond),
		},

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		ReminderSpec:   EnvDefault("REMINDER_SPEC", "0 9 * * *"),
		ReminderWindow: EnvDurationDefault("REMINDER_WINDOW", 48*time.Hour),
	}
}

func overlayFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return yaml.NewDecoder(f).Decode(cfg)
}

func (c Config) AccessSecret() []byte  { return []byte(c.JWTAccessSecret) }
func (c Config) RefreshSecret() []byte { return []byte(c.JWTRefreshSecret) }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

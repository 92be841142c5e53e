package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the server and the notifier worker.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	Centrifugo CentrifugoConfig `mapstructure:"centrifugo"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	VoiceAgent VoiceAgentConfig `mapstructure:"voice_agent"`
	SMS        SMSConfig        `mapstructure:"sms"`
	Email      EmailConfig      `mapstructure:"email"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port int    `mapstructure:"port"`

	// PublicBaseURL is the externally reachable origin used to build the
	// tool callback URLs registered with the voice-agent provider.
	PublicBaseURL  string   `mapstructure:"public_base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string. Timestamps are stored in UTC;
// restaurant-local dates are computed from each restaurant's own timezone.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type CentrifugoConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// JWTConfig verifies tokens minted by the external identity provider.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type VoiceAgentConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`

	// WebhookSecret signs post-call webhooks. Empty disables verification,
	// which is only acceptable in development.
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type SMSConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	AccountSID string        `mapstructure:"account_sid"`
	AuthToken  string        `mapstructure:"auth_token"`
	FromNumber string        `mapstructure:"from_number"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether SMS credentials are present.
func (c *SMSConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

type EmailConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	From    string        `mapstructure:"from"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether an email provider key is present.
func (c *EmailConfig) Enabled() bool {
	return c.APIKey != ""
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// IsProduction checks if app is in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment checks if app is in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from file and environment variables.
// Environment variables always win over the file.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Name:           getEnvOrDefault("APP_NAME", v.GetString("app.name")),
			Env:            getEnvOrDefault("APP_ENV", v.GetString("app.env")),
			Port:           getEnvOrDefaultInt("APP_PORT", v.GetInt("app.port")),
			PublicBaseURL:  strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", v.GetString("app.public_base_url")), "/"),
			AllowedOrigins: v.GetStringSlice("app.allowed_origins"),
		},
		Database: DatabaseConfig{
			Host:            getEnvOrDefault("DB_HOST", v.GetString("database.host")),
			Port:            getEnvOrDefaultInt("DB_PORT", v.GetInt("database.port")),
			User:            getEnvOrDefault("DB_USER", v.GetString("database.user")),
			Password:        getEnvOrDefault("DB_PASSWORD", v.GetString("database.password")),
			Name:            getEnvOrDefault("DB_NAME", v.GetString("database.name")),
			SSLMode:         getEnvOrDefault("DB_SSL_MODE", v.GetString("database.ssl_mode")),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnvOrDefault("RABBITMQ_URL", v.GetString("rabbitmq.url")),
			Queue: getEnvOrDefault("RABBITMQ_QUEUE", v.GetString("rabbitmq.queue")),
		},
		Centrifugo: CentrifugoConfig{
			URL:    getEnvOrDefault("CENTRIFUGO_URL", v.GetString("centrifugo.url")),
			APIKey: getEnvOrDefault("CENTRIFUGO_API_KEY", v.GetString("centrifugo.api_key")),
		},
		JWT: JWTConfig{
			Secret: getEnvOrDefault("JWT_SECRET", v.GetString("jwt.secret")),
			Issuer: getEnvOrDefault("JWT_ISSUER", v.GetString("jwt.issuer")),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", v.GetString("logging.level")),
			Format: getEnvOrDefault("LOG_FORMAT", v.GetString("logging.format")),
		},
		VoiceAgent: VoiceAgentConfig{
			BaseURL:       getEnvOrDefault("VOICE_AGENT_BASE_URL", v.GetString("voice_agent.base_url")),
			APIKey:        getEnvOrDefault("VOICE_AGENT_API_KEY", v.GetString("voice_agent.api_key")),
			WebhookSecret: getEnvOrDefault("VOICE_AGENT_WEBHOOK_SECRET", v.GetString("voice_agent.webhook_secret")),
			Timeout:       v.GetDuration("voice_agent.timeout"),
		},
		SMS: SMSConfig{
			BaseURL:    getEnvOrDefault("SMS_BASE_URL", v.GetString("sms.base_url")),
			AccountSID: getEnvOrDefault("SMS_ACCOUNT_SID", v.GetString("sms.account_sid")),
			AuthToken:  getEnvOrDefault("SMS_AUTH_TOKEN", v.GetString("sms.auth_token")),
			FromNumber: getEnvOrDefault("SMS_FROM_NUMBER", v.GetString("sms.from_number")),
			Timeout:    v.GetDuration("sms.timeout"),
		},
		Email: EmailConfig{
			BaseURL: getEnvOrDefault("EMAIL_BASE_URL", v.GetString("email.base_url")),
			APIKey:  getEnvOrDefault("EMAIL_API_KEY", v.GetString("email.api_key")),
			From:    getEnvOrDefault("EMAIL_FROM", v.GetString("email.from")),
			Timeout: v.GetDuration("email.timeout"),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", v.GetString("tracing.endpoint")),
			SampleRatio: v.GetFloat64("tracing.sample_ratio"),
		},
		Cache: CacheConfig{
			Capacity: v.GetInt("cache.capacity"),
			TTL:      v.GetDuration("cache.ttl"),
		},
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if len(c.App.AllowedOrigins) == 0 {
		c.App.AllowedOrigins = []string{"*"}
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "notifications"
	}
	if c.VoiceAgent.BaseURL == "" {
		c.VoiceAgent.BaseURL = "https://api.retellai.com"
	}
	if c.VoiceAgent.Timeout == 0 {
		c.VoiceAgent.Timeout = 15 * time.Second
	}
	if c.SMS.BaseURL == "" {
		c.SMS.BaseURL = "https://api.twilio.com"
	}
	if c.SMS.Timeout == 0 {
		c.SMS.Timeout = 10 * time.Second
	}
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = "https://api.resend.com"
	}
	if c.Email.Timeout == 0 {
		c.Email.Timeout = 10 * time.Second
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = 5000
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Minute
	}
}

// getEnvOrDefault returns env value or default
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	// ${VAR:default} placeholders left in the yaml resolve to their default
	if strings.HasPrefix(defaultVal, "${") && strings.HasSuffix(defaultVal, "}") {
		inner := defaultVal[2 : len(defaultVal)-1]
		parts := strings.SplitN(inner, ":", 2)
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	}
	return defaultVal
}

// getEnvOrDefaultInt returns env value as int or default
func getEnvOrDefaultInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil && intVal > 0 {
			return intVal
		}
	}
	if defaultVal > 0 {
		return defaultVal
	}
	return 0
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.App.Port)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.App.IsProduction() {
		if c.VoiceAgent.WebhookSecret == "" {
			return fmt.Errorf("voice agent webhook secret is required in production")
		}
		if c.App.PublicBaseURL == "" {
			return fmt.Errorf("public base url is required in production")
		}
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid tracing sample ratio: %v", c.Tracing.SampleRatio)
	}

	return nil
}

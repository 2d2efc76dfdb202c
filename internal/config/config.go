package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Intake    IntakeConfig
	Store     StoreConfig
	AdminArea AdminAreaConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Notify    NotifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// IntakeConfig governs the submission quota and retention policy.
type IntakeConfig struct {
	Limit         int
	WindowHours   int
	RetentionDays int
	// LimitAdmins applies the quota to administrators too (the old "test
	// mode", now plain configuration).
	LimitAdmins       bool
	SweepIntervalMins int
}

// StoreConfig holds the persisted document locations.
type StoreConfig struct {
	TicketsPath   string
	BlacklistPath string
}

// AdminAreaConfig identifies the control group and its members.
type AdminAreaConfig struct {
	GroupID  int64
	AdminIDs []int64
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines parameters for the admin HTTP surface.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminPasswordHash     string
	BcryptCost            int
}

// NotifyConfig holds outbound delivery settings.
type NotifyConfig struct {
	WebhookURL         string
	SendTimeoutSeconds int
	PanelTTLHours      int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	groupID, err := strconv.ParseInt(getEnv("ADMIN_GROUP_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_GROUP_ID: %w", err)
	}

	adminIDs, err := parseIDList(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "request-intake-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Intake: IntakeConfig{
			Limit:             getEnvAsInt("INTAKE_LIMIT", 2),
			WindowHours:       getEnvAsInt("INTAKE_WINDOW_HOURS", 24),
			RetentionDays:     getEnvAsInt("INTAKE_RETENTION_DAYS", 30),
			LimitAdmins:       getEnvAsBool("INTAKE_LIMIT_ADMINS", false),
			SweepIntervalMins: getEnvAsInt("INTAKE_SWEEP_INTERVAL_MINUTES", 60),
		},
		Store: StoreConfig{
			TicketsPath:   getEnv("STORE_TICKETS_PATH", "data/tickets.json"),
			BlacklistPath: getEnv("STORE_BLACKLIST_PATH", "data/blacklist.json"),
		},
		AdminArea: AdminAreaConfig{
			GroupID:  groupID,
			AdminIDs: adminIDs,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminPasswordHash:     os.Getenv("AUTH_ADMIN_PASSWORD_HASH"),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notify: NotifyConfig{
			WebhookURL:         getEnv("NOTIFY_WEBHOOK_URL", ""),
			SendTimeoutSeconds: getEnvAsInt("NOTIFY_SEND_TIMEOUT_SECONDS", 5),
			PanelTTLHours:      getEnvAsInt("NOTIFY_PANEL_TTL_HOURS", 72),
		},
	}

	if cfg.Intake.Limit <= 0 {
		return nil, fmt.Errorf("INTAKE_LIMIT must be positive, got %d", cfg.Intake.Limit)
	}
	if cfg.Intake.WindowHours <= 0 {
		return nil, fmt.Errorf("INTAKE_WINDOW_HOURS must be positive, got %d", cfg.Intake.WindowHours)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Window returns the sliding rate-limit window.
func (i IntakeConfig) Window() time.Duration {
	return time.Duration(i.WindowHours) * time.Hour
}

// Retention returns the ticket retention horizon.
func (i IntakeConfig) Retention() time.Duration {
	return time.Duration(i.RetentionDays) * 24 * time.Hour
}

// SweepInterval returns the periodic sweep cadence.
func (i IntakeConfig) SweepInterval() time.Duration {
	return time.Duration(i.SweepIntervalMins) * time.Minute
}

// SendTimeout bounds a single outbound delivery attempt.
func (n NotifyConfig) SendTimeout() time.Duration {
	if n.SendTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.SendTimeoutSeconds) * time.Second
}

// PanelTTL bounds how long admin panel message refs are tracked.
func (n NotifyConfig) PanelTTL() time.Duration {
	return time.Duration(n.PanelTTLHours) * time.Hour
}

func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Store         StoreConfig
	Database      DatabaseConfig
	Firebase      FirebaseConfig
	Plaid         PlaidConfig
	Sync          SyncConfig
	JWT           JWTConfig
	Encryption    EncryptionConfig
	Scheduler     SchedulerConfig
	TLS           TLSConfig
	Telemetry     TelemetryConfig
	Notifications NotificationsConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
}

type LogConfig struct {
	Level  string
	Format string
}

type StoreConfig struct {
	Backend      string
	MaxBatchSize int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

type PlaidConfig struct {
	ClientID     string
	Secret       string
	Env          string
	ClientName   string
	Products     []string
	CountryCodes []string
	Language     string
	WebhookURL   string
	Timeout      time.Duration
}

type SyncConfig struct {
	BatchSize             int
	PageSize              int
	LeaseTTL              time.Duration
	LeaseWait             time.Duration
	LeasePoll             time.Duration
	MaxPaginationRestarts int
	RetryAttempts         int
	RetryInitialInterval  time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type EncryptionConfig struct {
	Key string
}

type SchedulerConfig struct {
	Enabled       bool
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
	JobTimeout    time.Duration
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

type NotificationsConfig struct {
	PushEnabled  bool
	MessagesFile string
}

func Load() (*Config, error) {
	var err error
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: getListEnv("ALLOWED_HOSTS", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendFirestore)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "budgetmint"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "budgetmint"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Plaid: PlaidConfig{
			ClientID:     getEnv("PLAID_CLIENT_ID", ""),
			Secret:       getEnv("PLAID_SECRET", ""),
			Env:          strings.ToLower(getEnv("PLAID_ENV", "sandbox")),
			ClientName:   getEnv("PLAID_CLIENT_NAME", "BudgetMint"),
			Products:     getListEnv("PLAID_PRODUCTS", "transactions"),
			CountryCodes: getListEnv("PLAID_COUNTRY_CODES", "US"),
			Language:     getEnv("PLAID_LANGUAGE", "en"),
			WebhookURL:   getEnv("PLAID_WEBHOOK_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", ""),
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getBoolEnv("SCHEDULER_ENABLED", true),
			ScheduleTimes: getListEnv("SCHEDULER_TIMES", "05:00,10:00,14:00,20:00"),
			RunOnStartup:  getBoolEnv("SCHEDULER_RUN_ON_STARTUP", false),
		},
		TLS: TLSConfig{
			Enabled:      getBoolEnv("TLS_ENABLED", false),
			CertPath:     getEnv("TLS_CERT_PATH", ""),
			KeyPath:      getEnv("TLS_KEY_PATH", ""),
			RedirectHTTP: getBoolEnv("TLS_REDIRECT_HTTP", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "budgetmint-api"),
			Environment:  getEnv("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9090"),
		},
		Notifications: NotificationsConfig{
			PushEnabled:  getBoolEnv("PUSH_NOTIFICATIONS_ENABLED", true),
			MessagesFile: getEnv("NOTIFICATION_MESSAGES_FILE", ""),
		},
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"DB_PORT", 5432, &cfg.Database.Port},
		{"STORE_MAX_BATCH_SIZE", 500, &cfg.Store.MaxBatchSize},
		{"SYNC_BATCH_SIZE", 0, &cfg.Sync.BatchSize},
		{"SYNC_PAGE_SIZE", 100, &cfg.Sync.PageSize},
		{"SYNC_MAX_PAGINATION_RESTARTS", 3, &cfg.Sync.MaxPaginationRestarts},
		{"SYNC_RETRY_ATTEMPTS", 3, &cfg.Sync.RetryAttempts},
		{"SCHEDULER_WORKERS", 5, &cfg.Scheduler.WorkerCount},
		{"SCHEDULER_QUEUE_SIZE", 100, &cfg.Scheduler.QueueSize},
	}
	for _, v := range ints {
		if *v.dest, err = getIntEnv(v.key, v.def); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"PLAID_TIMEOUT", 60 * time.Second, &cfg.Plaid.Timeout},
		{"SYNC_LEASE_TTL", 2 * time.Minute, &cfg.Sync.LeaseTTL},
		{"SYNC_LEASE_WAIT", 30 * time.Second, &cfg.Sync.LeaseWait},
		{"SYNC_LEASE_POLL", 500 * time.Millisecond, &cfg.Sync.LeasePoll},
		{"SYNC_RETRY_INITIAL_INTERVAL", 2 * time.Second, &cfg.Sync.RetryInitialInterval},
		{"SCHEDULER_JOB_DELAY", time.Second, &cfg.Scheduler.JobDelay},
		{"SCHEDULER_JOB_TIMEOUT", 5 * time.Minute, &cfg.Scheduler.JobTimeout},
	}
	for _, v := range durations {
		if *v.dest, err = getDurationEnv(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Encryption.Key == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if len(c.Encryption.Key) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes")
	}

	switch c.Store.Backend {
	case BackendFirestore, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of %s, %s, %s; got %q",
			BackendFirestore, BackendPostgres, BackendMemory, c.Store.Backend)
	}
	if c.Store.MaxBatchSize <= 0 {
		return fmt.Errorf("STORE_MAX_BATCH_SIZE must be positive")
	}

	switch c.Plaid.Env {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be sandbox, development or production; got %q", c.Plaid.Env)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text; got %q", c.Log.Format)
	}

	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}
	return nil
}

// RequirePlaid checks the credentials needed by anything that calls the feed.
func (c *PlaidConfig) RequirePlaid() error {
	if c.ClientID == "" || c.Secret == "" {
		return fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getListEnv splits a comma-separated value, dropping blanks.
func getListEnv(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

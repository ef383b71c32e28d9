package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	LogLevel     string `yaml:"log_level"`

	// Upload limit in bytes
	MaxFileSize int64 `yaml:"max_file_size"`

	S3          S3Config          `yaml:"s3"`
	AI          AIConfig          `yaml:"ai"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge"`
	Inbox       InboxConfig       `yaml:"inbox"`
	Connections ConnectionsConfig `yaml:"connections"`
}

// S3Config configures the raw file archive. The archive is skipped when
// Enabled is false.
type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	BucketName      string `yaml:"bucket_name"`
	UseSSL          bool   `yaml:"use_ssl"`
}

type AIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// Enabled reports whether a model is configured. Without one every AI
// call takes its fallback path.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

type KnowledgeConfig struct {
	TopK          int `yaml:"top_k"`
	ChunkLimit    int `yaml:"chunk_limit"`
	DocumentLimit int `yaml:"document_limit"`
}

type InboxConfig struct {
	Dir      string        `yaml:"dir"`
	Debounce time.Duration `yaml:"debounce"`
}

type ConnectionsConfig struct {
	TestLatency time.Duration `yaml:"test_latency"`
	SyncLatency time.Duration `yaml:"sync_latency"`
}

func Default() *Config {
	return &Config{
		Port:         "8080",
		DatabasePath: "./data/knowledge-lens.db",
		LogLevel:     "info",
		MaxFileSize:  10 * 1024 * 1024,
		S3: S3Config{
			Endpoint:        "localhost:9000",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			BucketName:      "documents",
		},
		AI: AIConfig{
			BaseURL:           "https://openrouter.ai/api/v1",
			Model:             "openai/gpt-4o-mini",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Knowledge: KnowledgeConfig{
			TopK:          3,
			ChunkLimit:    1000,
			DocumentLimit: 6000,
		},
		Inbox: InboxConfig{
			Debounce: 500 * time.Millisecond,
		},
		Connections: ConnectionsConfig{
			TestLatency: 2 * time.Second,
			SyncLatency: 3 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", cfg.MaxFileSize)

	cfg.S3.Enabled = getEnvBool("S3_ENABLED", cfg.S3.Enabled)
	cfg.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.AccessKeyID = getEnv("S3_ACCESS_KEY_ID", cfg.S3.AccessKeyID)
	cfg.S3.SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", cfg.S3.SecretAccessKey)
	cfg.S3.BucketName = getEnv("S3_BUCKET_NAME", cfg.S3.BucketName)
	cfg.S3.UseSSL = getEnvBool("S3_USE_SSL", cfg.S3.UseSSL)

	cfg.AI.BaseURL = getEnv("OPENROUTER_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.APIKey = getEnv("OPENROUTER_API_KEY", cfg.AI.APIKey)
	cfg.AI.Model = getEnv("OPENROUTER_MODEL", cfg.AI.Model)
	cfg.AI.Timeout = getEnvDuration("AI_TIMEOUT", cfg.AI.Timeout)

	cfg.Inbox.Dir = getEnv("INBOX_DIR", cfg.Inbox.Dir)
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.By(isPort)),
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.S3),
		validation.Field(&c.AI),
		validation.Field(&c.Knowledge),
	)
}

func (c S3Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.BucketName, validation.When(c.Enabled, validation.Required)),
	)
}

func (c AIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.When(c.APIKey != "", validation.Required)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RequestsPerSecond, validation.Required, validation.Min(0.01)),
		validation.Field(&c.Burst, validation.Required, validation.Min(1)),
	)
}

func (c KnowledgeConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TopK, validation.Required, validation.Min(1)),
		validation.Field(&c.ChunkLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.DocumentLimit, validation.Required, validation.Min(1)),
	)
}

func isPort(value interface{}) error {
	s, _ := value.(string)
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return errors.New("must be a port number between 1 and 65535")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

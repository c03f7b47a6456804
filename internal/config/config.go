package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Paths     PathsConfig     `yaml:"paths"`
	Report    ReportConfig    `yaml:"report"`
	Narrative NarrativeConfig `yaml:"narrative"`
	AWS       AWSConfig       `yaml:"aws"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Source    SourceConfig    `yaml:"source"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                int    `yaml:"port"`
	Host                string `yaml:"host"`
	MaxUploadMB         int    `yaml:"max_upload_mb"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout covers a full pipeline run including one AI round trip.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// PathsConfig holds local input/output locations
type PathsConfig struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
}

// ReportConfig holds report presentation settings
type ReportConfig struct {
	CompanyName string   `yaml:"company_name"`
	Author      string   `yaml:"author"`
	Formats     []string `yaml:"formats"` // markdown, json, xlsx
	Charts      bool     `yaml:"charts"`
}

// NarrativeConfig holds AI narrative provider settings.
// Provider is one of "gemini", "bedrock" or "anthropic".
type NarrativeConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Provider       string  `yaml:"provider"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Endpoint       string  `yaml:"endpoint"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"` // transport-level; 0 means a single attempt
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
}

// Timeout bounds a single generation call
func (c NarrativeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AWSConfig holds credentials shared by Bedrock, S3 and DynamoDB clients.
type AWSConfig struct {
	Region    string `yaml:"region"`
	Profile   string `yaml:"profile"` // Empty string uses default credential chain (IAM role on ECS)
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// GetProfile returns the AWS profile, with environment variable override
func (c AWSConfig) GetProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.Profile
}

// StorageConfig holds artifact storage configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // local or s3
	LocalPath     string `yaml:"local_path"`
	S3Bucket      string `yaml:"s3_bucket"`
	S3Prefix      string `yaml:"s3_prefix"`
	DynamoDBTable string `yaml:"dynamodb_table"` // summary index; disabled when empty
}

// DatabaseConfig holds the Postgres run-history connection
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig holds the Redis connection used for run locks
type RedisConfig struct {
	URL            string `yaml:"url"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// SourceConfig describes a SQL source for campaign rows.
// Driver is "postgres" or "snowflake".
type SourceConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Query  string `yaml:"query"`
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 120
	}
	if cfg.Paths.InputDir == "" {
		cfg.Paths.InputDir = "data/input"
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = "data/output"
	}
	if cfg.Report.CompanyName == "" {
		cfg.Report.CompanyName = "Marketing Analytics"
	}
	if cfg.Report.Author == "" {
		cfg.Report.Author = "Insight Engine"
	}
	if len(cfg.Report.Formats) == 0 {
		cfg.Report.Formats = []string{"markdown"}
	}
	if cfg.Narrative.Provider == "" {
		cfg.Narrative.Provider = "gemini"
	}
	if cfg.Narrative.TimeoutSeconds == 0 {
		cfg.Narrative.TimeoutSeconds = 60
	}
	if cfg.Narrative.MaxTokens == 0 {
		cfg.Narrative.MaxTokens = 4096
	}
	if cfg.Narrative.Temperature == 0 {
		cfg.Narrative.Temperature = 0.4
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "reports"
	}
	if cfg.Storage.S3Prefix == "" {
		cfg.Storage.S3Prefix = "reports"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
// A missing config file is not an error: defaults plus env are used.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	// USE_GEMINI is the older name of the flag
	if v := os.Getenv("USE_GEMINI"); v != "" {
		cfg.Narrative.Enabled = parseBool(v)
	}
	if v := os.Getenv("USE_AI"); v != "" {
		cfg.Narrative.Enabled = parseBool(v)
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		cfg.Narrative.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		cfg.Narrative.Model = v
	}
	if v := os.Getenv("AI_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Narrative.TimeoutSeconds = n
		}
	}
	if cfg.Narrative.APIKey == "" {
		switch cfg.Narrative.Provider {
		case "gemini":
			cfg.Narrative.APIKey = os.Getenv("GEMINI_API_KEY")
		case "anthropic":
			cfg.Narrative.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.AWS.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.AWS.SecretKey = v
	}

	if v := os.Getenv("COMPANY_NAME"); v != "" {
		cfg.Report.CompanyName = v
	}
	if v := os.Getenv("REPORT_AUTHOR"); v != "" {
		cfg.Report.Author = v
	}

	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		cfg.Storage.DynamoDBTable = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	if v := os.Getenv("SOURCE_DRIVER"); v != "" {
		cfg.Source.Driver = v
	}
	if v := os.Getenv("SOURCE_DSN"); v != "" {
		cfg.Source.DSN = v
	}
	if v := os.Getenv("SOURCE_QUERY"); v != "" {
		cfg.Source.Query = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

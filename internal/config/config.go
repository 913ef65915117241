package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration tree.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Storage        StorageConfig        `mapstructure:"storage"`
	OCR            OCRConfig            `mapstructure:"ocr"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Extraction     ExtractionConfig     `mapstructure:"extraction"`
	Pipeline       PipelineConfig       `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // s3, minio
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type OCRConfig struct {
	PrimaryEngine   string         `mapstructure:"primary_engine"`
	FallbackEngine  string         `mapstructure:"fallback_engine"`
	EnsembleEnabled bool           `mapstructure:"ensemble_enabled"`
	Timeout         time.Duration  `mapstructure:"timeout"`
	Textract        TextractConfig `mapstructure:"textract"`
	Azure           AzureOCRConfig `mapstructure:"azure"`
}

type TextractConfig struct {
	Region        string        `mapstructure:"region"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	StagingBucket string        `mapstructure:"staging_bucket"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxPolls      int           `mapstructure:"max_polls"`
}

type AzureOCRConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxPolls     int           `mapstructure:"max_polls"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, anthropic
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

type ClassificationConfig struct {
	PatternConfidenceThreshold float64 `mapstructure:"pattern_confidence_threshold"`
	LLMFallbackEnabled         bool    `mapstructure:"llm_fallback_enabled"`
}

type ExtractionConfig struct {
	MaxRetries               int           `mapstructure:"max_retries"`
	RetryBaseDelay           time.Duration `mapstructure:"retry_base_delay"`
	FieldConfidenceThreshold float64       `mapstructure:"field_confidence_threshold"`
	ReviewThreshold          float64       `mapstructure:"review_threshold"`
	CriticalFields           []string      `mapstructure:"critical_fields"`
}

type PipelineConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	JobMaxRetries  int           `mapstructure:"job_max_retries"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	StartRateLimit float64       `mapstructure:"start_rate_limit"` // job starts per second
	QueueName      string        `mapstructure:"queue_name"`
}

// Load reads configuration from a yaml file with environment overrides.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/docintel.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("storage.provider", "s3")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "documents")
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("ocr.primary_engine", "textract")
	v.SetDefault("ocr.fallback_engine", "azure")
	v.SetDefault("ocr.ensemble_enabled", false)
	v.SetDefault("ocr.timeout", 120*time.Second)
	v.SetDefault("ocr.textract.region", "us-east-1")
	v.SetDefault("ocr.textract.poll_interval", 2*time.Second)
	v.SetDefault("ocr.textract.max_polls", 60)
	v.SetDefault("ocr.azure.poll_interval", 2*time.Second)
	v.SetDefault("ocr.azure.max_polls", 60)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.1)

	v.SetDefault("classification.pattern_confidence_threshold", 0.75)
	v.SetDefault("classification.llm_fallback_enabled", true)

	v.SetDefault("extraction.max_retries", 2)
	v.SetDefault("extraction.retry_base_delay", time.Second)
	v.SetDefault("extraction.field_confidence_threshold", 0.6)
	v.SetDefault("extraction.review_threshold", 0.7)
	v.SetDefault("extraction.critical_fields", []string{"patient.name", "patient.dateOfBirth"})

	v.SetDefault("pipeline.concurrency", 5)
	v.SetDefault("pipeline.job_max_retries", 3)
	v.SetDefault("pipeline.job_timeout", 5*time.Minute)
	v.SetDefault("pipeline.start_rate_limit", 10.0)
	v.SetDefault("pipeline.queue_name", "documents")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("ocr.textract.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("ocr.textract.secret_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("ocr.textract.region", "AWS_REGION")
	v.BindEnv("ocr.textract.staging_bucket", "TEXTRACT_STAGING_BUCKET")
	v.BindEnv("ocr.azure.endpoint", "AZURE_DI_ENDPOINT")
	v.BindEnv("ocr.azure.api_key", "AZURE_DI_API_KEY")
	v.BindEnv("llm.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.base_url", "OPENAI_BASE_URL")
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("llm.provider", "LLM_PROVIDER")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

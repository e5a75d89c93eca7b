package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		Host         string        `yaml:"host"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
		BodyLimit    string        `yaml:"body_limit"`
	} `yaml:"server"`

	Auth struct {
		// JWTSecret verifies HS256 bearer tokens; empty disables verification
		JWTSecret string `yaml:"jwt_secret"`
		// Required rejects requests without a valid token
		Required bool `yaml:"required"`
	} `yaml:"auth"`

	Imports struct {
		// Store selects the task registry backend: memory or redis
		Store        string        `yaml:"store"`
		PollInterval time.Duration `yaml:"poll_interval"`
		MaxAttempts  int           `yaml:"max_attempts"`
		MaxWatchers  int           `yaml:"max_watchers"`
		TaskTTL      time.Duration `yaml:"task_ttl"`
		// Extraction selects the extraction backend: http or local
		Extraction    string `yaml:"extraction"`
		ExtractionURL string `yaml:"extraction_url"`
		// ExtractionToken authenticates the service itself when an upload
		// carries no user credential
		ExtractionToken string        `yaml:"extraction_token"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		RateLimit       int           `yaml:"rate_limit"` // requests per minute
		MaxFileSize     int64         `yaml:"max_file_size"`
	} `yaml:"imports"`

	Extraction struct {
		PoolSize  int           `yaml:"pool_size"`
		QueueSize int           `yaml:"queue_size"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"extraction"`

	ProfileStore struct {
		BaseURL  string        `yaml:"base_url"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"profile_store"`

	LLM struct {
		Provider    string        `yaml:"provider"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature float32       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Scoring struct {
		RecencyYears int `yaml:"recency_years"`
	} `yaml:"scoring"`

	Documents struct {
		LengthTiers map[string]int `yaml:"length_tiers"`
	} `yaml:"documents"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`

	DigitalOcean struct {
		Spaces struct {
			BucketURL       string `yaml:"bucket_url"`
			CDNEndpoint     string `yaml:"cdn_endpoint"`
			AccessKeyID     string `yaml:"access_key_id"`
			AccessKeySecret string `yaml:"access_key_secret"`
			Region          string `yaml:"region"`
			BucketName      string `yaml:"bucket_name"`
		} `yaml:"spaces"`
	} `yaml:"digitalocean"`
}

var (
	bracedVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVarPattern   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR references. Unset variables are left as written.
func expandEnvVars(s string) string {
	lookup := func(name, match string) string {
		if val := os.Getenv(name); val != "" {
			return val
		}
		return match
	}

	s = bracedVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return lookup(match[2:len(match)-1], match)
	})
	return bareVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return lookup(match[1:], match)
	})
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.BodyLimit = "12M"

	config.Imports.Store = "memory"
	config.Imports.PollInterval = 2 * time.Second
	config.Imports.MaxAttempts = 30
	config.Imports.MaxWatchers = 50
	config.Imports.TaskTTL = 24 * time.Hour
	config.Imports.CleanupInterval = time.Hour
	config.Imports.Extraction = "local"
	config.Imports.RequestTimeout = 30 * time.Second
	config.Imports.RateLimit = 120
	config.Imports.MaxFileSize = 10 << 20

	config.Extraction.PoolSize = 4
	config.Extraction.QueueSize = 100
	config.Extraction.Timeout = 3 * time.Minute

	config.ProfileStore.Timeout = 15 * time.Second
	config.ProfileStore.CacheTTL = 24 * time.Hour

	config.LLM.Provider = "claude"
	config.LLM.MaxTokens = 8192
	config.LLM.Temperature = 0.1
	config.LLM.Timeout = 120 * time.Second

	config.Scoring.RecencyYears = 5

	config.Documents.LengthTiers = map[string]int{
		"short":    2,
		"medium":   3,
		"long":     4,
		"extended": 5,
	}

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second

	config.DigitalOcean.Spaces.Region = "blr1"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), config); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	setInt(&c.Server.Port, "PORT")
	setString(&c.Server.Host, "HOST")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setBool(&c.Auth.Required, "AUTH_REQUIRED")

	setString(&c.Imports.Store, "IMPORT_STORE")
	setDuration(&c.Imports.PollInterval, "IMPORT_POLL_INTERVAL")
	setInt(&c.Imports.MaxAttempts, "IMPORT_MAX_ATTEMPTS")
	setInt(&c.Imports.MaxWatchers, "IMPORT_MAX_WATCHERS")
	setString(&c.Imports.Extraction, "IMPORT_EXTRACTION")
	setString(&c.Imports.ExtractionURL, "EXTRACTION_SERVICE_URL")
	setString(&c.Imports.ExtractionToken, "EXTRACTION_SERVICE_TOKEN")
	setInt(&c.Imports.RateLimit, "EXTRACTION_RATE_LIMIT")

	setInt(&c.Extraction.PoolSize, "EXTRACTION_POOL_SIZE")
	setInt(&c.Extraction.QueueSize, "EXTRACTION_QUEUE_SIZE")

	setString(&c.ProfileStore.BaseURL, "PROFILE_STORE_URL")
	setDuration(&c.ProfileStore.Timeout, "PROFILE_STORE_TIMEOUT")

	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")

	setInt(&c.Scoring.RecencyYears, "SCORING_RECENCY_YEARS")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setDuration(&c.Redis.Timeout, "REDIS_TIMEOUT")

	setString(&c.DigitalOcean.Spaces.BucketURL, "BUCKET_URL")
	setString(&c.DigitalOcean.Spaces.CDNEndpoint, "BUCKET_CDN_ENDPOINT")
	setString(&c.DigitalOcean.Spaces.AccessKeyID, "BUCKET_ACCESS_KEY_ID")
	setString(&c.DigitalOcean.Spaces.AccessKeySecret, "BUCKET_ACCESS_KEY_SECRET")
	setString(&c.DigitalOcean.Spaces.Region, "BUCKET_REGION")
	setString(&c.DigitalOcean.Spaces.BucketName, "BUCKET_NAME")

	// File adapter path override
	if path := os.Getenv("LOG_FILE_PATH"); path != "" {
		for i := range c.Logging.Adapters {
			if c.Logging.Adapters[i].Type != "file" {
				continue
			}
			if c.Logging.Adapters[i].Options == nil {
				c.Logging.Adapters[i].Options = make(map[string]interface{})
			}
			c.Logging.Adapters[i].Options["file_path"] = path
		}
	}
}

// SpacesEnabled reports whether object storage credentials are configured
func (c *Config) SpacesEnabled() bool {
	s := c.DigitalOcean.Spaces
	return s.AccessKeyID != "" && s.AccessKeySecret != "" && s.BucketName != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Environment string `env:"ENV,default=development"`
	Port        string `env:"PORT,default=8080"`
	Host        string `env:"HOST,default=http://localhost:8080"` // e.g. https://api.example.com
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	FrontendURL    string `env:"FRONTEND_URL,default=http://localhost:3000"`
	OriginsRaw     string `env:"ALLOWED_ORIGINS"` // comma separated
	AllowedOrigins []string
	AllowedHost    string // hostname only, production host check

	StoreDriver       string        `env:"STORE_DRIVER,default=mongo"`
	MongoURI          string        `env:"MONGODB_URI,default=mongodb://localhost:27017/journal"`
	MongoDatabase     string        `env:"MONGODB_DATABASE"`
	MongoTransactions bool          `env:"MONGODB_TRANSACTIONS,default=false"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=5s"`

	// Optional collaborators; empty disables them
	RedisURI            string `env:"REDIS_URI"`
	PostgresURI         string `env:"POSTGRES_URI"`
	CloudinaryName      string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	// ScopeEntriesToOwner makes GET /api/journal/{userName} return only that user's entries.
	ScopeEntriesToOwner bool `env:"JOURNAL_SCOPE_LIST_TO_OWNER,default=false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if cfg.StoreDriver != StoreDriverMemory {
		cfg.StoreDriver = StoreDriverMongo
	}

	cfg.AllowedOrigins = parseOrigins(cfg.OriginsRaw)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = parseOrigins(cfg.FrontendURL)
	}
	if cfg.IsProduction() {
		cfg.AllowedHost = hostname(cfg.Host)
	}
	return cfg, nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryEnabled reports whether attachment uploads can be configured.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func parseOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !containsOrigin(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.ToLower(o)
	for _, v := range list {
		if strings.ToLower(v) == o {
			return true
		}
	}
	return false
}

// hostname strips scheme, path and port from a HOST value.
func hostname(host string) string {
	h := strings.TrimSpace(host)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

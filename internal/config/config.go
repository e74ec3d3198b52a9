package config

import (
	"crypto/subtle"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by LoadFromDir.
const FileName = "pageforge.yaml"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
	DriverMemory   = "memory"
)

// Config represents the pageforge configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	API     *APIConfig    `yaml:"api,omitempty"`
	Render  RenderConfig  `yaml:"render"`
	Editor  EditorConfig  `yaml:"editor"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int    `yaml:"port"`
	Host            string `yaml:"host"`
	Debug           bool   `yaml:"debug"`
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"` // e.g. "10s". Default: 10s
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetShutdownTimeout returns the graceful shutdown timeout (default: 10s)
func (c ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}

// StorageConfig selects and configures the page store
type StorageConfig struct {
	Driver string       `yaml:"driver"`          // "sqlite", "postgres", "file" or "memory"
	Path   string       `yaml:"path,omitempty"`  // For sqlite: database file (default: ./pageforge.db)
	DSN    string       `yaml:"dsn,omitempty"`   // For postgres: connection string (env vars expanded)
	Dir    string       `yaml:"dir,omitempty"`   // For file: directory holding one JSON file per page
	Watch  bool         `yaml:"watch,omitempty"` // For file: invalidate caches on external edits
	Retry  *RetryConfig `yaml:"retry,omitempty"` // Retry configuration for transient failures
	// Circuit stops calling a failing sqlite or postgres backend for a while.
	Circuit *CircuitConfig `yaml:"circuit,omitempty"`
}

// CircuitConfig configures the store circuit breaker
type CircuitConfig struct {
	FailureThreshold int    `yaml:"failure_threshold,omitempty"` // Transient failures within a minute that open the circuit (default: 5, negative disables)
	Timeout          string `yaml:"timeout,omitempty"`           // Time the circuit stays open (e.g. "30s"). Default: 30s
}

// RetryConfig configures retry behavior for store operations
type RetryConfig struct {
	MaxRetries int    `yaml:"max_retries,omitempty"` // Maximum retry attempts (default: 3)
	BaseDelay  string `yaml:"base_delay,omitempty"`  // Initial delay (e.g., "100ms"). Default: 100ms
	MaxDelay   string `yaml:"max_delay,omitempty"`   // Maximum delay (e.g., "5s"). Default: 5s
}

// GetPath returns the sqlite database path (default: pageforge.db)
func (c StorageConfig) GetPath() string {
	if c.Path == "" {
		return "pageforge.db"
	}
	return c.Path
}

// GetDSN returns the postgres DSN with environment variable expansion
func (c StorageConfig) GetDSN() string {
	return os.ExpandEnv(c.DSN)
}

// GetDir returns the file store directory (default: pages)
func (c StorageConfig) GetDir() string {
	if c.Dir == "" {
		return "pages"
	}
	return c.Dir
}

// GetRetryMaxRetries returns the max retries (default: 3, set to 0 to disable retries)
func (c StorageConfig) GetRetryMaxRetries() int {
	if c.Retry == nil || c.Retry.MaxRetries < 0 {
		return 3
	}
	return c.Retry.MaxRetries
}

// GetRetryBaseDelay returns the base delay (default: 100ms)
func (c StorageConfig) GetRetryBaseDelay() time.Duration {
	if c.Retry == nil {
		return 100 * time.Millisecond
	}
	return parseDuration(c.Retry.BaseDelay, 100*time.Millisecond)
}

// GetRetryMaxDelay returns the max delay (default: 5s)
func (c StorageConfig) GetRetryMaxDelay() time.Duration {
	if c.Retry == nil {
		return 5 * time.Second
	}
	return parseDuration(c.Retry.MaxDelay, 5*time.Second)
}

// GetCircuitFailureThreshold returns the failures that open the circuit
// (default: 5). Zero means the breaker is disabled.
func (c StorageConfig) GetCircuitFailureThreshold() int {
	if c.Circuit == nil || c.Circuit.FailureThreshold == 0 {
		return 5
	}
	if c.Circuit.FailureThreshold < 0 {
		return 0
	}
	return c.Circuit.FailureThreshold
}

// GetCircuitTimeout returns how long the circuit stays open (default: 30s)
func (c StorageConfig) GetCircuitTimeout() time.Duration {
	if c.Circuit == nil {
		return 30 * time.Second
	}
	return parseDuration(c.Circuit.Timeout, 30*time.Second)
}

// APIConfig holds REST API configuration
type APIConfig struct {
	CORS      *CORSConfig      `yaml:"cors,omitempty"`
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
	Auth      *AuthConfig      `yaml:"auth,omitempty"`
}

// AuthConfig maps API keys to the users they authenticate
type AuthConfig struct {
	// Keys maps a user id to that user's API key.
	// Keys support environment variable expansion (e.g., "${ALICE_KEY}").
	Keys map[string]string `yaml:"keys,omitempty"`
	// HeaderName is the HTTP header carrying the key (default: "X-API-Key").
	// "Authorization: Bearer <token>" is always accepted as well.
	HeaderName string `yaml:"header_name,omitempty"`
}

// CORSConfig holds CORS configuration for the API
type CORSConfig struct {
	Origins []string `yaml:"origins,omitempty"` // Allowed origins (e.g., ["http://localhost:3000", "*"])
}

// RateLimitConfig holds rate limiting configuration for the API
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // Rate limit in requests per second (default: 10)
	Burst             int     `yaml:"burst,omitempty"`               // Burst size (default: 20)
	MaxTrackedIPs     int     `yaml:"max_tracked_ips,omitempty"`     // Per-IP limiters kept before LRU eviction (default: 10000)
}

// GetCORSOrigins returns the configured CORS origins, or nil if not configured
func (c *APIConfig) GetCORSOrigins() []string {
	if c == nil || c.CORS == nil {
		return nil
	}
	return c.CORS.Origins
}

// GetRateLimitRPS returns the rate limit in requests per second (default: 10)
func (c *APIConfig) GetRateLimitRPS() float64 {
	if c == nil || c.RateLimit == nil || c.RateLimit.RequestsPerSecond <= 0 {
		return 10
	}
	return c.RateLimit.RequestsPerSecond
}

// GetMaxTrackedIPs returns the number of client IPs tracked by the rate
// limiter (default: 10000)
func (c *APIConfig) GetMaxTrackedIPs() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.MaxTrackedIPs <= 0 {
		return 10000
	}
	return c.RateLimit.MaxTrackedIPs
}

// GetRateLimitBurst returns the burst size (default: 20)
func (c *APIConfig) GetRateLimitBurst() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.Burst <= 0 {
		return 20
	}
	return c.RateLimit.Burst
}

// IsAuthEnabled returns true if at least one API key is configured
func (c *APIConfig) IsAuthEnabled() bool {
	if c == nil || c.Auth == nil {
		return false
	}
	for _, key := range c.Auth.Keys {
		if os.ExpandEnv(key) != "" {
			return true
		}
	}
	return false
}

// UserForKey returns the user id owning key. Comparison is constant time
// per configured key.
func (c *AuthConfig) UserForKey(key string) (string, bool) {
	if c == nil || key == "" {
		return "", false
	}
	users := make([]string, 0, len(c.Keys))
	for user := range c.Keys {
		users = append(users, user)
	}
	sort.Strings(users)

	match := ""
	for _, user := range users {
		want := os.ExpandEnv(c.Keys[user])
		if want == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(want)) == 1 && match == "" {
			match = user
		}
	}
	return match, match != ""
}

// GetHeaderName returns the header name for authentication (default: "X-API-Key")
func (c *AuthConfig) GetHeaderName() string {
	if c == nil || c.HeaderName == "" {
		return "X-API-Key"
	}
	return c.HeaderName
}

// RenderConfig holds renderer and publication cache settings
type RenderConfig struct {
	CacheTTL       string `yaml:"cache_ttl,omitempty"`       // Published page cache TTL (e.g., "5m"). Empty disables caching
	UtilityClasses bool   `yaml:"utility_classes,omitempty"` // Render tw-* style keys as class tokens
}

// GetCacheTTL returns the publication cache TTL (0 if caching is disabled)
func (c RenderConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 0)
}

// EditorConfig holds editing session settings
type EditorConfig struct {
	HistoryLimit int `yaml:"history_limit,omitempty"` // Undo steps kept per session (default: 100)
}

// GetHistoryLimit returns the undo limit (default: 100)
func (c EditorConfig) GetHistoryLimit() int {
	if c.HistoryLimit <= 0 {
		return 100
	}
	return c.HistoryLimit
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // "debug", "info", "warn", "error". Default: info
	Path   string `yaml:"path,omitempty"`   // Log file; stderr when empty
	Pretty bool   `yaml:"pretty,omitempty"` // Console output instead of JSON
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "pageforge.db",
		},
		Render: RenderConfig{
			CacheTTL: "5m",
		},
		Editor: EditorConfig{
			HistoryLimit: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverFile, DriverMemory:
	case DriverPostgres:
		if c.Storage.GetDSN() == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, file, memory", c.Storage.Driver)
	}
	if c.Render.CacheTTL != "" {
		if _, err := time.ParseDuration(c.Render.CacheTTL); err != nil {
			return fmt.Errorf("render.cache_ttl: %w", err)
		}
	}
	switch c.Log.Level {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("log.level %q is not a known level", c.Log.Level)
	}
	if c.API != nil && c.API.RateLimit != nil && c.API.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("api.rate_limit.requests_per_second cannot be negative")
	}
	return nil
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromDir looks for pageforge.yaml, then .pageforge.yaml, in the given
// directory. If neither is found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return Load(filepath.Join(dir, "."+FileName))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable of the application.
const EnvPrefix = "SITERAG"

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// Commands with distinct configuration requirements.
const (
	CommandScrape = "scrape"
	CommandIngest = "ingest"
	CommandStatus = "status"
	CommandChat   = "chat"
	CommandServe  = "serve"
)

// AuthSettings configuration for authentication of the SSE server
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CrawlSettings bound the local scrape.
type CrawlSettings struct {
	BaseURL           string        `mapstructure:"base_url"`
	MaxPages          int           `mapstructure:"max_pages"`
	MaxDepth          int           `mapstructure:"max_depth"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// GroundXSettings configure the managed RAG platform client.
type GroundXSettings struct {
	APIKey   string        `mapstructure:"api_key"`
	BucketID int           `mapstructure:"bucket_id"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// IngestSettings describe the website crawl submitted to the platform and
// how its status is polled.
type IngestSettings struct {
	SourceURL    string        `mapstructure:"source_url"`
	Cap          int           `mapstructure:"cap"`
	Depth        int           `mapstructure:"depth"`
	SourceName   string        `mapstructure:"source_name"`
	Description  string        `mapstructure:"description"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// LLMSettings configure the optional answer synthesis. An empty API key
// disables it.
type LLMSettings struct {
	APIKey      string        `mapstructure:"api_key"`
	APIBase     string        `mapstructure:"api_base"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

// QuerySettings hold the answer policy of the chat loop.
type QuerySettings struct {
	MinScore      float64 `mapstructure:"min_score"`
	DisplayLimit  int     `mapstructure:"display_limit"`
	FallbackLimit int     `mapstructure:"fallback_limit"`
	Name          string  `mapstructure:"name"`
}

// ContentSettings configure the MCP tools over the scraped content.
type ContentSettings struct {
	MaxResults  int           `mapstructure:"max_results"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// Settings application settings
type Settings struct {
	OutputDir string `mapstructure:"output_dir"`
	LogLevel  string `mapstructure:"log_level"`
	// MetricsFile receives the counters of a run in the Prometheus text
	// format when set.
	MetricsFile string          `mapstructure:"metrics_file"`
	Transport   string          `mapstructure:"transport"`
	Host        string          `mapstructure:"host"`
	Port        int             `mapstructure:"port"`
	Auth        AuthSettings    `mapstructure:"auth"`
	Crawl       CrawlSettings   `mapstructure:"crawl"`
	GroundX     GroundXSettings `mapstructure:"groundx"`
	Ingest      IngestSettings  `mapstructure:"ingest"`
	LLM         LLMSettings     `mapstructure:"llm"`
	Query       QuerySettings   `mapstructure:"query"`
	Content     ContentSettings `mapstructure:"content"`
}

// LLMEnabled reports whether answers are synthesized by an LLM.
func (s *Settings) LLMEnabled() bool {
	return s.LLM.APIKey != ""
}

// defaults maps every settings key to its default value.
var defaults = map[string]any{
	"output_dir":   "scraped_data",
	"log_level":    "info",
	"metrics_file": "",
	"transport":    "stdio",
	"host":         "0.0.0.0",
	"port":         8080,
	"auth.type":    AuthTypeNone,

	"crawl.base_url":            "https://www.itnb.ch/en",
	"crawl.max_pages":           20,
	"crawl.max_depth":           2,
	"crawl.requests_per_second": 0.0,
	"crawl.fetch_timeout":       10 * time.Second,
	"crawl.user_agent":          "",

	"groundx.api_key":   "",
	"groundx.bucket_id": 0,
	"groundx.base_url":  "https://api.groundx.ai/api",
	"groundx.timeout":   30 * time.Second,

	"ingest.source_url":    "https://www.itnb.ch/en",
	"ingest.cap":           500,
	"ingest.depth":         5,
	"ingest.source_name":   "ITNB Official Website",
	"ingest.description":   "ITNB AG - Cybersecurity and AI Innovation",
	"ingest.poll_interval": 5 * time.Second,
	"ingest.max_attempts":  60,

	"llm.api_key":     "",
	"llm.api_base":    "https://api.openai.com/v1",
	"llm.model":       "gpt-4o-mini",
	"llm.timeout":     30 * time.Second,
	"llm.temperature": 0.3,
	"llm.max_tokens":  500,

	"query.min_score":      50.0,
	"query.display_limit":  1200,
	"query.fallback_limit": 1500,
	"query.name":           "ITNB Knowledge Base",

	"content.max_results":  10,
	"content.lock_timeout": 60 * time.Second,
}

// legacyEnv lists unprefixed variable names that are honored after the
// SITERAG_ ones.
var legacyEnv = map[string]string{
	"groundx.api_key":   "GROUNDX_API_KEY",
	"groundx.bucket_id": "GROUNDX_BUCKET_ID",
	"llm.api_key":       "LLM_API_KEY",
	"llm.api_base":      "LLM_API_BASE",
	"llm.model":         "LLM_MODEL",
}

// flagKeys maps CLI flag names to settings keys.
var flagKeys = map[string]string{
	"output-dir":          "output_dir",
	"log-level":           "log_level",
	"metrics-file":        "metrics_file",
	"transport":           "transport",
	"host":                "host",
	"port":                "port",
	"auth-type":           "auth.type",
	"auth-basic-username": "auth.basic.username",
	"auth-basic-password": "auth.basic.password",
	"auth-api-keys":       "auth.api_keys",
	"base-url":            "crawl.base_url",
	"max-pages":           "crawl.max_pages",
	"max-depth":           "crawl.max_depth",
	"rps":                 "crawl.requests_per_second",
	"fetch-timeout":       "crawl.fetch_timeout",
	"bucket-id":           "groundx.bucket_id",
	"source-url":          "ingest.source_url",
	"cap":                 "ingest.cap",
	"depth":               "ingest.depth",
	"poll-interval":       "ingest.poll_interval",
	"max-attempts":        "ingest.max_attempts",
	"model":               "llm.model",
	"min-score":           "query.min_score",
	"max-results":         "content.max_results",
}

// EnvName returns the prefixed environment variable for a settings key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadEnvFile loads variables from a dotenv file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadSettings loads settings from environment variables and defaults
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > SITERAG_* variables > legacy variables > defaults.
// Flags that are not registered on the given set are skipped, so every
// command can pass its own flag set.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
		names := []string{EnvName(key)}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	for _, key := range []string{"auth.basic.username", "auth.basic.password", "auth.api_keys"} {
		_ = v.BindEnv(key, EnvName(key))
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// API keys given as one comma-separated variable
	if apiKeysEnv := os.Getenv(EnvName("auth.api_keys")); apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}
	settings.Auth.APIKeys = trimStrings(settings.Auth.APIKeys)

	settings.OutputDir = expandHomeDir(settings.OutputDir)
	settings.GroundX.APIKey = strings.TrimSpace(settings.GroundX.APIKey)
	settings.LLM.APIKey = strings.TrimSpace(settings.LLM.APIKey)

	return &settings, nil
}

// ParseLogLevel converts a level name to a slog level; unknown names are errors.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// trimStrings trims every entry and drops empty ones
func trimStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str = strings.TrimSpace(str); str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks that s holds what the given command needs.
func ValidateSettings(s *Settings, command string) error {
	if s.OutputDir == "" {
		return errors.New("output-dir cannot be empty")
	}
	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return err
	}

	switch command {
	case CommandScrape:
		return validateCrawlSettings(&s.Crawl)
	case CommandIngest:
		if err := validateGroundXSettings(&s.GroundX, true); err != nil {
			return err
		}
		return validateIngestSettings(&s.Ingest)
	case CommandStatus:
		if err := validateGroundXSettings(&s.GroundX, false); err != nil {
			return err
		}
		return validateIngestSettings(&s.Ingest)
	case CommandChat:
		if err := validateGroundXSettings(&s.GroundX, true); err != nil {
			return err
		}
		return validateQuerySettings(&s.Query)
	case CommandServe:
		return validateServeSettings(s)
	default:
		return errors.New("unknown command: " + command)
	}
}

func validateCrawlSettings(c *CrawlSettings) error {
	if err := validateHTTPURL("base-url", c.BaseURL); err != nil {
		return err
	}
	if c.MaxPages <= 0 {
		return errors.New("max-pages must be positive")
	}
	if c.MaxDepth < 0 {
		return errors.New("max-depth cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("rps cannot be negative")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch-timeout must be positive")
	}
	return nil
}

func validateGroundXSettings(g *GroundXSettings, needsBucket bool) error {
	if g.APIKey == "" {
		return errors.New("GROUNDX_API_KEY not set")
	}
	if needsBucket && g.BucketID <= 0 {
		return errors.New("GROUNDX_BUCKET_ID not set")
	}
	return validateHTTPURL("groundx base URL", g.BaseURL)
}

func validateIngestSettings(i *IngestSettings) error {
	if err := validateHTTPURL("source-url", i.SourceURL); err != nil {
		return err
	}
	if i.Cap <= 0 {
		return errors.New("cap must be positive")
	}
	if i.Depth < 0 {
		return errors.New("depth cannot be negative")
	}
	if i.PollInterval <= 0 {
		return errors.New("poll-interval must be positive")
	}
	if i.MaxAttempts <= 0 {
		return errors.New("max-attempts must be positive")
	}
	return nil
}

func validateQuerySettings(q *QuerySettings) error {
	if q.MinScore < 0 {
		return errors.New("min-score cannot be negative")
	}
	if q.DisplayLimit <= 0 || q.FallbackLimit <= 0 {
		return errors.New("display limits must be positive")
	}
	return nil
}

// validateServeSettings checks the transport and rejects conflicting auth
// configurations.
func validateServeSettings(s *Settings) error {
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	if s.Content.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got: %q", name, raw)
	}
	return nil
}

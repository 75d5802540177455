package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Where the edge reads the vendor directory from.
const (
	SourceLocal  = "local"  // directory served in-process, read without HTTP
	SourceOrigin = "origin" // VENDOR_CONFIG_PATH on the request's own origin
	SourceURL    = "url"    // VENDOR_CONFIG_URL
)

// Failure policies for the vendor config cache.
const (
	FailureErase  = "erase"
	FailureRetain = "retain"
)

type Config struct {
	Env           string
	HTTPAddr      string // storefront-edge
	DirectoryAddr string // vendor-directory

	// Downstream application the edge forwards (possibly rewritten) requests to.
	UpstreamURL string

	// Vendor directory endpoint. URL overrides the request-derived origin when set.
	VendorConfigPath string
	VendorConfigURL  string
	DirectorySource  string

	// Hostnames the edge answers for besides vendor domains.
	TrustedHosts []string

	ConfigTTL     time.Duration
	FetchTimeout  time.Duration
	FetchDedup    bool
	FetchBreaker  bool
	FailurePolicy string
	MaxStale      time.Duration

	Rules Rules

	// Redis & Postgres
	RedisURL          string
	DatabaseURL       string
	DirectoryRedisTTL time.Duration
}

// Rules are the static path lists used by the routing layer. Empty fields
// fall back to the routing package defaults.
type Rules struct {
	BypassPrefixes []string `yaml:"bypassPrefixes"`
	CommonPages    []string `yaml:"commonPages"`
	RSCParam       string   `yaml:"rscParam"`
	InternalMarker string   `yaml:"internalMarker"`
}

func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("STOREFRONT_ENV", "dev"),
		HTTPAddr:          env("STOREFRONT_HTTP_ADDR", ":8080"),
		DirectoryAddr:     env("DIRECTORY_HTTP_ADDR", ":8083"),
		UpstreamURL:       env("APP_UPSTREAM_URL", "http://localhost:3000"),
		VendorConfigPath:  env("VENDOR_CONFIG_PATH", "/api/vendors/config"),
		VendorConfigURL:   env("VENDOR_CONFIG_URL", ""),
		DirectorySource:   strings.ToLower(env("VENDOR_CONFIG_SOURCE", "")),
		TrustedHosts:      envList("STOREFRONT_HOSTS"),
		ConfigTTL:         envDur("VENDOR_CONFIG_TTL_SEC", 300) * time.Second,
		FetchTimeout:      envDur("VENDOR_FETCH_TIMEOUT_MS", 2000) * time.Millisecond,
		FetchDedup:        envBool("VENDOR_FETCH_DEDUP", true),
		FetchBreaker:      envBool("VENDOR_FETCH_BREAKER", false),
		FailurePolicy:     strings.ToLower(env("VENDOR_FETCH_FAILURE_POLICY", FailureErase)),
		MaxStale:          envDur("VENDOR_MAX_STALE_SEC", 1800) * time.Second,
		RedisURL:          env("REDIS_URL", ""),
		DatabaseURL:       env("DATABASE_URL", ""),
		DirectoryRedisTTL: envDur("DIRECTORY_REDIS_TTL_SEC", 30) * time.Second,
	}
	switch cfg.FailurePolicy {
	case FailureErase, FailureRetain:
	default:
		return Config{}, fmt.Errorf("config: unknown VENDOR_FETCH_FAILURE_POLICY %q", cfg.FailurePolicy)
	}
	if cfg.DirectorySource == "" {
		cfg.DirectorySource = SourceLocal
		if cfg.VendorConfigURL != "" {
			cfg.DirectorySource = SourceURL
		}
	}
	switch cfg.DirectorySource {
	case SourceLocal, SourceOrigin:
	case SourceURL:
		if cfg.VendorConfigURL == "" {
			return Config{}, fmt.Errorf("config: VENDOR_CONFIG_SOURCE=url requires VENDOR_CONFIG_URL")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown VENDOR_CONFIG_SOURCE %q", cfg.DirectorySource)
	}
	if cfg.DirectorySource == SourceOrigin && len(cfg.TrustedHosts) == 0 {
		return Config{}, fmt.Errorf("config: VENDOR_CONFIG_SOURCE=origin requires STOREFRONT_HOSTS")
	}
	if !strings.HasPrefix(cfg.VendorConfigPath, "/") {
		cfg.VendorConfigPath = "/" + cfg.VendorConfigPath
	}
	if f := env("ROUTING_RULES_FILE", ""); f != "" {
		rules, err := LoadRules(f)
		if err != nil {
			return Config{}, err
		}
		cfg.Rules = rules
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, using in-memory vendor directory for dev")
	}
	return cfg, nil
}

// LoadRules reads routing rules from a YAML file.
func LoadRules(path string) (Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("config: read rules: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("config: parse rules %s: %w", path, err)
	}
	return r, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envList(k string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(k), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return time.Duration(def)
		}
		return time.Duration(i)
	}
	return time.Duration(def)
}

// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the lead store, the Conversions API
// forwarder, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-lead-capture/internal/sysutil"
)

// Supported lead store drivers.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StoreConfig selects and configures the lead store backend.
type StoreConfig struct {
	Driver      string // LEAD_STORE_DRIVER: supabase|postgres|sqlite
	SupabaseURL string // SUPABASE_URL (project URL, e.g. https://xyz.supabase.co)
	SupabaseKey string // SUPABASE_KEY or SUPABASE_SERVICE_ROLE_KEY
	Table       string // LEADS_TABLE
	DatabaseURL string // DATABASE_URL (postgres DSN)
	DBPath      string // DB_PATH (sqlite file)
	AutoMigrate bool   // DB_AUTO_MIGRATE (SQL drivers only)

	// SUPABASE_TIMEOUT bounds each PostgREST call. 0 keeps the client's
	// built-in default.
	Timeout time.Duration
}

// CAPIConfig configures delivery of conversion events to the ad platform.
type CAPIConfig struct {
	BaseURL     string        // CAPI_BASE_URL
	APIVersion  string        // CAPI_API_VERSION (e.g. "v18.0")
	PixelID     string        // FB_PIXEL_ID
	AccessToken string        // FACEBOOK_ACCESS_TOKEN
	Source      string        // CAPI_SOURCE, sent as custom_data.source
	Timeout     time.Duration // CAPI_TIMEOUT, must stay below WRITE_TIMEOUT
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-lead-capture")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes
	LeadPath       string // lead endpoint, relative to APIBasePath

	// Backends
	Store StoreConfig
	CAPI  CAPIConfig

	// Rate limiting (RateRPS == 0 disables the limiter)
	RateRPS   float64
	RateBurst int

	// Web protection
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),
		LeadPath:       normalizeBasePath(getenv("LEAD_PATH", "/guardar-lead")),

		Store: StoreConfig{
			Driver:      strings.ToLower(strings.TrimSpace(getenv("LEAD_STORE_DRIVER", DriverSupabase))),
			SupabaseURL: strings.TrimRight(getenv("SUPABASE_URL", ""), "/"),
			SupabaseKey: sysutil.FirstNonEmpty(os.Getenv("SUPABASE_KEY"), os.Getenv("SUPABASE_SERVICE_ROLE_KEY")),
			Table:       getenv("LEADS_TABLE", "leads"),
			DatabaseURL: getenv("DATABASE_URL", ""),
			DBPath:      getenv("DB_PATH", "leads.db"),
			AutoMigrate: getbool("DB_AUTO_MIGRATE", true),
			Timeout:     getdur("SUPABASE_TIMEOUT", 0),
		},

		CAPI: CAPIConfig{
			BaseURL:     strings.TrimRight(getenv("CAPI_BASE_URL", "https://graph.facebook.com"), "/"),
			APIVersion:  getenv("CAPI_API_VERSION", "v18.0"),
			PixelID:     getenv("FB_PIXEL_ID", "887364637173488"),
			AccessToken: getenv("FACEBOOK_ACCESS_TOKEN", ""),
			Source:      getenv("CAPI_SOURCE", "Landing Vendedores"),
			Timeout:     getdur("CAPI_TIMEOUT", 10*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-lead-capture"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.LeadPath == "/" {
		return cfg, errors.New("LEAD_PATH must not be empty")
	}
	switch cfg.Store.Driver {
	case DriverSupabase:
	case DriverPostgres:
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL must be set when LEAD_STORE_DRIVER=postgres")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	default:
		return cfg, errors.New("LEAD_STORE_DRIVER must be one of: supabase, postgres, sqlite")
	}
	if strings.TrimSpace(cfg.Store.Table) == "" {
		return cfg, errors.New("LEADS_TABLE must not be empty")
	}
	if strings.TrimSpace(cfg.CAPI.PixelID) == "" {
		return cfg, errors.New("FB_PIXEL_ID must not be empty")
	}
	if cfg.Store.Timeout < 0 {
		return cfg, errors.New("SUPABASE_TIMEOUT must be >= 0")
	}
	// The forward runs inside the request, so it has to finish before the
	// server gives up on writing the response.
	if cfg.CAPI.Timeout <= 0 || cfg.CAPI.Timeout >= cfg.WriteTimeout {
		return cfg, errors.New("CAPI_TIMEOUT must be > 0 and below WRITE_TIMEOUT")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// MissingSecrets lists the credential variables that are unset. They are not
// validated (calls fail downstream instead), so callers may warn about them.
func (c Config) MissingSecrets() []string {
	var out []string
	if c.Store.Driver == DriverSupabase {
		if c.Store.SupabaseURL == "" {
			out = append(out, "SUPABASE_URL")
		}
		if c.Store.SupabaseKey == "" {
			out = append(out, "SUPABASE_KEY")
		}
	}
	if c.CAPI.AccessToken == "" {
		out = append(out, "FACEBOOK_ACCESS_TOKEN")
	}
	return out
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		if sysutil.IsFalsy(v) {
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

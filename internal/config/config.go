package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required variables are enforced with must() and
// abort startup when missing; everything else has a sensible default.  The
// struct is built once in main and passed by value; nothing mutates it at
// runtime, including the JWT signing secret.
type Config struct {
	Env    string // application environment (dev/test/prod)
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string // secret used to sign access and refresh tokens

	// Refresh cookie attributes.  dev: Secure=false SameSite=Lax,
	// prod behind HTTPS: Secure=true SameSite=None.
	CookieName     string
	CookieSecure   bool
	CookieSameSite string
	CookiePath     string
	CookieMaxAge   time.Duration

	UploadRoot string // directory for stored lost-report images

	ShelterAPIURL   string        // upstream shelter open-API base URL
	ShelterAPIKey   string        // service key for the shelter open-API
	ShelterCacheTTL time.Duration // redis TTL for proxied shelter pages

	AIBaseURL string // image-search sidecar base URL
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret: must("JWT_SECRET"),

		CookieName:     envStr("REFRESH_COOKIE_NAME", "refresh_token"),
		CookieSecure:   envBool("REFRESH_COOKIE_SECURE", false),
		CookieSameSite: envStr("REFRESH_COOKIE_SAMESITE", "Lax"),
		CookiePath:     envStr("REFRESH_COOKIE_PATH", "/"),
		CookieMaxAge:   envDur("REFRESH_COOKIE_MAX_AGE", 14*24*time.Hour),

		UploadRoot: envStr("UPLOAD_ROOT", "uploads"),

		ShelterAPIURL:   envStr("SHELTER_API_URL", ""),
		ShelterAPIKey:   envStr("SHELTER_API_KEY", ""),
		ShelterCacheTTL: envDur("SHELTER_CACHE_TTL", 10*time.Minute),

		AIBaseURL: envStr("AI_BASE_URL", "http://localhost:8000"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

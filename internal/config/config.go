package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"

	"github.com/iliyamo/auth-service/internal/utils"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Token TTLs are expressed in seconds to match the
// exp/iat claim resolution.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign JWTs
	AccessTTLSec  int    // access token time-to-live in seconds
	RefreshTTLSec int    // refresh token time-to-live in seconds
	BcryptCost    int    // bcrypt cost for password hashing
}

// Load reads configuration from environment variables.  Required variables
// are enforced by must() and missing values abort startup.  JWT_SECRET is
// the one deliberate exception: when unset a random secret is generated for
// the process lifetime, which means a restart invalidates every outstanding
// token.  That is an operational property of running without a configured
// secret, so it is logged loudly rather than treated as an error.
func Load() Config {
	cfg := Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AccessTTLSec:  mustInt("ACCESS_TOKEN_TTL_SEC"),
		RefreshTTLSec: mustInt("REFRESH_TOKEN_TTL_SEC"),
		BcryptCost:    mustInt("BCRYPT_COST"),
	}
	if cfg.JWTSecret == "" {
		secret, err := utils.NewSecret()
		if err != nil {
			// Without a usable signing secret no token can ever verify;
			// refuse to start.
			log.Fatalf("generate jwt secret: %v", err)
		}
		cfg.JWTSecret = secret
		log.Println("JWT_SECRET not set: generated ephemeral secret; all tokens are invalidated on restart")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

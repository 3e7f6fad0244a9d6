// internal/config/config.go
//
// Runtime configuration, read from the environment.
// A .env file in the working directory is loaded first (development only;
// real environment variables win).

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the server and CLI.
type Config struct {
	Port     string
	LogLevel string
	Env      string // "production" switches on secure cookies and JSON logs

	DBPath string

	JWTSecret  string
	JWTTTL     time.Duration
	CookieName string

	ClientOrigin string

	DictionaryFile string
	MaxPathLength  int

	StartingCredits int
	ReferralBonus   int

	DemoSalt string
}

// Production reports whether the server runs in production mode.
func (c Config) Production() bool { return c.Env == "production" }

// Load reads .env (if present) and then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		Port:            getEnv("PORT", "5175"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Env:             getEnv("APP_ENV", "development"),
		DBPath:          getEnv("DB_PATH", "./data/app.db"),
		JWTSecret:       getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTTTL:          time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName:      getEnv("COOKIE_NAME", "boggle_token"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		DictionaryFile:  os.Getenv("DICTIONARY_FILE"),
		MaxPathLength:   envInt("MAX_PATH_LENGTH", 8),
		StartingCredits: envInt("STARTING_CREDITS", 1),
		ReferralBonus:   envInt("REFERRAL_BONUS", 2),
		DemoSalt:        getEnv("DEMO_SALT", "local_dev_salt"),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt returns k parsed as an int, or def if unset or malformed.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"

	"github.com/joho/godotenv" // godotenv loads a local .env file into the process environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced at startup; the
// rest fall back to defaults that match the behaviour of the web app.
type Config struct {
	Env     string // application environment (e.g. "dev", "prod")
	Port    string // HTTP port to listen on
	AppName string // name used in emails and the geocoder User-Agent
	AppURL  string // public base URL, used for media links

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	SessionSecret string        // secret used to sign session tokens
	SessionTTL    time.Duration // fixed session window (default 24h)
	CookieSecure  bool          // mark the session cookie Secure
	BcryptCost    int           // bcrypt cost for password hashing

	PasswordMinLength int           // minimum accepted password length
	OTPTTL            time.Duration // lifetime of an OTP code
	OTPResendWindow   time.Duration // minimum spacing between two resend requests

	SentimentMode string // "client" keeps the submitted score, "server" recomputes it

	RequestTimeout time.Duration // per-request budget for store calls
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return Config{
		Env:     envStr("APP_ENV", "dev"),
		Port:    must("APP_PORT"),
		AppName: envStr("APP_NAME", "ConnectHub"),
		AppURL:  envStr("APP_URL", "http://localhost:8080"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		SessionSecret: must("SESSION_SECRET"),
		SessionTTL:    time.Duration(envInt("SESSION_EXPIRY_HOURS", 24)) * time.Hour,
		CookieSecure:  envBool("SESSION_COOKIE_SECURE", false),
		BcryptCost:    mustInt("BCRYPT_COST"),

		PasswordMinLength: envInt("PASSWORD_MIN_LENGTH", 8),
		OTPTTL:            time.Duration(envInt("OTP_EXPIRY_MINUTES", 10)) * time.Minute,
		OTPResendWindow:   envDur("OTP_RESEND_WINDOW", time.Minute),

		SentimentMode: envStr("SENTIMENT_MODE", "client"),

		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
	}
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
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

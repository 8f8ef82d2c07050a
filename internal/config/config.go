package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Strings for identifiers and secrets, ints
// for durations and costs.
type Config struct {
    Env            string // application environment (dev/test/prod)
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing
    DoctorTrialDays int   // free trial length granted to new doctor accounts

    TelegramBotToken       string // bot used to forward payment receipts (optional)
    TelegramPaymentGroupID string // chat the receipts are forwarded to (optional)

    AIBaseURL string // generative-AI endpoint base URL (optional)
    AIAPIKey  string // API key for the generative-AI endpoint (optional)
    AIModel   string // model name requested from the AI endpoint
}

// Load reads configuration from the environment, after loading a local
// .env file when present.  Required variables are enforced by must();
// missing values abort startup with a fatal log message.
func Load() Config {
    _ = godotenv.Load() // .env is optional; real environments set vars directly

    return Config{
        Env:             must("APP_ENV"),
        Port:            must("APP_PORT"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"),
        DBHost:          must("DB_HOST"),
        DBPort:          must("DB_PORT"),
        DBName:          must("DB_NAME"),
        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:      mustInt("BCRYPT_COST"),
        DoctorTrialDays: envInt("DOCTOR_TRIAL_DAYS", 7),

        TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
        TelegramPaymentGroupID: os.Getenv("TELEGRAM_PAYMENT_GROUP_ID"),

        AIBaseURL: os.Getenv("AI_BASE_URL"),
        AIAPIKey:  os.Getenv("AI_API_KEY"),
        AIModel:   envStr("AI_MODEL", "gemini-1.5-flash"),
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
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
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

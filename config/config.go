package config

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	JWTSecret      string
	SendgridAPIKey string
	EmailFrom      string

	ReminderSweepSpec string
	ReminderWindow    time.Duration
	ReminderRetention time.Duration
	RequestTimeout    time.Duration
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the environment wins either way
	_ = godotenv.Load()

	env := getEnv("ENV", "local")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: getEnv("DB_NAME", "med-track"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         getEnv("PORT", "3000"),
		Env:          env,

		JWTSecret:      os.Getenv("JWT_SECRET"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:      getEnv("EMAIL_FROM", "no-reply@medtrack.app"),

		ReminderSweepSpec: getEnv("REMINDER_SWEEP_SPEC", "@every 1m"),
		ReminderWindow:    getDuration("REMINDER_WINDOW", 15*time.Minute),
		ReminderRetention: getDuration("REMINDER_RETENTION", time.Hour),
		RequestTimeout:    getDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		zap.S().Warnw("invalid duration in environment, using default",
			"key", key,
			"value", v,
			"default", fallback,
		)
		return fallback
	}
	return d
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "error", err)
	body := models.ErrorMessageResponse{Response: models.MessageError{Message: message}}
	if err != nil {
		body.Response.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	json.NewEncoder(w).Encode(body)
}

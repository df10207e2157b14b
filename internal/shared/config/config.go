package config

import (
	"os"
	"strings"
	"time"

	"probate-backend/internal/shared/telemetry"
)

const defaultFormsURL = "https://probate-forms.netlify.app"

// Config holds application configuration.
type Config struct {
	Port                 string
	CORSAllowOrigin      []string
	ObjectStoreType      string
	LocalStoreDir        string
	AWSRegion            string
	S3Bucket             string
	S3Prefix             string
	SSEKMSKeyID          string
	UploadsBucket        string
	UploadsPrefix        string
	DatabaseURL          string
	Env                  string
	JWTSecret            string
	AdminEmails          []string
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURL    string
	UIRedirectURL        string
	FormsURL             string
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripePublishableKey string
	CheckoutSuccessURL   string
	CheckoutCancelURL    string
	RedisAddr            string
	RedisPassword        string
	EventsQueueURL       string
	DashboardLoadTimeout time.Duration
	SupportPhone         string
}

// Load reads configuration from environment variables with sensible defaults.
// A YAML file named by CONFIG_FILE is applied first; environment variables win.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	file, err := loadFileOverlay(os.Getenv("CONFIG_FILE"))
	if err != nil {
		telemetry.Warn("config.file.ignored", map[string]any{"err": err})
	}

	env := normalizeEnv(getEnv("ENV", file.Env, "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url.missing", map[string]any{"env": env})
	}

	formsURL := getEnv("PROBATE_FORMS_URL", os.Getenv("VITE_PROBATE_FORMS_URL"), file.FormsURL, defaultFormsURL)

	return Config{
		Port:                 getEnv("PORT", file.Port, "8080"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", strings.Join(file.CORSAllowOrigins, ","), "http://localhost:5173")),
		ObjectStoreType:      normalizeStoreType(getEnv("OBJECT_STORE", file.ObjectStore, "local")),
		LocalStoreDir:        getEnv("LOCAL_STORE_DIR", file.LocalStoreDir, "./data"),
		AWSRegion:            getEnv("AWS_REGION", file.AWSRegion, ""),
		S3Bucket:             getEnv("S3_BUCKET", file.S3Bucket, ""),
		S3Prefix:             getEnv("S3_PREFIX", file.S3Prefix, ""),
		SSEKMSKeyID:          getEnv("SSE_KMS_KEY_ID", ""),
		UploadsBucket:        getEnv("UPLOADS_S3_BUCKET", file.UploadsBucket, ""),
		UploadsPrefix:        getEnv("UPLOADS_S3_PREFIX", file.UploadsPrefix, "documents/"),
		DatabaseURL:          dbURL,
		Env:                  env,
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AdminEmails:          splitAndTrim(getEnv("ADMIN_EMAILS", strings.Join(file.AdminEmails, ","))),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:    getEnv("GOOGLE_REDIRECT_URL", file.GoogleRedirectURL, ""),
		UIRedirectURL:        getEnv("UI_REDIRECT_URL", file.UIRedirectURL, ""),
		FormsURL:             strings.TrimRight(formsURL, "/"),
		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePublishableKey: getEnv("VITE_STRIPE_PUBLISHABLE_KEY", file.StripePublishableKey, ""),
		CheckoutSuccessURL:   getEnv("CHECKOUT_SUCCESS_URL", file.CheckoutSuccessURL, "http://localhost:5173/payment-success"),
		CheckoutCancelURL:    getEnv("CHECKOUT_CANCEL_URL", file.CheckoutCancelURL, "http://localhost:5173/pricing"),
		RedisAddr:            getEnv("REDIS_ADDR", file.RedisAddr, ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		EventsQueueURL:       getEnv("PROBATE_SQS_QUEUE_URL", ""),
		DashboardLoadTimeout: getDuration("DASHBOARD_LOAD_TIMEOUT", file.DashboardLoadTimeout, 10*time.Second),
		SupportPhone:         getEnv("SUPPORT_PHONE", file.SupportPhone, "(818) 291-6217"),
	}
}

// IsDevLike reports whether the environment allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// getEnv returns the environment value for key, or the first non-empty fallback.
func getEnv(key string, fallbacks ...string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	for _, fb := range fallbacks {
		if fb != "" {
			return fb
		}
	}
	return ""
}

func getDuration(key, fileValue string, def time.Duration) time.Duration {
	raw := getEnv(key, fileValue)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		telemetry.Warn("config.duration.invalid", map[string]any{"key": key, "value": raw, "default": def.String()})
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string

	JWTSecret string
	TokenTTL  time.Duration

	AdminEmail    string
	AdminPassword string
	AdminFullName string

	CloudinaryURL string

	CheckoutBaseURL      string
	CheckoutClientID     string
	CheckoutClientSecret string
	CheckoutReturnURL    string
	CheckoutCancelURL    string
	WebhookSecret        string

	SendGridAPIKey  string
	EmailSender     string
	EmailSenderName string

	ExchangeRateAPIKey string

	// OwnerBypassesPublishGate lets an instructor read their own unpublished course.
	OwnerBypassesPublishGate bool
	// RevokeAccessOnRefund enables the job that removes enrollments left without a completed payment.
	RevokeAccessOnRefund bool
	PendingPaymentTTL    time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 72*time.Hour),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminFullName: getEnv("ADMIN_FULL_NAME", "Administrator"),

		CloudinaryURL: getEnv("CLOUDINARY_URL", ""),

		CheckoutBaseURL:      getEnv("CHECKOUT_API_BASE_URL", "https://api-m.sandbox.paypal.com"),
		CheckoutClientID:     getEnv("CHECKOUT_CLIENT_ID", ""),
		CheckoutClientSecret: getEnv("CHECKOUT_CLIENT_SECRET", ""),
		CheckoutReturnURL:    getEnv("CHECKOUT_RETURN_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:    getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
		WebhookSecret:        getEnv("WEBHOOK_SECRET", ""),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", "noreply@localhost"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "CourseHub"),

		ExchangeRateAPIKey: getEnv("EXCHANGE_RATE_API_KEY", ""),

		OwnerBypassesPublishGate: getEnvBool("OWNER_BYPASSES_PUBLISH_GATE", false),
		RevokeAccessOnRefund:     getEnvBool("REVOKE_ACCESS_ON_REFUND", false),
		PendingPaymentTTL:        getEnvDuration("PENDING_PAYMENT_TTL", 24*time.Hour),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid boolean for %s: %q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

package configs

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBSource  string
	Port      string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration

	// payment provider
	PaymentBaseURL       string
	PaymentSecretKey     string
	PaymentWebhookHash   string // shared-secret header value
	PaymentWebhookSecret string // HMAC signing key
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	return &Config{
		DBSource:             getEnv("DB_SOURCE", "foodbundles.db"),
		Port:                 getEnv("PORT", "8000"),
		Env:                  getEnv("APP_ENV", "development"),
		JWTSecret:            getEnv("JWT_SECRET", "changeme"),
		JWTTTL:               time.Duration(24) * time.Hour,
		PaymentBaseURL:       getEnv("PAYMENT_BASE_URL", "https://api.flutterwave.com/v3"),
		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentWebhookHash:   os.Getenv("PAYMENT_WEBHOOK_HASH"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func MustGetEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		log.Fatalf("missing env: %s", key)
	}
	return v
}

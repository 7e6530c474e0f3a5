package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	ServerPort string

	// AuthJWTSecret verifies bearer tokens minted by the identity provider.
	AuthJWTSecret string
	// WebhookSecret verifies provisioning webhook signatures.
	WebhookSecret string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// StoryPurgeSpec and CounterReconcileSpec are cron expressions for the
	// maintenance jobs.
	StoryPurgeSpec       string
	CounterReconcileSpec string

	WorkerCount int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	purgeSpec := os.Getenv("STORY_PURGE_SPEC")
	if purgeSpec == "" {
		purgeSpec = "@every 1h"
	}

	reconcileSpec := os.Getenv("COUNTER_RECONCILE_SPEC")
	if reconcileSpec == "" {
		reconcileSpec = "@every 6h"
	}

	workerCount, err := strconv.Atoi(os.Getenv("WORKER_COUNT"))
	if err != nil || workerCount <= 0 {
		workerCount = 2
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisURL: redisURL,

		ServerPort: serverPort,

		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		StoryPurgeSpec:       purgeSpec,
		CounterReconcileSpec: reconcileSpec,

		WorkerCount: workerCount,
	}, nil
}

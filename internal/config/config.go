package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	WhatsApp  WhatsAppConfig
	Email     EmailConfig
	Verify    VerifyConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Sessions  SessionsConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// WhatsAppConfig configures the Cloud API client and webhook handshake.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
	APIBase       string
}

type EmailConfig struct {
	APIBase   string
	APIKey    string
	FromEmail string
	FromName  string
}

// VerifyConfig configures the national-ID registry lookup. When URL is empty
// the service runs with the static stub (dev/test deployments).
type VerifyConfig struct {
	URL    string
	APIKey string
}

type AdminConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type SessionsConfig struct {
	Retention time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5002")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("MINIO_BUCKET", "jobbridge-documents")
	viper.SetDefault("WHATSAPP_API_BASE", "https://graph.facebook.com/v19.0")
	viper.SetDefault("SESSION_RETENTION_DAYS", 7)
	viper.SetDefault("ADMIN_TOKEN_TTL", 60)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			PhoneNumberID: viper.GetString("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),
			AppSecret:     os.Getenv("WHATSAPP_APP_SECRET"),
			APIBase:       viper.GetString("WHATSAPP_API_BASE"),
		},
		Email: EmailConfig{
			APIBase:   viper.GetString("EMAIL_API_BASE"),
			APIKey:    os.Getenv("EMAIL_API_KEY"),
			FromEmail: viper.GetString("EMAIL_FROM_ADDRESS"),
			FromName:  viper.GetString("EMAIL_FROM_NAME"),
		},
		Verify: VerifyConfig{
			URL:    viper.GetString("VERIFY_REGISTRY_URL"),
			APIKey: os.Getenv("VERIFY_REGISTRY_API_KEY"),
		},
		Admin: AdminConfig{
			JWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
			TokenTTL:  time.Duration(viper.GetInt("ADMIN_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Sessions: SessionsConfig{
			Retention: time.Duration(viper.GetInt("SESSION_RETENTION_DAYS")) * 24 * time.Hour,
		},
	}

	// Basic validation
	if cfg.WhatsApp.AccessToken == "" {
		log.Println("WARNING: WHATSAPP_ACCESS_TOKEN is not set; outbound messages will fail")
	}
	if cfg.Admin.JWTSecret == "" {
		log.Println("WARNING: ADMIN_JWT_SECRET is not set; admin endpoints are disabled")
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config configuración principal de la aplicación
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	WhatsApp WhatsAppConfig
	Engine   EngineConfig
}

// ServerConfig configuración del servidor HTTP
type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig configuración de PostgreSQL
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configuración de Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WhatsAppConfig configuración del WhatsApp Business Cloud API
type WhatsAppConfig struct {
	APIBaseURL    string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	VerifyToken   string
	AppSecret     string
}

// EngineConfig configuración del motor de flujos
type EngineConfig struct {
	SessionTimeout  time.Duration // idle sessions older than this are abandoned
	SweepInterval   time.Duration
	LockTTL         time.Duration
	APICallTimeout  time.Duration
	DefaultMaxRetry int
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	// Cargar .env si existe
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", getEnv("POSTGRES_HOST", "localhost")),
			Port:            getEnv("DB_PORT", getEnv("POSTGRES_PORT", "5432")),
			User:            getEnv("DB_USER", getEnv("POSTGRES_USER", "postgres")),
			Password:        getEnv("DB_PASSWORD", getEnv("POSTGRES_PASSWORD", "postgres")),
			DBName:          getEnv("DB_NAME", getEnv("POSTGRES_DB", "chatflow")),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		WhatsApp: WhatsAppConfig{
			APIBaseURL:    getEnv("WHATSAPP_API_URL", "https://graph.facebook.com"),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v24.0"),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		},
		Engine: EngineConfig{
			SessionTimeout:  getDurationEnv("SESSION_TIMEOUT", 30*time.Minute),
			SweepInterval:   getDurationEnv("SESSION_SWEEP_INTERVAL", time.Minute),
			LockTTL:         getDurationEnv("SESSION_LOCK_TTL", 10*time.Minute),
			APICallTimeout:  getDurationEnv("API_CALL_TIMEOUT", 30*time.Second),
			DefaultMaxRetry: getIntEnv("DEFAULT_MAX_RETRIES", 3),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate valida la configuración
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Engine.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}

	return nil
}

// GetDSN retorna el DSN de PostgreSQL
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr retorna la dirección de Redis
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

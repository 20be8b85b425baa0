package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Qdrant   QdrantConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Network  NetworkConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	Enabled    bool
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey                string
	ChatModel             string
	EmbedModel            string
	SystemInstructionPath string
}

// StorageConfig selects where the application snapshot lives.
// Backend is one of "file", "postgres" or "memory".
type StorageConfig struct {
	Backend       string
	StatePath     string
	StateKey      string
	MaxStateBytes int64
	UploadPath    string
	MaxFileSize   int64
	PlaybooksFile string
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

type NetworkConfig struct {
	ProbeAddr    string
	ProbeTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "nexus_talent"),
		},
		Qdrant: QdrantConfig{
			Enabled:    getEnvAsBool("QDRANT_ENABLED", false),
			URL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "nexus_candidates"),
		},
		Gemini: GeminiConfig{
			APIKey:                getEnv("GEMINI_API_KEY", ""),
			ChatModel:             getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-pro"),
			EmbedModel:            getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			SystemInstructionPath: getEnv("SYSTEM_INSTRUCTION_PATH", ""),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STATE_BACKEND", BackendFile)),
			StatePath:     getEnv("STATE_PATH", "./data"),
			StateKey:      getEnv("STATE_KEY", "nexus-talent-os-state"),
			MaxStateBytes: getEnvAsInt64("STATE_MAX_BYTES", 5242880),
			UploadPath:    getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize:   getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			PlaybooksFile: getEnv("PLAYBOOKS_FILE", ""),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 2),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
		Network: NetworkConfig{
			ProbeAddr:    getEnv("CONNECTIVITY_PROBE_ADDR", "generativelanguage.googleapis.com:443"),
			ProbeTimeout: getEnvAsDuration("CONNECTIVITY_PROBE_TIMEOUT", "3s"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

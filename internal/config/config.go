package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Playback
	Preset string
	Mode   string
	Seed   uint64 // 0 picks a seed from the clock
	Volume float64

	// Storage
	RecordDir string
	HistoryDB string
	LogFile   string

	// Observability
	Environment string
	SentryDSN   string
	MQTTBroker  string // empty disables event publishing
	MQTTTopic   string
}

// Load reads an optional .env file and then the MEJ_* environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env: %v", err)
	}
	return FromEnv()
}

// FromEnv reads the MEJ_* environment with defaults.
func FromEnv() *Config {
	data := dataDir()
	return &Config{
		Preset:      getEnv("MEJ_PRESET", "flow"),
		Mode:        getEnv("MEJ_MODE", "continuous"),
		Seed:        getUint("MEJ_SEED", 0),
		Volume:      getFloat("MEJ_VOLUME", 0.8),
		RecordDir:   getEnv("MEJ_RECORD_DIR", filepath.Join(data, "tracks")),
		HistoryDB:   getEnv("MEJ_HISTORY_DB", filepath.Join(data, "history.db")),
		LogFile:     getEnv("MEJ_LOG_FILE", filepath.Join(data, "mej.log")),
		Environment: getEnv("MEJ_ENVIRONMENT", "development"),
		SentryDSN:   getEnv("MEJ_SENTRY_DSN", ""),
		MQTTBroker:  getEnv("MEJ_MQTT_BROKER", ""),
		MQTTTopic:   getEnv("MEJ_MQTT_TOPIC", "mej/events"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getUint(key string, defaultValue uint64) uint64 {
	v, err := strconv.ParseUint(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func dataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mej")
	}
	return ".mej"
}

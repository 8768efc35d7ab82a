package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported values for AppConfig.DBDriver.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// AppConfig holds file and environment driven configuration values.
// Credentials should be provided via the environment, never committed in config.json.
type AppConfig struct {
	AppPort            string   `env:"APP_PORT"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE"`
	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	// Gin framework configuration
	GinMode string `env:"GIN_MODE"`
	GinPath string `env:"GIN_LOG_PATH"`
	// Database: DBDriver selects the post store backend
	DBDriver       string `env:"DB_DRIVER"`
	DatabaseURI    string `env:"DATABASE_URI"`
	DBHost         string `env:"DB_HOST"`
	DBPort         string `env:"DB_PORT"`
	DBUser         string `env:"DB_USER"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBName         string `env:"DB_NAME"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS"`
	MongoURI       string `env:"MONGO_URI"`
	MongoDatabase  string `env:"MONGO_DATABASE"`
	// Logging configuration
	LogLevel      string `env:"LOG_LEVEL"`
	LogPath       string `env:"LOG_PATH"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `env:"LOG_COMPRESS"`
	// Uploaded images
	UploadDir              string `env:"UPLOAD_DIR"`
	UploadURLPrefix        string `env:"UPLOAD_URL_PREFIX"`
	UploadMaxSizeMB        int    `env:"UPLOAD_MAX_SIZE_MB"`
	UploadSweepEnabled     bool   `env:"UPLOAD_SWEEP_ENABLED"`
	UploadSweepCron        string `env:"UPLOAD_SWEEP_CRON"`
	UploadOrphanTTLMinutes int    `env:"UPLOAD_ORPHAN_TTL_MINUTES"`
}

// fileConfig mirrors the grouped layout of config/config.json.
type fileConfig struct {
	App struct {
		AppPort            string
		RateLimitPerMinute int
		AllowedOrigins     []string
	} `json:"app"`
	Gin struct {
		Mode    string
		LogPath string
	} `json:"gin"`
	Database struct {
		Driver        string
		DatabaseURI   string
		DBHost        string
		DBPort        string
		DBUser        string
		DBPassword    string
		DBName        string
		MaxIdleConns  int
		MaxOpenConns  int
		MongoURI      string
		MongoDatabase string
	} `json:"database"`
	Log struct {
		Level      string
		Path       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	} `json:"log"`
	Upload struct {
		Dir              string
		URLPrefix        string
		MaxSizeMB        int
		SweepEnabled     *bool
		SweepCron        string
		OrphanTTLMinutes int
	} `json:"upload"`
}

// Load reads configuration once during boot.
// Precedence: environment (and .env) -> config file -> defaults for anything still zero.
func Load(path string) (AppConfig, error) {
	cfg := AppConfig{UploadSweepEnabled: true}

	if err := loadJSONConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	// Defaults only fill zero values, so they run last to see the final driver.
	applyDefaults(&cfg)
	return cfg, nil
}

// loadJSONConfig reads the JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		return err
	}

	out.AppPort = fc.App.AppPort
	out.RateLimitPerMinute = fc.App.RateLimitPerMinute
	out.AllowedOrigins = fc.App.AllowedOrigins

	out.GinMode = fc.Gin.Mode
	out.GinPath = fc.Gin.LogPath

	out.DBDriver = fc.Database.Driver
	out.DatabaseURI = fc.Database.DatabaseURI
	out.DBHost = fc.Database.DBHost
	out.DBPort = fc.Database.DBPort
	out.DBUser = fc.Database.DBUser
	out.DBPassword = fc.Database.DBPassword
	out.DBName = fc.Database.DBName
	out.DBMaxIdleConns = fc.Database.MaxIdleConns
	out.DBMaxOpenConns = fc.Database.MaxOpenConns
	out.MongoURI = fc.Database.MongoURI
	out.MongoDatabase = fc.Database.MongoDatabase

	out.LogLevel = fc.Log.Level
	out.LogPath = fc.Log.Path
	out.LogMaxSizeMB = fc.Log.MaxSizeMB
	out.LogMaxBackups = fc.Log.MaxBackups
	out.LogMaxAgeDays = fc.Log.MaxAgeDays
	out.LogCompress = fc.Log.Compress

	out.UploadDir = fc.Upload.Dir
	out.UploadURLPrefix = fc.Upload.URLPrefix
	out.UploadMaxSizeMB = fc.Upload.MaxSizeMB
	out.UploadSweepCron = fc.Upload.SweepCron
	out.UploadOrphanTTLMinutes = fc.Upload.OrphanTTLMinutes
	if fc.Upload.SweepEnabled != nil {
		out.UploadSweepEnabled = *fc.Upload.SweepEnabled
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = DriverMySQL
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case DriverPostgres:
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBName == "" {
		c.DBName = "blog"
	}
	if c.DBMaxIdleConns == 0 {
		c.DBMaxIdleConns = 5
	}
	if c.DBMaxOpenConns == 0 {
		c.DBMaxOpenConns = 20
	}
	if c.MongoURI == "" {
		c.MongoURI = "mongodb://127.0.0.1:27017"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = c.DBName
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/app.log"
	}
	if c.UploadDir == "" {
		c.UploadDir = "static/uploads"
	}
	if c.UploadURLPrefix == "" {
		c.UploadURLPrefix = "/static/uploads"
	}
	if c.UploadMaxSizeMB == 0 {
		c.UploadMaxSizeMB = 10
	}
	if c.UploadSweepCron == "" {
		c.UploadSweepCron = "@every 30m"
	}
	if c.UploadOrphanTTLMinutes == 0 {
		c.UploadOrphanTTLMinutes = 24 * 60
	}
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultRecycleBinSubDir = "recycle_bin"
	DefaultPageSize         = 20
)

const (
	defaultThumbnailMaxSize    = 600
	defaultBackupQueueSize     = 8
	defaultBackupIntervalHours = 24
	defaultJWTExpirationHours  = 24
)

type Config struct {
	// database path
	DatabasePath string

	// media storage configuration
	MediaRoot  string // per-profile media folders live directly under here
	RecycleBin string // recycled folders are moved here on soft delete
	BackupDir  string

	// remove media folders on hard delete
	DeleteMediaOnRemove bool

	// list page size when the caller does not ask for one
	PageSize int

	// duplicate detection thresholds (0-100)
	SimilarityExact        int
	SimilarityWarn         int
	SimilarityMerge        int
	SimilarityImportUpdate int

	// thumbnail upload settings
	ThumbnailMaxSize int

	// backup worker settings, interval 0 disables automated backups
	BackupQueueSize     int
	BackupIntervalHours int

	// logging
	LogLevel  string
	LogFormat string

	// http
	Port           string
	AllowedOrigins []string

	// auth, disabled when JWTSecret is empty
	JWTSecret          string
	JWTExpirationHours int
	AdminUsername      string
	AdminPassword      string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := strings.ToLower(strings.TrimSpace(os.Getenv(envVar)))
	switch valStr {
	case "":
		return defaultVal
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	log.Printf("Warning: Invalid %s '%s'. Using default %t.", envVar, valStr, defaultVal)
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DB_PATH", "actresses.db")

	mediaRoot := getEnvOrDefault("MEDIA_ROOT", filepath.Join(".", "media"))
	absMediaRoot, err := filepath.Abs(mediaRoot)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media root '%s': %w", mediaRoot, err)
	}

	recycle := getEnvOrDefault("RECYCLE_BIN", filepath.Join(absMediaRoot, DefaultRecycleBinSubDir))
	absRecycle, err := filepath.Abs(recycle)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for recycle bin '%s': %w", recycle, err)
	}

	backupDir := getEnvOrDefault("BACKUP_DIR", filepath.Join(".", "backups"))
	absBackupDir, err := filepath.Abs(backupDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for backup dir '%s': %w", backupDir, err)
	}

	cfg := Config{
		DatabasePath:           dbPath,
		MediaRoot:              absMediaRoot,
		RecycleBin:             absRecycle,
		BackupDir:              absBackupDir,
		DeleteMediaOnRemove:    getEnvBoolOrDefault("DELETE_MEDIA_ON_REMOVE", false),
		PageSize:               getEnvIntOrDefault("PAGE_SIZE", DefaultPageSize),
		SimilarityExact:        getEnvIntOrDefault("SIMILARITY_EXACT", 100),
		SimilarityWarn:         getEnvIntOrDefault("SIMILARITY_WARN", 85),
		SimilarityMerge:        getEnvIntOrDefault("SIMILARITY_MERGE", 80),
		SimilarityImportUpdate: getEnvIntOrDefault("SIMILARITY_IMPORT_UPDATE", 80),
		ThumbnailMaxSize:       getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
		BackupQueueSize:        getEnvIntOrDefault("BACKUP_QUEUE_SIZE", defaultBackupQueueSize),
		BackupIntervalHours:    getEnvIntOrDefault("BACKUP_INTERVAL_HOURS", defaultBackupIntervalHours),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "text"),
		Port:                   getEnvOrDefault("PORT", "8080"),
		AllowedOrigins:         splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173")),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTExpirationHours:     getEnvIntOrDefault("JWT_EXPIRATION_HOURS", defaultJWTExpirationHours),
		AdminUsername:          os.Getenv("ADMIN_USERNAME"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints LoadConfig cannot express per variable.
func (c Config) Validate() error {
	var errs []error
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	for name, v := range map[string]int{
		"SIMILARITY_EXACT":         c.SimilarityExact,
		"SIMILARITY_WARN":          c.SimilarityWarn,
		"SIMILARITY_MERGE":         c.SimilarityMerge,
		"SIMILARITY_IMPORT_UPDATE": c.SimilarityImportUpdate,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("%s must be within 0-100, got %d", name, v))
		}
	}
	if c.SimilarityWarn > c.SimilarityExact {
		errs = append(errs, fmt.Errorf("SIMILARITY_WARN (%d) must not exceed SIMILARITY_EXACT (%d)", c.SimilarityWarn, c.SimilarityExact))
	}
	if c.AdminUsername != "" && c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD is required when ADMIN_USERNAME is set"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether the API requires a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

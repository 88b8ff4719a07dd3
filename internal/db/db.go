package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"toiler/internal/models"
)

const (
	// DataDir is the directory name for the embedded database
	DataDir = ".toiler"
	// DBFileName is the database filename within the data directory
	DBFileName = "db.sqlite"
	// SchemaVersion is the current schema version
	SchemaVersion = "1"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	db   *gorm.DB
	dbMu sync.RWMutex
)

// Options controls how a connection is opened
type Options struct {
	Driver string
	// DSN is a file path for sqlite and a connection string for postgres
	DSN   string
	Debug bool
}

// InitDB opens the sqlite database at dbPath and runs migrations
func InitDB(dbPath string) (*gorm.DB, error) {
	return Open(Options{Driver: DriverSQLite, DSN: dbPath})
}

// Open initializes the database connection for the configured driver and runs migrations
func Open(opts Options) (*gorm.DB, error) {
	level := logger.Silent
	if opts.Debug {
		level = logger.Warn
	}
	config := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	var (
		database *gorm.DB
		err      error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		database, err = openSQLite(opts.DSN, config)
	case DriverPostgres:
		database, err = gorm.Open(postgres.Open(opts.DSN), config)
		if err != nil {
			err = fmt.Errorf("failed to connect to database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbMu.Lock()
	db = database
	dbMu.Unlock()
	return database, nil
}

func openSQLite(dbPath string, config *gorm.Config) (*gorm.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	database, err := gorm.Open(sqlite.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports multiple readers but only one writer.
	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)

	if err := database.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	return database, nil
}

// runMigrations runs all database migrations
func runMigrations(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Team{},
		&models.Role{},
		&models.TeamMember{},
		&models.State{},
		&models.Task{},
		&models.Activity{},
		&models.Config{},
		&models.ScheduleRun{},
	)
}

// GetDB returns the current database connection
func GetDB() *gorm.DB {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return db
}

// SetDB sets the database connection (used for testing)
func SetDB(database *gorm.DB) {
	dbMu.Lock()
	defer dbMu.Unlock()
	db = database
}

// CloseDB closes the database connection
func CloseDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	err = sqlDB.Close()
	db = nil
	return err
}

// SetConfig sets a configuration value
func SetConfig(key, value string) error {
	config := models.Config{Key: key, Value: value}
	return GetDB().Save(&config).Error
}

// GetConfig gets a configuration value
func GetConfig(key string) (string, error) {
	var config models.Config
	err := GetDB().Where("key = ?", key).First(&config).Error
	if err != nil {
		return "", err
	}
	return config.Value, nil
}

package db

import (
	"consult_flow_app_go/logger"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Options selects the database backend
type Options struct {
	Path        string // local sqlite file
	Environment string
	TursoURL    string // remote libSQL database; takes precedence over Path
	TursoToken  string
}

// Initialize sets up the database connection.
// A local file is opened in WAL mode; a Turso URL is opened through the libSQL driver.
func Initialize(opts Options) error {
	// Determine log level based on environment
	logLevel := gormlogger.Info
	if opts.Environment == "production" {
		logLevel = gormlogger.Warn
	}
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	}

	var dialector gorm.Dialector
	if opts.TursoURL != "" {
		conn, err := sql.Open("libsql", tursoDSN(opts.TursoURL, opts.TursoToken))
		if err != nil {
			return fmt.Errorf("failed to open libsql connection: %w", err)
		}
		dialector = sqlite.New(sqlite.Config{Conn: conn})
	} else {
		// Enable WAL mode for better concurrency support
		dialector = sqlite.Open(opts.Path + "?_journal_mode=WAL&_foreign_keys=on")
	}

	database, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = database

	logger.Log.Info("Database connection established", zap.Bool("remote", opts.TursoURL != ""))
	return nil
}

func tursoDSN(url, token string) string {
	if token == "" {
		return url
	}
	return url + "?authToken=" + token
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info("Database migrations completed", zap.Int("models", len(models)))
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}

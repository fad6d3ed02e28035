// Package database provides persistence for the maintenance orchestration
// engine: connection management, GORM models, and per-area repositories.
package database

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MariaDBConfig holds MariaDB connection settings.
type MariaDBConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Charset  string `json:"charset" yaml:"charset"`

	// Pool settings; zero values fall back to defaults suited to the
	// scheduler's low connection churn.
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns"`
}

func (c *MariaDBConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}

func (c *MariaDBConfig) dsn() string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, charset)
}

// Connection abstracts the database backing the repositories.
type Connection interface {
	Close() error
	Ping() error
	GetStatus() string
	GetGormDB() *gorm.DB
}

// schemaModels is the full table set migrated on startup. Order matters only
// for readability; AutoMigrate resolves references itself.
var schemaModels = []interface{}{
	&Server{},
	&HostSystem{},
	&Cluster{},
	&ServerGroup{},
	&MaintenanceWindow{},
	&Job{},
	&JobTask{},
	&SchedulerLease{},
}

// MariaDBConnection implements Connection for MariaDB.
type MariaDBConnection struct {
	config *MariaDBConfig
	db     *gorm.DB
}

// NewMariaDBConnection opens a MariaDB connection, tunes the pool, and
// migrates the engine's tables.
func NewMariaDBConnection(config *MariaDBConfig) (*MariaDBConnection, error) {
	if config == nil {
		return nil, fmt.Errorf("MariaDB config is required")
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid MariaDB config: %w", err)
	}

	db, err := gorm.Open(mysql.Open(config.dsn()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access SQL pool: %w", err)
	}
	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(schemaModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WithFields(log.Fields{
		"host":     config.Host,
		"port":     config.Port,
		"database": config.Database,
		"username": config.Username,
	}).Info("MariaDB connection established")

	return &MariaDBConnection{config: config, db: db}, nil
}

// Close closes the underlying connection pool.
func (c *MariaDBConnection) Close() error {
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access SQL pool: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	c.db = nil
	log.Info("MariaDB connection closed")
	return nil
}

// Ping tests the database connection.
func (c *MariaDBConnection) Ping() error {
	if c.db == nil {
		return fmt.Errorf("not connected to database")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access SQL pool: %w", err)
	}
	return sqlDB.Ping()
}

// GetStatus reports the connection state for the health endpoint.
func (c *MariaDBConnection) GetStatus() string {
	if c.db == nil {
		return "disconnected"
	}
	if err := c.Ping(); err != nil {
		return "error"
	}
	return "connected"
}

// GetGormDB returns the underlying GORM handle.
func (c *MariaDBConnection) GetGormDB() *gorm.DB {
	return c.db
}

// MemoryConnection implements Connection without a backing database. Used by
// tests and by dry-run tooling that never touches persistence; repositories
// built over it report "database not available" on every call.
type MemoryConnection struct{}

// NewMemoryConnection creates a new in-memory connection.
func NewMemoryConnection() *MemoryConnection {
	log.Info("Using in-memory storage (no persistence)")
	return &MemoryConnection{}
}

func (c *MemoryConnection) Close() error { return nil }

func (c *MemoryConnection) Ping() error { return nil }

// GetStatus reports the connection state for the health endpoint.
func (c *MemoryConnection) GetStatus() string { return "memory" }

// GetGormDB returns nil; there is no database behind this connection.
func (c *MemoryConnection) GetGormDB() *gorm.DB { return nil }

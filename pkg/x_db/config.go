// file:cas/pkg/x_db/config.go
package x_db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//---------------------
// Database Config
//---------------------

type DbType string

const (
	DbSqlite   DbType = "sqlite"
	DbPostgres DbType = "postgres"
)

// Config selects the driver and how SQL is logged.
type Config struct {
	Type          DbType
	DSN           string
	LogLevel      string // silent, error, warn or info
	SlowThreshold time.Duration
	BatchSize     int
}

var defaultCfg = Config{
	Type:          DbSqlite,
	DSN:           "cas.db",
	LogLevel:      "warn",
	SlowThreshold: 200 * time.Millisecond,
	BatchSize:     500,
}

// DefaultConfig returns the sqlite defaults.
func DefaultConfig() Config { return defaultCfg }

func (c Config) dialector() (gorm.Dialector, error) {
	switch c.Type {
	case DbSqlite, "":
		return sqlite.Open(c.DSN), nil
	case DbPostgres:
		return postgres.Open(c.DSN), nil
	}
	return nil, fmt.Errorf("unsupported db type %q", c.Type)
}

func (c Config) gormLevel() logger.LogLevel {
	switch c.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

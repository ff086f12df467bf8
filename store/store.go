// Package store provides the read-model database layer this core depends on.
//
// This core owns no authoritative state (spec.md §1); it only needs
// read-through access to the ExchangeAccount table whose schema is
// contractual per spec.md §6. Everything else (trades, users, credits,
// backtests) lives in collaborating services outside this core's scope.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DBType selects the backing SQL dialect.
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypePostgres DBType = "postgres"
)

// DBConfig configures the database connection.
type DBConfig struct {
	Type     DBType
	Path     string // SQLite file path
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Store is the composition root for this core's database access.
type Store struct {
	db       *gorm.DB
	exchange *ExchangeAccountStore
}

// Open opens the database and prepares the sub-stores.
func Open(cfg DBConfig) (*Store, error) {
	gdb, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: gdb, exchange: NewExchangeAccountStore(gdb)}
	if err := s.exchange.migrate(); err != nil {
		return nil, fmt.Errorf("migrate exchange_accounts: %w", err)
	}
	return s, nil
}

func open(cfg DBConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	switch cfg.Type {
	case DBTypePostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		db, err := gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		return db, nil

	case DBTypeSQLite, "":
		path := cfg.Path
		if path == "" {
			path = "data/opportunity_engine.db"
		}
		db, err := gorm.Open(sqlite.Open(path), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		db.Exec("PRAGMA foreign_keys = ON")
		db.Exec("PRAGMA busy_timeout = 5000")
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported db type: %s", cfg.Type)
	}
}

// ExchangeAccounts exposes the ExchangeAccount read-model store.
func (s *Store) ExchangeAccounts() *ExchangeAccountStore { return s.exchange }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

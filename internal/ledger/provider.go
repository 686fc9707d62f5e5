package ledger

import (
	"fmt"
	"time"

	"fpledger/internal/providers"
	"fpledger/internal/structures"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	slowQueryThreshold = 200 * time.Millisecond
)

// NewStoreProvider builds the ledger backend selected by storage.driver.
func NewStoreProvider(conf *structures.Config, logger providers.Logger) (Store, error) {
	opts := []Option{
		WithCorruptionReporter(func(fingerprintID string) {
			logger.Warnf(providers.TypeApp, "Corrupt transaction history for fingerprint %s, serving empty list", fingerprintID)
		}),
	}

	switch conf.Storage.Driver {
	case DriverMemory, "":
		logger.Infof(providers.TypeApp, "Using in-memory ledger store")
		return NewMemoryStore(opts...), nil
	case DriverPostgres, DriverSQLite:
		db, err := OpenDatabase(conf.Storage, logger)
		if err != nil {
			return nil, err
		}
		store, err := NewGormStore(db, opts...)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		logger.Infof(providers.TypeApp, "Using %s ledger store", conf.Storage.Driver)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

// OpenDatabase opens a gorm connection for the SQL drivers. Driver errors are
// translated so unique violations surface as gorm.ErrDuplicatedKey.
func OpenDatabase(conf structures.StorageConfig, logger providers.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch conf.Driver {
	case DriverPostgres:
		dialector = postgres.Open(conf.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(conf.DSN)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", conf.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormWriter{logger: logger}, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", conf.Driver, err)
	}

	// sqlite allows one writer; a single connection keeps it from
	// returning "database is locked" under concurrent requests.
	if conf.Driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// gormWriter routes gorm's own log lines into the app log.
type gormWriter struct {
	logger providers.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Warnf(providers.TypeApp, format, args...)
}

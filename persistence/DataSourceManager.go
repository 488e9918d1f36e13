package persistence

import (
	"commandr/bizerror"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	otgorm "github.com/smacker/opentracing-gorm"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

const (
	DriverMysql    = "mysql"
	DriverSqlite   = "sqlite3"
	DriverPostgres = "postgres"
)

var ErrNotStarted = errors.New("data source is not started")

// DataSource is the store handle components receive at construction.
type DataSource interface {
	GormDB(ctx context.Context) *gorm.DB
}

type DataSourceManager struct {
	gormDB *gorm.DB

	DatabaseConfig *DatabaseConfig
	// LogMode enables gorm statement logging through logrus.
	LogMode bool
}

func (m *DataSourceManager) Start() error {
	if m.gormDB != nil {
		return errors.New("data source already started")
	}
	db, err := connect(m.DatabaseConfig)
	if err != nil {
		return err
	}
	db.SetLogger(gorm.Logger{LogWriter: logrus.WithField("component", "gorm")})
	db.LogMode(m.LogMode)
	otgorm.AddGormCallbacks(db)

	m.gormDB = db
	return nil
}

func (m *DataSourceManager) Stop() {
	if m.gormDB != nil {
		if err := m.gormDB.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close database")
		}
		m.gormDB = nil
	}
}

// GormDB returns a fresh session carrying the span of ctx, so statements join the caller's trace.
// It is nil while the manager is not started.
func (m *DataSourceManager) GormDB(ctx context.Context) *gorm.DB {
	if m == nil || m.gormDB == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return otgorm.SetSpanToGorm(ctx, m.gormDB.New())
}

// Session returns the handle of ds bound to ctx. A source that is not started is reported as an unavailable store.
func Session(ctx context.Context, ds DataSource) (*gorm.DB, error) {
	if ds != nil {
		if db := ds.GormDB(ctx); db != nil {
			return db, nil
		}
	}
	return nil, bizerror.StoreUnavailable(ErrNotStarted)
}

func connect(config *DatabaseConfig) (*gorm.DB, error) {
	if config == nil {
		return nil, errors.New("database config is missing")
	}

	var db *gorm.DB
	var err error
	switch config.DriverType {
	case DriverPostgres:
		// postgres connections go through pgx, gorm only provides the dialect
		sqlDB, openErr := sql.Open("pgx", config.DriverArgs)
		if openErr != nil {
			return nil, openErr
		}
		db, err = gorm.Open(DriverPostgres, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	case DriverMysql, DriverSqlite:
		db, err = gorm.Open(config.DriverType, config.DriverArgs)
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", config.DriverType)
	}
	if err != nil {
		return nil, err
	}

	if config.DriverType == DriverSqlite {
		// sqlite serializes writers, a single connection avoids 'database is locked'
		db.DB().SetMaxOpenConns(1)
	} else {
		if config.MaxOpenConns > 0 {
			db.DB().SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.MaxIdleConns > 0 {
			db.DB().SetMaxIdleConns(config.MaxIdleConns)
		}
	}

	if err := db.DB().Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

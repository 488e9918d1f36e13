package persistence

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
)

type DatabaseConfig struct {
	DriverType   string `yaml:"driverType"`
	DriverArgs   string `yaml:"driverArgs"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
}

// ParseDatabaseConfigFromEnv DB_DRIVER_TYPE, DB_DRIVER_ARGS, DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	c := &DatabaseConfig{DriverType: DriverMysql}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	if c.DriverArgs == "" {
		return nil, errors.New("DB_DRIVER_ARGS is required")
	}
	return c, nil
}

// ApplyEnv overrides fields with the environment variables that are present.
func (c *DatabaseConfig) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("DB_DRIVER_TYPE")); v != "" {
		c.DriverType = v
	}
	if v := strings.TrimSpace(os.ExpandEnv(os.Getenv("DB_DRIVER_ARGS"))); v != "" {
		c.DriverArgs = v
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("DB_MAX_OPEN_CONNS must be a number")
		}
		c.MaxOpenConns = n
	}
	if v := os.Getenv("DB_MAX_IDLE_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("DB_MAX_IDLE_CONNS must be a number")
		}
		c.MaxIdleConns = n
	}
	return nil
}

// PrepareMysqlDatabase creates the database named in the dsn if it does not exist.
func PrepareMysqlDatabase(driverArgs string) error {
	cfg, err := mysql.ParseDSN(driverArgs)
	if err != nil {
		return err
	}
	databaseName := cfg.DBName
	if databaseName == "" {
		return errors.New("database name is missing in dsn")
	}
	cfg.DBName = ""

	db, err := gorm.Open(DriverMysql, cfg.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` DEFAULT CHARACTER SET utf8mb4 DEFAULT COLLATE utf8mb4_unicode_ci").Error
}

package config

import (
	"commandr/authority"
	"commandr/persistence"
	"commandr/session"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig                 `yaml:"http"`
	Database persistence.DatabaseConfig `yaml:"database"`
	Session  SessionConfig              `yaml:"session"`
	Throttle ThrottleConfig             `yaml:"throttle"`
	Guard    GuardConfig                `yaml:"guard"`
	Log      LogConfig                  `yaml:"log"`
	Admin    AdminConfig                `yaml:"admin"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type SessionConfig struct {
	Secret       string        `yaml:"secret"`
	Issuer       string        `yaml:"issuer"`
	TTL          time.Duration `yaml:"ttl"`
	CookieDomain string        `yaml:"cookieDomain"`
	// SecureCookie forces the Secure cookie attribute outside release mode.
	SecureCookie bool `yaml:"secureCookie"`
	BcryptCost   int  `yaml:"bcryptCost"`
}

// ThrottleConfig limits sign-in attempts per email and client address. PerMinute 0 disables throttling.
type ThrottleConfig struct {
	PerMinute float64       `yaml:"perMinute"`
	Burst     int           `yaml:"burst"`
	Expiry    time.Duration `yaml:"expiry"`
}

type GuardConfig struct {
	SignInPath string         `yaml:"signInPath"`
	Rules      []session.Rule `yaml:"rules"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	SQLTrace bool   `yaml:"sqlTrace"`
}

type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func Default() *Config {
	return &Config{
		HTTP:     HTTPConfig{Addr: ":80", Mode: gin.DebugMode, ShutdownTimeout: 15 * time.Second},
		Database: persistence.DatabaseConfig{DriverType: persistence.DriverMysql},
		Session: SessionConfig{
			Issuer:     session.DefaultIssuer,
			TTL:        session.DefaultTokenTTL,
			BcryptCost: bcrypt.DefaultCost,
		},
		Throttle: ThrottleConfig{PerMinute: 10, Burst: 5, Expiry: 30 * time.Minute},
		Guard: GuardConfig{
			SignInPath: session.DefaultSignInPath,
			Rules: []session.Rule{
				{Pattern: "/personnel/*", Require: authority.PermPersonnel},
				{Pattern: "/attendance/*", Require: authority.PermAttendance},
				{Pattern: "/work/*", Require: authority.PermWork},
				{Pattern: "/reports/*", Require: authority.PermReport},
				{Pattern: "/admin/*", Require: authority.PermAdmin},
			},
		},
		Log:   LogConfig{Level: "info"},
		Admin: AdminConfig{Email: "admin@commandr.local"},
	}
}

// Load reads defaults, then the optional yaml file at path, then the environment including a local .env file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logrus.WithField("config", path).Debug("configuration loaded")
	return cfg, nil
}

// ApplyEnv overrides fields with the environment variables that are present.
func (c *Config) ApplyEnv() error {
	if err := c.Database.ApplyEnv(); err != nil {
		return err
	}
	setString(&c.HTTP.Addr, "HTTP_ADDR")
	setString(&c.HTTP.Mode, gin.EnvGinMode)
	setString(&c.Session.Secret, "SESSION_SECRET")
	setString(&c.Session.Issuer, "SESSION_ISSUER")
	setString(&c.Session.CookieDomain, "COOKIE_DOMAIN")
	setString(&c.Guard.SignInPath, "SIGNIN_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Admin.Email, "INITIAL_ADMIN_EMAIL")
	setString(&c.Admin.Password, "INITIAL_ADMIN_PASSWORD")

	if err := setDuration(&c.HTTP.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Session.TTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.Throttle.Expiry, "THROTTLE_EXPIRY"); err != nil {
		return err
	}
	if err := setInt(&c.Session.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if err := setInt(&c.Throttle.Burst, "THROTTLE_BURST"); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("THROTTLE_PER_MINUTE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("THROTTLE_PER_MINUTE must be a number")
		}
		c.Throttle.PerMinute = f
	}
	if v := strings.TrimSpace(os.Getenv("SECURE_COOKIE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("SECURE_COOKIE must be a boolean")
		}
		c.Session.SecureCookie = b
	}
	if v := strings.TrimSpace(os.Getenv("SQL_TRACE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("SQL_TRACE must be a boolean")
		}
		c.Log.SQLTrace = b
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http address is required")
	}
	switch c.HTTP.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("unknown mode '%s'", c.HTTP.Mode)
	}
	if c.Database.DriverArgs == "" {
		return errors.New("DB_DRIVER_ARGS is required")
	}
	if len(c.Session.Secret) < session.MinSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", session.MinSecretLength)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Session.BcryptCost < bcrypt.MinCost || c.Session.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Throttle.PerMinute < 0 || c.Throttle.Burst < 0 {
		return errors.New("throttle settings must not be negative")
	}
	if c.Throttle.PerMinute > 0 && c.Throttle.Burst == 0 {
		return errors.New("throttle burst must be positive when throttling is enabled")
	}
	for _, r := range c.Guard.Rules {
		if !strings.HasPrefix(r.Pattern, "/") {
			return fmt.Errorf("guard pattern '%s' must start with /", r.Pattern)
		}
	}
	return nil
}

func (c *Config) Release() bool {
	return c.HTTP.Mode == gin.ReleaseMode
}

func (c *Config) SecureCookie() bool {
	return c.Release() || c.Session.SecureCookie
}

func setString(field *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*field = v
	}
}

func setInt(field *int, key string) error {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a number", key)
		}
		*field = n
	}
	return nil
}

func setDuration(field *time.Duration, key string) error {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a duration", key)
		}
		*field = d
	}
	return nil
}

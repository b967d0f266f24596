package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"market-cutover/pkg/db"
)

// Config is the controller configuration, read from the environment (and .env if present).
type Config struct {
	ListenAddr string
	AuthToken  string
	JWTSecret  string
	TLSCert    string
	TLSKey     string
	ClientCA   string

	Store        string // memory|sqlite|consul|mysql
	SQLitePath   string
	ConsulAddr   string
	ConsulPrefix string
	MySQL        db.MySQLConfig

	LegacySource   string // file|mysql
	LegacyFile     string
	LegacyMySQLDSN string
	CatalogFile    string

	// AdminKey gates snapshot restore/delete; MasterKey gates permanent legacy deletion.
	AdminKey  string
	MasterKey string

	ActivationThreshold int
	StepDelay           time.Duration

	LogLevel  string
	LogFormat string // json|console
}

// Load reads .env (when present in the working directory) and the process environment.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	threshold, err := strconv.Atoi(getenv("ACTIVATION_THRESHOLD", "70"))
	if err != nil {
		return Config{}, fmt.Errorf("ACTIVATION_THRESHOLD: %w", err)
	}
	delay, err := time.ParseDuration(getenv("STEP_DELAY", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("STEP_DELAY: %w", err)
	}
	return Config{
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		AuthToken:    os.Getenv("AUTH_TOKEN"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TLSCert:      os.Getenv("TLS_CERT"),
		TLSKey:       os.Getenv("TLS_KEY"),
		ClientCA:     os.Getenv("CLIENT_CA"),
		Store:        getenv("STORE", "memory"),
		SQLitePath:   getenv("SQLITE_PATH", "/var/lib/market-cutover/state.db"),
		ConsulAddr:   getenv("CONSUL_ADDR", "127.0.0.1:8500"),
		ConsulPrefix: getenv("CONSUL_PREFIX", "market-cutover"),
		MySQL: db.MySQLConfig{
			DSN:  os.Getenv("MYSQL_DSN"),
			Host: getenv("MYSQL_HOST", "127.0.0.1"),
			Port: getenv("MYSQL_PORT", "3306"),
			User: getenv("MYSQL_USER", "root"),
			Pass: getenv("MYSQL_PASS", ""),
			Name: getenv("MYSQL_DB", "market_cutover"),
		},
		LegacySource:        getenv("LEGACY_SOURCE", "file"),
		LegacyFile:          getenv("LEGACY_FILE", "legacy.yaml"),
		LegacyMySQLDSN:      os.Getenv("LEGACY_MYSQL_DSN"),
		CatalogFile:         os.Getenv("CATALOG_FILE"),
		AdminKey:            os.Getenv("ADMIN_KEY"),
		MasterKey:           os.Getenv("MASTER_KEY"),
		ActivationThreshold: threshold,
		StepDelay:           delay,
		LogLevel:            getenv("LOG_LEVEL", "info"),
		LogFormat:           getenv("LOG_FORMAT", "json"),
	}, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var result *multierror.Error
	switch c.Store {
	case "memory", "sqlite", "consul", "mysql":
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported store %q (memory|sqlite|consul|mysql)", c.Store))
	}
	switch c.LegacySource {
	case "file":
		if c.LegacyFile == "" {
			result = multierror.Append(result, fmt.Errorf("LEGACY_FILE is required for legacy source file"))
		}
	case "mysql":
		if c.LegacyMySQLDSN == "" {
			result = multierror.Append(result, fmt.Errorf("LEGACY_MYSQL_DSN is required for legacy source mysql"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported legacy source %q (file|mysql)", c.LegacySource))
	}
	if c.AdminKey == "" {
		result = multierror.Append(result, fmt.Errorf("ADMIN_KEY is required"))
	}
	if c.MasterKey == "" {
		result = multierror.Append(result, fmt.Errorf("MASTER_KEY is required"))
	}
	if c.AdminKey != "" && c.AdminKey == c.MasterKey {
		result = multierror.Append(result, fmt.Errorf("ADMIN_KEY and MASTER_KEY must differ"))
	}
	// zero would read as "use the default" downstream
	if c.ActivationThreshold < 1 || c.ActivationThreshold > 100 {
		result = multierror.Append(result, fmt.Errorf("ACTIVATION_THRESHOLD must be within 1..100, got %d", c.ActivationThreshold))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		result = multierror.Append(result, fmt.Errorf("TLS_CERT and TLS_KEY must be set together"))
	}
	if c.ClientCA != "" && c.TLSCert == "" {
		result = multierror.Append(result, fmt.Errorf("CLIENT_CA requires TLS_CERT and TLS_KEY"))
	}
	if c.StepDelay < 0 {
		result = multierror.Append(result, fmt.Errorf("STEP_DELAY must not be negative"))
	}
	return result.ErrorOrNil()
}

// NewLogger builds the process logger from LOG_LEVEL / LOG_FORMAT.
func (c Config) NewLogger() (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(c.LogFormat, "console") {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

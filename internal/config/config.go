// Package config reads the service configuration from the environment. Values from a .env file
// in the working directory are loaded first but never override variables that are already set.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds everything the binaries need to start.
type Config struct {
	Port        int
	DBDriver    string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBName      string
	DBDSN       string
	AutoMigrate bool
	GinMode     string
	GinLogging  bool
	LogMode     string
	CORSOrigins []string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from the given lookup function, which has the signature
// of os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("could not parse PORT env variable %q", get("PORT", ""))
	}

	driver := strings.ToLower(get("DB_DRIVER", DriverMySQL))
	if driver != DriverMySQL && driver != DriverSQLite {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	cfg := Config{
		Port:        port,
		DBDriver:    driver,
		DBUser:      get("DBUSER", ""),
		DBPassword:  get("DBPWD", ""),
		DBHost:      get("DBHOST", "localhost:3306"),
		DBName:      get("DBNAME", "test"),
		DBDSN:       get("DB_DSN", ""),
		AutoMigrate: parseBool(get("DB_AUTOMIGRATE", "false")),
		GinMode:     get("GIN_MODE", "debug"),
		GinLogging:  !strings.EqualFold(get("GIN_LOGGING", "on"), "off"),
		LogMode:     get("LOG_MODE", "development"),
		CORSOrigins: splitList(get("CORS_ORIGINS", "http://localhost:5173")),
	}
	if cfg.DBDriver == DriverSQLite && cfg.DBDSN == "" {
		cfg.DBDSN = ":memory:"
	}
	return cfg, nil
}

// DSN returns the data source name for the configured driver. DB_DSN wins if it is set.
func (c Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", c.DBUser, c.DBPassword, c.DBHost, c.DBName)
}

// InMemory reports whether the database lives only as long as the process.
func (c Config) InMemory() bool {
	return c.DBDriver == DriverSQLite && strings.Contains(c.DSN(), ":memory:")
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

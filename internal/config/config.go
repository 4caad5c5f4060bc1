// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Pipeline PipelineConfig
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// PipelineConfig holds the folder layout and load settings for the
// dispatch/load pipeline.
type PipelineConfig struct {
	// RootFolder is the absolute path of the shared drop folder (required)
	RootFolder string `env:"INGEST_ROOT" required:"true"`

	// InvalidFolder is the dispatcher quarantine, relative to RootFolder
	// unless absolute (default: _InvalidFiles)
	InvalidFolder string `env:"INGEST_INVALID_FOLDER" default:"_InvalidFiles"`

	// ImportedFolder is the per-dataset success archive name (default: Imported)
	ImportedFolder string `env:"INGEST_IMPORTED_FOLDER" default:"Imported"`

	// ErrorFolder is the per-dataset failure quarantine name (default: Error)
	ErrorFolder string `env:"INGEST_ERROR_FOLDER" default:"Error"`

	// ReservedPrefix marks top-level folders that are never contracts (default: _)
	ReservedPrefix string `env:"INGEST_RESERVED_PREFIX" default:"_"`

	// BatchSize is the number of rows to insert per statement (default: 1000)
	BatchSize int `env:"INGEST_BATCH_SIZE" default:"1000"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Required by load/serve;
	// dispatch-only runs never open a connection, so it is validated by
	// the commands that need it rather than at load time.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ServerConfig holds HTTP trigger server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// RequestTimeout is the middleware timeout for requests; a full pipeline
	// run happens inside one request, so this is generous (default: 30m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30m"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}

package config

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// ListenerConfig holds the network settings for the HTTP listener.
type ListenerConfig struct {
	Port              int
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the chat server.
type Config struct {
	// Journal
	JournalPath      string
	JournalQueueSize int
	// JournalSync fsyncs the journal after every record.
	JournalSync bool

	// ServerID seeds identifier generation. Empty uses the host name; a UUID
	// is used as-is; anything else is hashed.
	ServerID string

	Listener ListenerConfig

	// MaxBodySize bounds request bodies in bytes.
	MaxBodySize int64

	CORSEnabled bool
	CORSOrigins string

	// MetricsLabels is a comma-separated list of key=value constant labels.
	MetricsLabels string

	// DrainTimeout is the time in seconds allowed for in-flight requests and
	// queued journal records on shutdown.
	DrainTimeout int

	AccessLog bool
	LogLevel  string

	// Version is reported by the server-info route.
	Version string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		JournalPath:      "transaction.log",
		JournalQueueSize: 1024,
		Listener: ListenerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
		},
		MaxBodySize:  1 << 20,
		DrainTimeout: 30,
		AccessLog:    true,
		LogLevel:     "info",
		Version:      "dev",
	}
}

// ResolvedJournalPath returns the cleaned journal path, falling back to the
// default file name in the working directory.
func (c *Config) ResolvedJournalPath() string {
	if c == nil {
		return DefaultConfig().JournalPath
	}
	if p := strings.TrimSpace(c.JournalPath); p != "" {
		return filepath.Clean(p)
	}
	return DefaultConfig().JournalPath
}

// DrainDuration returns DrainTimeout as a duration.
func (c *Config) DrainDuration() time.Duration {
	if c == nil || c.DrainTimeout <= 0 {
		return time.Duration(DefaultConfig().DrainTimeout) * time.Second
	}
	return time.Duration(c.DrainTimeout) * time.Second
}

package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultRestURL             = "http://localhost:8080"
	DefaultWSURL               = "ws://localhost:8080/v0/ws"
	DefaultAPITimeout          = 30 * time.Second
	DefaultMaxRetries          = 3
	DefaultContextPollInterval = 500 * time.Millisecond
	DefaultHandshakeTimeout    = 10 * time.Second
	DefaultPingInterval        = 30 * time.Second
	DefaultPingTimeout         = 60 * time.Second
	DefaultWriteTimeout        = 5 * time.Second
	DefaultBufferSize          = 256
	DefaultQueueSize           = 1024
	DefaultLogLevel            = "info"
	tokenFile                  = "session.db"
)

// DefaultReconnectDelays is the backoff schedule; the last entry repeats.
var DefaultReconnectDelays = []time.Duration{
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Session defaults
	if c.Session.TokenPath == "" {
		c.Session.TokenPath = defaultTokenPath()
	}

	// Connection defaults
	if len(c.Connection.ReconnectDelays) == 0 {
		c.Connection.ReconnectDelays = append([]time.Duration(nil), DefaultReconnectDelays...)
	}
	if c.Connection.ContextPollInterval == 0 {
		c.Connection.ContextPollInterval = DefaultContextPollInterval
	}
	if c.Connection.HandshakeTimeout == 0 {
		c.Connection.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultBufferSize
	}

	// Engine defaults
	if c.Engine.QueueSize == 0 {
		c.Engine.QueueSize = DefaultQueueSize
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// defaultTokenPath places the token store in the user config directory,
// falling back to the working directory.
func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return tokenFile
	}
	return filepath.Join(dir, "syncclient", tokenFile)
}

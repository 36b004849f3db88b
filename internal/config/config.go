package config

import "time"

// Config is the root configuration for a sync client.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Session    SessionConfig    `yaml:"session"`
	Connection ConnectionConfig `yaml:"connection"`
	Engine     EngineConfig     `yaml:"engine"`
	Status     StatusConfig     `yaml:"status"`
	Log        LogConfig        `yaml:"log"`
}

// APIConfig holds REST and push endpoint settings.
type APIConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// SessionConfig holds where the session token is kept.
type SessionConfig struct {
	TokenPath string `yaml:"token_path"` // bbolt file
}

// ConnectionConfig holds push connection settings.
type ConnectionConfig struct {
	ReconnectDelays     []time.Duration `yaml:"reconnect_delays"`
	ContextPollInterval time.Duration   `yaml:"context_poll_interval"`
	HandshakeTimeout    time.Duration   `yaml:"handshake_timeout"`
	PingInterval        time.Duration   `yaml:"ping_interval"`
	PingTimeout         time.Duration   `yaml:"ping_timeout"`
	WriteTimeout        time.Duration   `yaml:"write_timeout"`
	BufferSize          int             `yaml:"buffer_size"`
}

// EngineConfig holds replica settings.
type EngineConfig struct {
	StrictMerge   bool   `yaml:"strict_merge"`  // panic on merges of unknown entities
	Notifications bool   `yaml:"notifications"` // desktop notifications for new messages
	IconDir       string `yaml:"icon_dir"`
	QueueSize     int    `yaml:"queue_size"`
}

// StatusConfig holds the local status endpoint. An empty Addr disables it.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

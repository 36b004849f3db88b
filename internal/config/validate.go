package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := validateURL("api.rest_url", c.API.RestURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("api.ws_url", c.API.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Session.TokenPath == "" {
		return errors.New("session.token_path is required")
	}

	if len(c.Connection.ReconnectDelays) == 0 {
		return errors.New("connection.reconnect_delays must not be empty")
	}
	for i, d := range c.Connection.ReconnectDelays {
		if d <= 0 {
			return fmt.Errorf("connection.reconnect_delays[%d] must be > 0, got %v", i, d)
		}
	}
	if c.Connection.ContextPollInterval <= 0 {
		return errors.New("connection.context_poll_interval must be > 0")
	}
	if c.Connection.PingTimeout <= c.Connection.PingInterval {
		return fmt.Errorf("connection.ping_timeout (%v) must exceed ping_interval (%v)",
			c.Connection.PingTimeout, c.Connection.PingInterval)
	}
	if c.Connection.BufferSize < 1 {
		return errors.New("connection.buffer_size must be >= 1")
	}

	if c.Engine.QueueSize < 1 {
		return errors.New("engine.queue_size must be >= 1")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level %q is invalid", l.Level)
	}
	return level, nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s must use one of %s, got %q", field, strings.Join(schemes, ", "), u.Scheme)
}

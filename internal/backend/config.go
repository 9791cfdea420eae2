package backend

import (
	"errors"
	"fmt"
	"strings"

	"finboard/internal/config"
)

// FromAppConfig picks the journal backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(strings.ToLower(strings.TrimSpace(appConfig.DataBackend)))
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type %q: must be one of %s",
			appConfig.DataBackend, strings.Join(BackendTypeNames(), ", "))
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate checks the settings the chosen backend needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type != SQLiteBackend {
		return nil
	}

	if c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	// Sync publishing is optional but must be fully addressed when enabled
	if c.SyncEnabled() && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP_URL is set")
	}
	return nil
}

// SyncEnabled reports whether recorded snapshots are announced over AMQP.
func (c Config) SyncEnabled() bool {
	return c.Type == SQLiteBackend && c.AMQPURL != ""
}

// BackendTypeNames lists the accepted DATA_BACKEND values.
func BackendTypeNames() []string {
	types := []BackendType{MemoryBackend, SQLiteBackend}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

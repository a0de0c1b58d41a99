// Package config holds the application configuration model and the
// configuration stores from which it can be loaded.
package config

import "time"

// Config defines the app config
type Config struct {
	Node    string        `json:"node" toml:"node"`
	Version string        `json:"version" toml:"version"`
	Request Request       `json:"request" toml:"request"`
	Log     Log           `json:"log" toml:"log"`
	Stats   Stats         `json:"stats" toml:"stats"`
	Disco   Disco         `json:"disco" toml:"disco"`
	App     interface{}   `json:"app" toml:"app"`
}

// Request defines the request default configuration
type Request struct {
	TimeoutMS time.Duration `json:"timeout_ms" toml:"timeout_ms"`
	// AllowContext accepts the context envelope sent by clients. When it is
	// off, inbound requests always start from a fresh context
	AllowContext bool `json:"allow_context" toml:"allow_context"`
	// TrustRetries keeps the retry budget sent by clients. When it is off,
	// the budget is stripped from the restored context, so a hop can never
	// forward an inherited count verbatim
	TrustRetries bool `json:"trust_retries" toml:"trust_retries"`
	// Panic lets a request handler panic crash the process instead of being
	// recovered and converted into an error
	Panic bool `json:"panic" toml:"panic"`
}

// Timeout returns the TimeoutMS field in time.Duration
func (r *Request) Timeout() time.Duration {
	return time.Millisecond * r.TimeoutMS
}

// Log contains all log-related configuration
type Log struct {
	Level     string        `json:"level" toml:"level"`
	Formatter AdapterConfig `json:"formatter" toml:"formatter"`
	Printer   AdapterConfig `json:"printer" toml:"printer"`
}

// Stats contains all stats-related configuration
type Stats struct {
	On      bool              `json:"on" toml:"on"`
	Adapter string            `json:"adapter" toml:"adapter"`
	Config  map[string]string `json:"config" toml:"config"`
}

// Disco contains all service-discovery-related configuration
type Disco struct {
	Adapter string            `json:"adapter" toml:"adapter"`
	Config  map[string]string `json:"config" toml:"config"`
	// DefaultTags are appended to the tags of every service registered
	// by this node
	DefaultTags []string `json:"default_tags" toml:"default_tags"`
}

// AdapterConfig is a generic config struct for adapters
type AdapterConfig struct {
	Adapter string            `json:"adapter" toml:"adapter"`
	Config  map[string]string `json:"config" toml:"config"`
}

// Store is an interface for config stores
type Store interface {
	Load(config interface{}) error
}

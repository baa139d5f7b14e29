// Package config loads the todoglass configuration file.
package config

// Config is the root configuration for todoglass.
type Config struct {
	Storage StorageConfig `json:"storage"`
	Gateway GatewayConfig `json:"gateway"`
	Events  EventsConfig  `json:"events"`
	Backup  BackupConfig  `json:"backup"`
}

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// StorageConfig selects where the task blob lives.
type StorageConfig struct {
	Driver  string `json:"driver"`            // "file" | "sqlite" | "memory"
	Path    string `json:"path"`              // directory (file) or database file (sqlite)
	Key     string `json:"key"`               // storage key of the task blob
	Encrypt bool   `json:"encrypt,omitempty"` // seal values with the age identity
	KeyFile string `json:"key_file,omitempty"`
}

// GatewayConfig holds the local HTTP gateway settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize  int    `json:"buffer_size"`
	ActivityLog string `json:"activity_log,omitempty"` // JSONL path; empty disables the log
}

// BackupConfig configures blob snapshots.
type BackupConfig struct {
	Dir  string `json:"dir"`
	Cron string `json:"cron,omitempty"` // schedule used while the gateway runs; empty disables
	Keep int    `json:"keep"`
}

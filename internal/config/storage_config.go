package config

// StorageConfig defines configuration for the local SQLite store
type StorageConfig struct {
	SQLitePath      string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" validate:"sqlitepath"`
	ScanResultsSize int    `json:"scan_results_size,omitempty" yaml:"scan_results_size,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SQLitePath:      DefaultSQLitePath,
		ScanResultsSize: DefaultScanResultsSize,
	}
}

// ServerConfig defines the local HTTP API the CLI talks to
type ServerConfig struct {
	ListenAddr          string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" validate:"omitempty,hostname_port"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds,omitempty" yaml:"read_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds,omitempty" yaml:"write_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	EnableMetrics       bool   `json:"enable_metrics" yaml:"enable_metrics"`
}

// NewDefaultServerConfig creates default server configuration
func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:          DefaultListenAddr,
		ReadTimeoutSeconds:  DefaultReadTimeoutSeconds,
		WriteTimeoutSeconds: DefaultWriteTimeoutSeconds,
		EnableMetrics:       true,
	}
}

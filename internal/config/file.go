package config

import "time"

// File is the structure of the YAML configuration file. Keys left out of
// the file keep their defaults.
//
//	host: clamav.internal
//	port: 3310
//	connection_timeout: 5s
//	scan_timeout: 30s
//	worker_pool_size: 4
//	shutdown_grace: 5s
//	proxy:
//	  address: 127.0.0.1:1080
//	directory: /srv/uploads
//	deep: 3
//	hash_algorithm: SHA-256
type File struct {
	Host              string        `yaml:"host,omitempty"`
	Port              int           `yaml:"port,omitempty"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout,omitempty"`
	ScanTimeout       time.Duration `yaml:"scan_timeout,omitempty"`
	WorkerPoolSize    int           `yaml:"worker_pool_size,omitempty"`

	// ShutdownGrace is a pointer because zero is a meaningful value.
	ShutdownGrace *time.Duration `yaml:"shutdown_grace,omitempty"`

	Proxy ProxyFile `yaml:"proxy,omitempty"`

	Directory string `yaml:"directory,omitempty"`

	// Deep is a pointer because zero is a meaningful value.
	Deep *int `yaml:"deep,omitempty"`

	HashAlgorithm string `yaml:"hash_algorithm,omitempty"`
}

// ProxyFile configures the optional SOCKS5 hop.
type ProxyFile struct {
	Address  string `yaml:"address,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

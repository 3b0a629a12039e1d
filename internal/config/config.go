// Package config is the store manager's configuration, loaded from config.yaml and STORE_* variables.
package config

import (
	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/abgdnv/storemanager/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Storage    config.StorageConfig    `koanf:"storage"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Metrics    config.MetricsConfig    `koanf:"metrics"`
	Events     config.EventsConfig     `koanf:"events"`
}

// sections lists the active blocks. The database block only counts for the postgres driver.
func (c *Config) sections() []config.Section {
	s := []config.Section{&c.HTTPServer, &c.Storage}
	if c.Storage.Driver == config.StorageDriverPostgres {
		s = append(s, &c.Database)
	}
	return append(s, &c.GRPC, &c.Log, &c.PProf, &c.Telemetry, &c.Metrics, &c.Events, &c.Shutdown)
}

func (c *Config) String() string {
	return config.Describe(c.sections()...)
}

// Validate reports every invalid section at once.
func (c *Config) Validate() error {
	return config.ValidateAll(c.sections()...)
}

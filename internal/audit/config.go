package audit

import (
	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/abgdnv/storemanager/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Config of the audit consumer. It shares config.yaml with the store manager and reads only events.nats.
type Config struct {
	Log    config.LogConfig   `koanf:"log"`
	PProf  config.PProfConfig `koanf:"pprof"`
	Events struct {
		Nats config.NATSConfig `koanf:"nats"`
	} `koanf:"events"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Config) sections() []config.Section {
	return []config.Section{&c.Events.Nats, &c.Subscriber, &c.Log, &c.PProf, &c.Telemetry, &c.Shutdown}
}

func (c *Config) String() string {
	return config.Describe(c.sections()...)
}

func (c *Config) Validate() error {
	return config.ValidateAll(c.sections()...)
}

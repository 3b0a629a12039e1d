package config

import (
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{}
	c.HTTPServer.Port = 8080
	c.HTTPServer.Timeout.Read = time.Second
	c.HTTPServer.Timeout.Write = time.Second
	c.HTTPServer.Timeout.Idle = time.Second
	c.HTTPServer.Timeout.ReadHeader = time.Second
	c.Storage.Driver = config.StorageDriverPostgres
	c.Database.URL = "postgres://store:secret@db:5432/store"
	c.Database.Timeout = 5 * time.Second
	c.Log.Level = "info"
	c.GRPC.Port = "9090"
	c.Shutdown.Timeout = 5 * time.Second
	c.Events.Broker = config.BrokerNone
	return c
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:   "memory storage needs no database",
			mutate: func(c *Config) { c.Storage.Driver = config.StorageDriverMemory; c.Database = config.DatabaseConfig{} },
		},
		{
			name:    "postgres storage needs a database url",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "database",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "sqlite" },
			wantErr: "unknown storage driver",
		},
		{
			name:    "missing shutdown timeout",
			mutate:  func(c *Config) { c.Shutdown.Timeout = 0 },
			wantErr: "shutdown timeout",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "unknown log level",
		},
		{
			name:    "nats broker without stream",
			mutate:  func(c *Config) { c.Events.Broker = config.BrokerNATS },
			wantErr: "events stream",
		},
		{
			name: "kafka broker",
			mutate: func(c *Config) {
				c.Events.Broker = config.BrokerKafka
				c.Events.Kafka = config.KafkaConfig{Brokers: []string{"kafka:9092"}, Topic: "sales", Timeout: time.Second}
				c.Events.CircuitBreaker = config.CircuitBreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Second}
			},
		},
		{
			name:    "metrics path",
			mutate:  func(c *Config) { c.Metrics = config.MetricsConfig{Enabled: true, Path: "metrics"} },
			wantErr: "metrics path",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), tc.wantErr)
		})
	}
}

func TestConfig_StringMasksCredentials(t *testing.T) {
	out := validConfig().String()
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "****@db:5432/store")
	assert.Contains(t, out, "--- Shutdown ---")
}

func TestConfig_ValidateReportsEverySection(t *testing.T) {
	c := validConfig()
	c.Shutdown.Timeout = 0
	c.Log.Level = "verbose"

	err := c.Validate()

	require.Error(t, err)
	msg := strings.ToLower(err.Error())
	assert.Contains(t, msg, "shutdown timeout")
	assert.Contains(t, msg, "unknown log level")
}

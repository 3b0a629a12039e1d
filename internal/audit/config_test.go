package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.Log.Level = "info"
		c.Events.Nats.Url = "nats://localhost:4222"
		c.Events.Nats.Timeout = time.Second
		c.Subscriber.Stream = "SALES"
		c.Subscriber.Subject = "sales.>"
		c.Subscriber.Consumer = "sales-audit"
		c.Subscriber.Batch = 10
		c.Subscriber.Timeout = time.Second
		c.Subscriber.Interval = time.Second
		c.Subscriber.Workers = 1
		c.Shutdown.Timeout = time.Second
		return c
	}
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing nats url", mutate: func(c *Config) { c.Events.Nats.Url = "" }, wantErr: true},
		{name: "missing consumer", mutate: func(c *Config) { c.Subscriber.Consumer = "" }, wantErr: true},
		{name: "zero batch", mutate: func(c *Config) { c.Subscriber.Batch = 0 }, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			c := valid()
			tc.mutate(c)

			// when
			err := c.Validate()

			// then
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, c.String(), "sales-audit")
		})
	}
}

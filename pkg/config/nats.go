package config

import (
	"fmt"
	"strings"
	"time"
)

type NATSConfig struct {
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// String masks credentials in the URL.
func (c *NATSConfig) String() string {
	return fmt.Sprintf("\n--- NATS ---\n  url: %s\n  timeout: %s\n", MaskURL(c.Url), c.Timeout)
}

func (c *NATSConfig) Validate() error {
	if c.Url == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if !strings.HasPrefix(c.Url, "nats://") && !strings.HasPrefix(c.Url, "tls://") {
		return fmt.Errorf("NATS URL must start with 'nats://' or 'tls://'")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("NATS dial timeout must be greater than zero")
	}
	return nil
}

// SubscriberConfig describes a durable JetStream pull consumer and its workers.
type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  stream: %s subject: %s consumer: %s\n", c.Stream, c.Subject, c.Consumer))
	b.WriteString(fmt.Sprintf("  batch: %d workers: %d\n", c.Batch, c.Workers))
	b.WriteString(fmt.Sprintf("  timeout: %s interval: %s\n", c.Timeout, c.Interval))
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	for key, value := range map[string]string{"stream": c.Stream, "subject": c.Subject, "consumer": c.Consumer} {
		if value == "" {
			return fmt.Errorf("subscriber %s is not configured", key)
		}
	}
	if c.Batch <= 0 || c.Workers <= 0 {
		return fmt.Errorf("subscriber batch and workers must be greater than zero")
	}
	if c.Timeout <= 0 || c.Interval <= 0 {
		return fmt.Errorf("subscriber timeout and interval must be greater than zero")
	}
	return nil
}

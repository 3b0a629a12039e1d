package config

import (
	"fmt"
	"strings"
	"time"
)

type KafkaConfig struct {
	Brokers []string      `koanf:"brokers"`
	Topic   string        `koanf:"topic"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the Kafka configuration.
func (c *KafkaConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Kafka ---\n")
	b.WriteString(fmt.Sprintf("  brokers: %s\n", strings.Join(c.Brokers, ",")))
	b.WriteString(fmt.Sprintf("  topic: %s\n", c.Topic))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are not configured")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka topic is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("kafka write timeout is not configured")
	}
	return nil
}

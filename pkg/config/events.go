package config

import (
	"fmt"
	"strings"
)

const (
	BrokerNone  = "none"
	BrokerNATS  = "nats"
	BrokerKafka = "kafka"
)

// EventsConfig selects where domain events are published.
type EventsConfig struct {
	Broker         string               `koanf:"broker"`
	Stream         string               `koanf:"stream"`
	Nats           NATSConfig           `koanf:"nats"`
	Kafka          KafkaConfig          `koanf:"kafka"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// String returns a string representation of the events configuration.
func (c *EventsConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Events ---\n")
	b.WriteString(fmt.Sprintf("  broker: %s\n", c.Broker))
	switch c.Broker {
	case BrokerNATS:
		b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
		b.WriteString(c.Nats.String())
	case BrokerKafka:
		b.WriteString(c.Kafka.String())
	}
	return b.String()
}

func (c *EventsConfig) Validate() error {
	switch c.Broker {
	case "", BrokerNone:
		return nil
	case BrokerNATS:
		if c.Stream == "" {
			return fmt.Errorf("events stream is not configured")
		}
		if err := c.Nats.Validate(); err != nil {
			return err
		}
	case BrokerKafka:
		if err := c.Kafka.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown events broker: %s", c.Broker)
	}
	return c.CircuitBreaker.Validate()
}

package config

import (
	"fmt"
	"strings"
)

// ValidationError collects every configuration problem found in one pass.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0])
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err)
	}
	return b.String()
}

func (c *Config) Validate() error {
	var errs []string

	if len(c.Kafka.Brokers) == 0 || strings.TrimSpace(c.Kafka.Brokers[0]) == "" {
		errs = append(errs, "kafka.brokers must not be empty")
	}
	if strings.TrimSpace(c.Kafka.Topic) == "" {
		errs = append(errs, "kafka.topic must not be empty")
	}
	if strings.TrimSpace(c.Kafka.DLTTopic) == "" {
		errs = append(errs, "kafka.dlt_topic must not be empty")
	}
	if c.Kafka.Topic != "" && c.Kafka.Topic == c.Kafka.DLTTopic {
		errs = append(errs, "kafka.dlt_topic must differ from kafka.topic")
	}
	switch strings.ToLower(c.Kafka.StartOffset) {
	case "earliest", "latest":
	default:
		errs = append(errs, fmt.Sprintf("kafka.start_offset must be earliest or latest, got %q", c.Kafka.StartOffset))
	}
	if c.Kafka.Partitions <= 0 {
		errs = append(errs, "kafka.partitions must be positive")
	}
	if c.Snapshot.TTL <= 0 {
		errs = append(errs, "snapshot.ttl must be positive")
	}
	if c.Consumer.Workers <= 0 {
		errs = append(errs, "consumer.workers must be positive")
	}
	if c.Consumer.LaneBuffer < 0 {
		errs = append(errs, "consumer.lane_buffer must not be negative")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	defaultTopicReplication = 1
	defaultDLTRetentionMs   = "1209600000" // 14d
)

type EnsureTopicsArgs struct {
	Brokers    []string
	Topic      string
	Partitions int
	DLTTopic   string
}

// EnsureTopics creates the shipments topic and its DLT when missing.
// Failures are logged; the broker may still auto-create on first write.
func EnsureTopics(ctx context.Context, a EnsureTopicsArgs, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(a.Brokers) == 0 {
		logger.Warn("no brokers configured, skipping topic bootstrap")
		return
	}
	broker := a.Brokers[0]

	if err := ensureTopic(ctx, broker, kafka.TopicConfig{
		Topic:             a.Topic,
		NumPartitions:     a.Partitions,
		ReplicationFactor: defaultTopicReplication,
	}); err != nil {
		logger.Warn("ensure topic failed", "topic", a.Topic, "error", err)
	} else {
		logger.Info("topic ensured", "topic", a.Topic, "partitions", a.Partitions)
	}

	if err := ensureTopic(ctx, broker, kafka.TopicConfig{
		Topic:             a.DLTTopic,
		NumPartitions:     1,
		ReplicationFactor: defaultTopicReplication,
		ConfigEntries: []kafka.ConfigEntry{
			{ConfigName: "cleanup.policy", ConfigValue: "delete"},
			{ConfigName: "retention.ms", ConfigValue: defaultDLTRetentionMs},
		},
	}); err != nil {
		logger.Warn("ensure dlt topic failed", "topic", a.DLTTopic, "error", err)
	} else {
		logger.Info("dlt topic ensured", "topic", a.DLTTopic, "retention_ms", defaultDLTRetentionMs)
	}
}

func ensureTopic(ctx context.Context, broker string, tc kafka.TopicConfig) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	ctrlAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrlConn, err := kafka.DialContext(ctx, "tcp", ctrlAddr)
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrlConn.Close()

	if err := ctrlConn.CreateTopics(tc); err != nil {
		if !strings.Contains(strings.ToLower(err.Error()), "exists") {
			return fmt.Errorf("create topic %s: %w", tc.Topic, err)
		}
	}
	return nil
}

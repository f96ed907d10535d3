package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/voltmatch/voltmatch/internal/config"
	"github.com/voltmatch/voltmatch/pkg/models"
)

// UserRecordMessage is the event emitted after every completed ranking
// request, successful or not. Downstream consumers append it to the
// segmentation training corpus.
type UserRecordMessage struct {
	EventID   uuid.UUID         `json:"event_id"`
	Record    models.UserRecord `json:"record"`
	Timestamp time.Time         `json:"timestamp"`
}

// MessageBus publishes user records to Kafka. A nil bus (or one built
// with kafka disabled) is safe to call and drops everything.
type MessageBus struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	if !cfg.Kafka.Enabled {
		logger.Info("Kafka publishing disabled")
		return &MessageBus{logger: logger}, nil
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka enabled but no brokers configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.UserRecords,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return &MessageBus{
		writer: writer,
		logger: logger,
	}, nil
}

func (mb *MessageBus) PublishUserRecord(ctx context.Context, record *models.UserRecord) error {
	if mb == nil || mb.writer == nil {
		return nil
	}

	message := UserRecordMessage{
		EventID:   uuid.New(),
		Record:    *record,
		Timestamp: time.Now(),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal user record message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(record.UserID),
		Value: messageBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(message.EventID.String())},
			{Key: "cluster_id", Value: []byte(fmt.Sprintf("%d", record.ClusterID))},
			{Key: "timestamp", Value: []byte(message.Timestamp.Format(time.RFC3339))},
		},
	}

	if err := mb.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		return fmt.Errorf("failed to publish user record: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"event_id": message.EventID,
		"user_id":  record.UserID,
	}).Debug("User record published")

	return nil
}

func (mb *MessageBus) Close() error {
	if mb == nil || mb.writer == nil {
		return nil
	}
	return mb.writer.Close()
}

package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"

	"github.com/banking/compliance-service/internal/config"
	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/pkg/logger"
)

// TransactionHandler receives decoded transactions from the stream.
type TransactionHandler interface {
	MonitorTransaction(tx *domain.Transaction) ([]domain.AMLAlert, error)
}

// Consumer reads transaction-created events from Kafka and feeds them
// to the monitor. Malformed messages are logged and skipped; offsets
// are only marked after the monitor has accepted the transaction.
type Consumer struct {
	group     sarama.ConsumerGroup
	topic     string
	handler   TransactionHandler
	publisher *AlertPublisher
	log       *logger.Logger
}

// NewConsumer creates a consumer group for the transaction topic.
func NewConsumer(cfg *config.KafkaConfig, handler TransactionHandler, publisher *AlertPublisher, log *logger.Logger) (*Consumer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaCfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:     group,
		topic:     cfg.TransactionTopic,
		handler:   handler,
		publisher: publisher,
		log:       log.Named("events_consumer"),
	}, nil
}

// Run consumes until the context is cancelled. Rebalances restart the
// claim loop, so Consume is called in a loop as sarama requires.
func (c *Consumer) Run(ctx context.Context) error {
	handler := &groupHandler{consumer: c}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close shuts down the consumer group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	consumer *Consumer
}

func (h *groupHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	c := h.consumer
	for msg := range claim.Messages() {
		tx, err := DecodeTransactionEvent(msg.Value)
		if err != nil {
			c.log.Warn("skipping undecodable transaction event",
				logger.ErrorField(err),
				logger.IntField("partition", int(msg.Partition)),
			)
			sess.MarkMessage(msg, "")
			continue
		}

		alerts, err := c.handler.MonitorTransaction(tx)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				c.log.Warn("rejected invalid transaction from stream",
					logger.StringField("field", verr.Field),
					logger.StringField("reason", verr.Reason),
				)
				sess.MarkMessage(msg, "")
				continue
			}
			return err
		}

		if c.publisher != nil {
			for i := range alerts {
				if err := c.publisher.Publish(&alerts[i]); err != nil {
					c.log.Error("failed to publish alert", logger.ErrorField(err))
				}
			}
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

// DecodeTransactionEvent unmarshals a transaction-created event and
// returns its payload.
func DecodeTransactionEvent(raw []byte) (*domain.Transaction, error) {
	var event domain.TransactionCreatedEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	if event.Transaction == nil {
		return nil, errors.New("transaction event has no payload")
	}
	return event.Transaction, nil
}

package events

import (
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/banking/compliance-service/internal/config"
	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/pkg/logger"
)

// AlertPublisher emits generated alerts to the alerts topic. Messages
// are keyed by user so one user's alerts stay ordered on a partition.
type AlertPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewAlertPublisher creates a synchronous alert producer.
func NewAlertPublisher(cfg *config.KafkaConfig, log *logger.Logger) (*AlertPublisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &AlertPublisher{
		producer: producer,
		topic:    cfg.AlertsTopic,
		log:      log.Named("alert_publisher"),
	}, nil
}

// Publish sends one alert to the alerts topic.
func (p *AlertPublisher) Publish(alert *domain.AMLAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(alert.UserID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return err
	}

	p.log.Debug("alert published",
		logger.StringField("alert_id", alert.ID.String()),
		logger.StringField("alert_type", string(alert.AlertType)),
	)
	return nil
}

// Close shuts down the producer.
func (p *AlertPublisher) Close() error {
	return p.producer.Close()
}

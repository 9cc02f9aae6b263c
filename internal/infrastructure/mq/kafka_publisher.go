package mq

import (
	"context"
	"encoding/json"
	"time"

	"pulse_chat_server/internal/config"
	"pulse_chat_server/internal/infrastructure/metrics"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type kafkaPublisher struct {
	writer *kafka.Writer
}

func newKafkaPublisher(cfg config.MQConfig) *kafkaPublisher {
	timeout := cfg.KafkaTimeout
	if timeout <= 0 {
		timeout = 1
	}
	zap.L().Info("kafka publisher ready", zap.String("addr", cfg.KafkaHostPort), zap.String("topic", cfg.KafkaTopic))
	return &kafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaHostPort),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           timeout * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}}
}

// Publish 以 routing key 作为消息 key，同类事件落在同一分区保持顺序
func (p *kafkaPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(routingKey),
		Value: body,
	})
	if err != nil {
		metrics.IncPublishError(DriverKafka)
	}
	return err
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

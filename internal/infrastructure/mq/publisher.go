// Package mq 向外部消息队列发布领域事件（message.sent、friend.request.sent、call.ended 等）
// 尽力投递：失败只记日志和计数，不影响产生事件的请求
package mq

import (
	"context"
	"time"

	"pulse_chat_server/internal/config"

	"go.uber.org/zap"
)

const (
	DriverNoop  = "noop"
	DriverKafka = "kafka"
	DriverAMQP  = "amqp"
)

// 路由键
const (
	EventMessageSent       = "message.sent"
	EventMessageDeleted    = "message.deleted"
	EventFriendRequestSent = "friend.request.sent"
	EventFriendAccepted    = "friend.request.accepted"
	EventCallEnded         = "call.ended"
)

// Publisher 领域事件发布接口
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Envelope 所有发布内容的外层包装
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func NewEnvelope(routingKey string, data any) Envelope {
	return Envelope{Type: routingKey, OccurredAt: time.Now().UTC(), Data: data}
}

// NewPublisher 按 cfg.Driver 创建发布者，初始化失败时退化为 noop，没有 broker 也能启动
func NewPublisher(cfg config.MQConfig) Publisher {
	switch cfg.Driver {
	case DriverKafka:
		if cfg.KafkaHostPort == "" {
			return newNoop("empty kafka hostPort")
		}
		return newKafkaPublisher(cfg)
	case DriverAMQP:
		return newAMQPPublisher(cfg.AmqpURL, cfg.AmqpExchange)
	case "", DriverNoop:
		return newNoop("disabled by config")
	default:
		zap.L().Warn("unknown mq driver, using noop", zap.String("driver", cfg.Driver))
		return newNoop("unknown driver " + cfg.Driver)
	}
}

// PublisherMode 返回发布者模式，用于日志
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *kafkaPublisher:
		return DriverKafka
	case *amqpPublisher:
		return DriverAMQP
	case noopPublisher:
		return DriverNoop
	default:
		return "unknown"
	}
}

type noopPublisher struct {
	reason string
}

func newNoop(reason string) noopPublisher {
	zap.L().Info("event publisher disabled, using noop", zap.String("reason", reason))
	return noopPublisher{reason: reason}
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	zap.L().Debug("noop publish", zap.String("routing_key", routingKey))
	return nil
}

func (noopPublisher) Close() error { return nil }

// PublishAsync 在独立协程中带超时发布，请求路径上使用
func PublishAsync(p Publisher, routingKey string, data any) {
	if p == nil {
		return
	}
	env := NewEnvelope(routingKey, data)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := p.Publish(ctx, routingKey, env); err != nil {
			zap.L().Warn("publish domain event failed",
				zap.String("routing_key", routingKey),
				zap.String("mode", PublisherMode(p)),
				zap.Error(err))
		}
	}()
}

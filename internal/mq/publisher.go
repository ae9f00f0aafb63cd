package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher 发布领域事件。调用方只记录发布失败，不因此中断业务。
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// RabbitPublisher 将事件以JSON发布到 topic 交换机，路由键为事件类型
type RabbitPublisher struct {
	cm     *ConnectionManager
	config *Config
	logger *zap.Logger

	mu sync.Mutex
	ch *amqp.Channel

	publishedCount int64
	failedCount    int64
}

// PublisherStats 发布统计
type PublisherStats struct {
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}

// NewRabbitPublisher 创建发布者
func NewRabbitPublisher(cm *ConnectionManager, config *Config, logger *zap.Logger) *RabbitPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &RabbitPublisher{
		cm:     cm,
		config: config,
		logger: logger,
	}
	cm.onReconnected = p.resetChannel
	return p
}

// Publish 发布事件，失败时按配置重试
func (p *RabbitPublisher) Publish(ctx context.Context, event Event) error {
	publishing, err := buildPublishing(event)
	if err != nil {
		return err
	}

	var lastErr error
	maxAttempts := p.config.MaxRetryAttempts + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := p.publishOnce(ctx, event.Type, publishing)
		if err == nil {
			atomic.AddInt64(&p.publishedCount, 1)
			return nil
		}

		lastErr = err
		p.logger.Warn("事件发布失败",
			zap.String("exchange", p.config.Exchange),
			zap.String("routing_key", event.Type),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))

		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(p.config.RetryInterval):
		case <-ctx.Done():
			atomic.AddInt64(&p.failedCount, 1)
			return ctx.Err()
		}
	}

	atomic.AddInt64(&p.failedCount, 1)
	return fmt.Errorf("publish %s after %d attempts: %w", event.Type, maxAttempts, lastErr)
}

func (p *RabbitPublisher) publishOnce(ctx context.Context, routingKey string, publishing amqp.Publishing) error {
	ch, err := p.channel()
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(publishCtx, p.config.Exchange, routingKey, false, false, publishing); err != nil {
		p.resetChannel()
		return err
	}
	return nil
}

// channel 复用同一个通道，首次打开时声明交换机
func (p *RabbitPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.cm.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.config.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.config.Exchange, err)
	}
	p.ch = ch
	return ch, nil
}

func (p *RabbitPublisher) resetChannel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

// Stats 获取发布统计
func (p *RabbitPublisher) Stats() PublisherStats {
	return PublisherStats{
		Published: atomic.LoadInt64(&p.publishedCount),
		Failed:    atomic.LoadInt64(&p.failedCount),
	}
}

// Ping 用于健康检查，连接不可用时返回错误
func (p *RabbitPublisher) Ping(ctx context.Context) error {
	if !p.cm.IsConnected() {
		return fmt.Errorf("rabbitmq %s after %d reconnect attempts", p.cm.GetState(), p.cm.ReconnectCount())
	}
	return nil
}

// Close 关闭通道与连接
func (p *RabbitPublisher) Close() error {
	p.resetChannel()
	return p.cm.Close()
}

// buildPublishing 构建持久化的JSON消息，消息ID即事件ID
func buildPublishing(event Event) (amqp.Publishing, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	return amqp.Publishing{
		Body:         body,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
	}, nil
}

// NopPublisher 未启用消息队列时使用，只记录调试日志
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher 创建空发布者
func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopPublisher{logger: logger}
}

func (n *NopPublisher) Publish(ctx context.Context, event Event) error {
	n.logger.Debug("event dropped, mq disabled",
		zap.String("type", event.Type),
		zap.String("aggregate_id", event.AggregateID))
	return nil
}

func (n *NopPublisher) Close() error { return nil }

// NewPublisher 按开关创建发布者：启用时连接 RabbitMQ，连接失败则返回错误
func NewPublisher(ctx context.Context, enabled bool, config *Config, logger *zap.Logger) (EventPublisher, error) {
	if !enabled {
		return NewNopPublisher(logger), nil
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mq config: %w", err)
	}

	cm := NewConnectionManager(config, logger)
	if err := cm.Connect(ctx); err != nil {
		return nil, err
	}
	return NewRabbitPublisher(cm, config, logger), nil
}

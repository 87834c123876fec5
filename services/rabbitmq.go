package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const activityExchange = "post_activity"

// RabbitMQ - брокер событий активности: exchange типа topic, ключ user.<owner_id>
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	log     *zap.Logger
}

// NewRabbitMQ подключается к брокеру и объявляет exchange
func NewRabbitMQ(url string, log *zap.Logger) (*RabbitMQ, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		activityExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	log.Info("RabbitMQ initialized", zap.String("exchange", activityExchange))
	return &RabbitMQ{conn: conn, channel: channel, log: log}, nil
}

func routingKey(ownerID int64) string {
	return fmt.Sprintf("user.%d", ownerID)
}

// PublishActivity публикует событие для автора поста
func (r *RabbitMQ) PublishActivity(ctx context.Context, event ActivityEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel.PublishWithContext(ctx,
		activityExchange,
		routingKey(event.OwnerID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// StartConsumer слушает события всех пользователей и отдает их в websocket-хаб до отмены ctx
func (r *RabbitMQ) StartConsumer(ctx context.Context, queueName string, hub *WSConnManager) error {
	q, err := r.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := r.channel.QueueBind(q.Name, "user.*", activityExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := r.channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					r.log.Warn("activity consumer channel closed")
					return
				}
				var event ActivityEvent
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					r.log.Error("failed to unmarshal activity event", zap.Error(err))
					continue
				}
				if err := hub.SendEvent(event); err != nil {
					r.log.Warn("failed to push activity event", zap.Error(err))
				}
			}
		}
	}()
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	return r.conn.Close()
}

package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"faves_sorter/internal/domain"
)

// RabbitMQ publishes favorite events to a durable direct exchange.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.Mutex
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// FavoriteMessage is the JSON body of every published event.
type FavoriteMessage struct {
	Action    string          `json:"action"` // "cached" or "filed"
	Favorite  domain.Favorite `json:"favorite"`
	Timestamp time.Time       `json:"timestamp"`
}

func (r *RabbitMQ) Publish(ctx context.Context, fav *domain.Favorite, action string) error {
	body, err := json.Marshal(FavoriteMessage{
		Action:    action,
		Favorite:  *fav,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	r.mu.Lock()
	err = r.channel.PublishWithContext(ctx, r.exchange, r.routingKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         action,
			MessageId:    fav.ID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published favorite",
		"remote_id", fav.RemoteID,
		"owner_id", fav.OwnerID,
		"action", action,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Noop discards events. It is used when rabbitmq.enabled is false.
type Noop struct{}

func (Noop) Publish(context.Context, *domain.Favorite, string) error { return nil }

func (Noop) Close() error { return nil }

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publisherAppID = "credit-engine"

// TaskPublisher enqueues named tasks as persistent JSON messages on a
// durable topic exchange; the routing key is the task name.
type TaskPublisher struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

type Publisher interface {
	Enqueue(ctx context.Context, taskName string, payload interface{}) error
}

func NewTaskPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (*TaskPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &TaskPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With("component", "TaskPublisher", "exchange", exchangeName),
	}, nil
}

func (p *TaskPublisher) Enqueue(ctx context.Context, taskName string, payload interface{}) error {
	logCtx := p.logger.With(slog.String("task", taskName))

	channel, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal task payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		taskName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         taskName,
			Body:         body,
			AppId:        publisherAppID,
		},
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish task to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish task: %w", err)
	}

	logCtx.InfoContext(ctx, "Task enqueued")
	return nil
}

package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TaskHandler executes one task delivery. A nil return acks the message. An
// error nacks it with requeue on the first failure, so transient errors get
// one redelivery; a failure on a redelivered message is dropped. Handlers
// must tolerate re-execution (ingestion inserts fail per row on duplicates
// and its aggregation pass is idempotent).
type TaskHandler func(ctx context.Context, body []byte) error

// Worker drains a durable task queue and dispatches deliveries to handlers
// registered per task name. Deliveries are prefetched one at a time, so a
// single worker processes tasks serially; mutual exclusion across multiple
// workers is not enforced.
type Worker struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queueName   string
	consumerTag string
	handlers    map[string]TaskHandler
	logger      *slog.Logger
	wg          *sync.WaitGroup
	cancelFunc  context.CancelFunc
}

func NewWorker(
	conn *amqp.Connection,
	exchangeName, queueName, consumerTag string,
	handlers map[string]TaskHandler,
	logger *slog.Logger,
) (*Worker, error) {
	if len(handlers) == 0 {
		return nil, fmt.Errorf("worker needs at least one task handler")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	logger.Info("Declaring exchange", "name", exchangeName, "type", amqp.ExchangeTopic)
	err = ch.ExchangeDeclare(exchangeName, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}

	logger.Info("Declaring queue", "name", queueName)
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}

	for taskName := range handlers {
		logger.Info("Binding queue", "queue", q.Name, "exchange", exchangeName, "task", taskName)
		if err := ch.QueueBind(q.Name, taskName, exchangeName, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to bind queue '%s' for task '%s': %w", q.Name, taskName, err)
		}
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Worker{
		conn:        conn,
		channel:     ch,
		queueName:   q.Name,
		consumerTag: consumerTag,
		handlers:    handlers,
		logger:      logger.With("component", "worker", "queue", q.Name),
		wg:          new(sync.WaitGroup),
	}, nil
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting task consumption...")
	deliveries, err := w.channel.Consume(
		w.queueName,
		w.consumerTag,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = w.channel.Close()
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.logger.Info("Worker goroutine started.")
		for {
			select {
			case <-loopCtx.Done():
				w.logger.Info("Worker context cancelled. Exiting consumption loop.")
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("RabbitMQ delivery channel closed unexpectedly.")
					return
				}
				w.dispatch(loopCtx, d)
			}
		}
	}()

	return nil
}

func (w *Worker) dispatch(ctx context.Context, d amqp.Delivery) {
	taskName := d.RoutingKey
	logCtx := w.logger.With(slog.String("task", taskName), slog.Uint64("delivery_tag", d.DeliveryTag))

	handler, ok := w.handlers[taskName]
	if !ok {
		logCtx.Error("No handler registered for task, discarding message")
		if err := d.Nack(false, false); err != nil {
			logCtx.Error("Failed to nack unknown task", slog.Any("error", err))
		}
		return
	}

	logCtx.InfoContext(ctx, "Executing task")
	if err := handler(ctx, d.Body); err != nil {
		// First failure goes back on the queue; a redelivered failure is
		// dropped so a poisoned message cannot spin the consumer.
		requeue := !d.Redelivered
		logCtx.ErrorContext(ctx, "Task handler failed", slog.Any("error", err), slog.Bool("requeue", requeue))
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			logCtx.Error("Failed to nack delivery", slog.Any("error", nackErr))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logCtx.Error("Failed to ack delivery", slog.Any("error", err))
		return
	}
	logCtx.InfoContext(ctx, "Task completed")
}

func (w *Worker) Stop() {
	if w.cancelFunc == nil {
		w.logger.Warn("Worker stop called but cancelFunc is nil (maybe never started?)")
		return
	}
	w.logger.Info("Stopping worker...")

	w.cancelFunc()

	if err := w.channel.Cancel(w.consumerTag, false); err != nil {
		w.logger.Warn("Failed to cancel consumer tag", "tag", w.consumerTag, "error", err)
	}

	w.logger.Info("Waiting for worker goroutine to exit...")
	w.wg.Wait()

	if err := w.channel.Close(); err != nil {
		w.logger.Error("Failed to close worker channel", "error", err)
	} else {
		w.logger.Info("Worker channel closed.")
	}
}

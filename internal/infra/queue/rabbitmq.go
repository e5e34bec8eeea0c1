package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tiktroq/internal/domain"
	"tiktroq/internal/infra/metrics"
)

const defaultPollInterval = time.Second

// RabbitReviewQueue реализует очередь модерации поверх AMQP.
type RabbitReviewQueue struct {
	conn         *amqp.Connection
	queue        string
	pollInterval time.Duration

	mu sync.Mutex
	ch *amqp.Channel
}

var _ domain.ReviewQueue = (*RabbitReviewQueue)(nil)

// NewRabbitReviewQueue подключается к брокеру и объявляет durable-очередь.
func NewRabbitReviewQueue(amqpURL, queue string) (*RabbitReviewQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	q := &RabbitReviewQueue{conn: conn, queue: queue, pollInterval: defaultPollInterval}
	ch, err := q.channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return q, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitReviewQueue) Enqueue(ctx context.Context, job domain.ReviewJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	ch, err := q.channel()
	if err != nil {
		return err
	}
	start := time.Now()
	err = ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.RequestedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		q.resetChannel()
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RabbitReviewQueue) Pop(ctx context.Context) (domain.ReviewJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ReviewJob{}, err
		}
		ch, err := q.channel()
		if err != nil {
			return domain.ReviewJob{}, err
		}
		start := time.Now()
		msg, ok, err := ch.Get(q.queue, true)
		metrics.ObserveNetworkRequest("rabbitmq", "get", q.queue, start, err)
		if err != nil {
			q.resetChannel()
			return domain.ReviewJob{}, fmt.Errorf("get message: %w", err)
		}
		if !ok {
			select {
			case <-ctx.Done():
				return domain.ReviewJob{}, ctx.Err()
			case <-time.After(q.pollInterval):
			}
			continue
		}
		return decodeJob(msg.Body)
	}
}

// Close закрывает канал и соединение.
func (q *RabbitReviewQueue) Close() error {
	q.resetChannel()
	return q.conn.Close()
}

func (q *RabbitReviewQueue) channel() (*amqp.Channel, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil && !q.ch.IsClosed() {
		return q.ch, nil
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q.ch = ch
	return ch, nil
}

func (q *RabbitReviewQueue) resetChannel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		_ = q.ch.Close()
		q.ch = nil
	}
}

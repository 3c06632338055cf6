package broker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type rabbitConsumer struct {
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

type rabbitBroker struct {
	conn   *amqp.Connection
	prefix string

	mu        sync.Mutex
	pub       *amqp.Channel
	consumers map[string]*rabbitConsumer
	declared  map[string]bool
}

// NewRabbitMQ returns a broker mapping each lane to a durable queue. Each
// lane consumer prefetches a single message.
func NewRabbitMQ(conn *amqp.Connection, prefix string) (Broker, error) {
	pub, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &rabbitBroker{
		conn:      conn,
		prefix:    prefix,
		pub:       pub,
		consumers: make(map[string]*rabbitConsumer),
		declared:  make(map[string]bool),
	}, nil
}

func (b *rabbitBroker) queue(lane string) string {
	return fmt.Sprintf("%s.%s", b.prefix, lane)
}

// declare must be called with mu held.
func (b *rabbitBroker) declare(ch *amqp.Channel, lane string) error {
	if b.declared[lane] {
		return nil
	}
	_, err := ch.QueueDeclare(
		b.queue(lane), // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	b.declared[lane] = true
	return nil
}

func (b *rabbitBroker) Publish(ctx context.Context, lane, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn.IsClosed() {
		return ErrClosed
	}
	if err := b.declare(b.pub, lane); err != nil {
		return err
	}
	err := b.pub.PublishWithContext(ctx,
		"",            // default exchange
		b.queue(lane), // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp.Persistent,
			Body:         []byte(id),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to lane %s: %w", lane, err)
	}
	return nil
}

func (b *rabbitBroker) consumer(lane string) (*rabbitConsumer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.consumers[lane]; ok {
		return c, nil
	}
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}
	if err := b.declare(ch, lane); err != nil {
		_ = ch.Close()
		return nil, err
	}
	deliveries, err := ch.Consume(
		b.queue(lane), // queue
		"",            // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	c := &rabbitConsumer{ch: ch, deliveries: deliveries}
	b.consumers[lane] = c
	return c, nil
}

func (b *rabbitBroker) Receive(ctx context.Context, lane string) (string, error) {
	c, err := b.consumer(lane)
	if err != nil {
		return "", err
	}
	select {
	case d, ok := <-c.deliveries:
		if !ok {
			return "", ErrClosed
		}
		if err := d.Ack(false); err != nil {
			return "", fmt.Errorf("failed to acknowledge delivery: %w", err)
		}
		return string(d.Body), nil
	case <-ctx.Done():
		return "", context.Cause(ctx)
	}
}

func (b *rabbitBroker) Len(ctx context.Context, lane string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Declaring is idempotent and reports the queue depth.
	q, err := b.pub.QueueDeclare(b.queue(lane), true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect lane %s: %w", lane, err)
	}
	b.declared[lane] = true
	return int64(q.Messages), nil
}

func (b *rabbitBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for lane, c := range b.consumers {
		_ = c.ch.Close()
		delete(b.consumers, lane)
	}
	if b.pub != nil {
		_ = b.pub.Close()
	}
	if b.conn.IsClosed() {
		return nil
	}
	if err := b.conn.Close(); err != nil {
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}
	return nil
}

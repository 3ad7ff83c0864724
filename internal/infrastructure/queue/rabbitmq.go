package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wesee/internal/config"
	"wesee/internal/domain/task"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var ErrDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// Decision tells the consumer how to settle a delivery.
type Decision int

const (
	Ack Decision = iota
	Requeue
	Reject
)

type Handler func(ctx context.Context, body []byte) Decision

// RoutingKey is the binding key for a task kind on the task exchange.
func RoutingKey(kind task.Kind) string {
	return "task." + string(kind)
}

type RabbitMQ struct {
	conn *amqp.Connection
	cfg  config.RabbitMQConfig
	log  zerolog.Logger

	pubMu sync.Mutex
	pubCh *amqp.Channel
}

func Dial(cfg config.RabbitMQConfig, l zerolog.Logger) (*RabbitMQ, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	l.Info().Str("exchange", cfg.Exchange).Msg("connected to rabbitmq")
	return &RabbitMQ{conn: conn, cfg: cfg, log: l}, nil
}

func (r *RabbitMQ) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	r.pubMu.Lock()
	if r.pubCh != nil {
		_ = r.pubCh.Close()
		r.pubCh = nil
	}
	r.pubMu.Unlock()
	return r.conn.Close()
}

// Queues maps each task kind to its queue name.
func (r *RabbitMQ) Queues() map[task.Kind]string {
	return map[task.Kind]string{
		task.KindScrape: r.cfg.ScrapeQueue,
		task.KindCV:     r.cfg.CVQueue,
	}
}

// DeclareTopology creates the durable direct exchange and one bound queue per task kind.
func (r *RabbitMQ) DeclareTopology() error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(r.cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", r.cfg.Exchange, err)
	}
	for kind, name := range r.Queues() {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
		if err := ch.QueueBind(name, RoutingKey(kind), r.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", name, err)
		}
	}
	return nil
}

func (r *RabbitMQ) publishChannel() (*amqp.Channel, error) {
	if r.pubCh != nil && !r.pubCh.IsClosed() {
		return r.pubCh, nil
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	r.pubCh = ch
	return ch, nil
}

// Publish sends a persistent JSON message and waits for the broker to confirm it.
func (r *RabbitMQ) Publish(ctx context.Context, exchange, routingKey, messageID string, body []byte) error {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	ch, err := r.publishChannel()
	if err != nil {
		return fmt.Errorf("open publish channel: %w", err)
	}

	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    messageID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: nacked by broker", routingKey)
	}
	return nil
}

// Consume blocks, feeding deliveries from queue to h until ctx is cancelled or the
// broker closes the channel.
func (r *RabbitMQ) Consume(ctx context.Context, queue string, prefetch int, h Handler) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	defer ch.Close()

	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	log := r.log.With().Str("queue", queue).Logger()
	log.Info().Int("prefetch", prefetch).Msg("consumer started")
	defer log.Info().Msg("consumer stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			settle(log, d, h(ctx, d.Body))
		}
	}
}

func settle(log zerolog.Logger, d amqp.Delivery, decision Decision) {
	var err error
	switch decision {
	case Requeue:
		err = d.Nack(false, true)
	case Reject:
		err = d.Nack(false, false)
	default:
		err = d.Ack(false)
	}
	if err != nil {
		log.Error().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("settle delivery")
	}
}

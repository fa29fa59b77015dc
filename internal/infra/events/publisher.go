// Package events публикует изменения слотов и бронирований в ленту изменений (RabbitMQ, topic exchange)
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

var (
	ErrConnect = errors.New("events.publisher: connect to broker")
	ErrPublish = errors.New("events.publisher: publish event")
)

// channel часть *amqp.Channel, нужная издателю
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher издатель событий изменения в RabbitMQ
// Ключ маршрутизации: <table>.<event_type>, например bookings.insert
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// NewPublisher подключается к брокеру и объявляет topic exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %v", ErrConnect, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: declare exchange: %v", ErrConnect, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// RoutingKey ключ маршрутизации события
func RoutingKey(ev domain.ChangeEvent) string {
	return ev.Table + "." + strings.ToLower(string(ev.EventType))
}

// Publish отправляет событие в exchange
func (p *Publisher) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPublish, err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.EventType),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, RoutingKey(ev), err)
	}

	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher издатель для запуска без брокера
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.ChangeEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

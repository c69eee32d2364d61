// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mszylkowski/reactionsbackend/models"
)

const (
	connectAttempts = 5
	connectBackoff  = 5 * time.Second
)

// Publisher announces accepted votes to downstream consumers
type Publisher interface {
	PublishVote(ctx context.Context, event models.VoteEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishVote(context.Context, models.VoteEvent) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

// channel is the subset of *amqp.Channel the publisher needs
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes vote events as JSON to a durable RabbitMQ queue
type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    channel
	queue string
	mu    sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Dial connects to RabbitMQ, retrying a few times while the broker starts,
// and declares the queue.
func Dial(url, queue string) (*AMQPPublisher, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if conn, err = amqp.Dial(url); err == nil {
			break
		}
		if attempt < connectAttempts {
			slog.Warn("failed to connect to RabbitMQ, retrying", "attempt", attempt, "error", err)
			time.Sleep(connectBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", connectAttempts, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	slog.Info("connected to RabbitMQ", "queue", queue)
	p := newAMQPPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, queue string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue}
}

func (p *AMQPPublisher) PublishVote(ctx context.Context, event models.VoteEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode vote event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.CastAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish vote event: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Connect returns an AMQP publisher when url is set and a NopPublisher
// otherwise.
func Connect(url, queue string) (Publisher, error) {
	if url == "" {
		slog.Info("vote events disabled")
		return NopPublisher{}, nil
	}
	p, err := Dial(url, queue)
	if err != nil {
		return nil, err
	}
	return p, nil
}

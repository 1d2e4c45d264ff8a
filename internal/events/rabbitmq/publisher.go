package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Owujuah/Finatera/internal/interfaces"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const DefaultExchange = "finatera.transfers"

const dialTimeout = 10 * time.Second

// channel is the subset of *amqp091.Channel used for publishing.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends events to a durable topic exchange, using the topic as routing key.
type Publisher struct {
	exchange string
	logger   *logrus.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel channel
	// reopen replaces a broken channel; nil disables the retry
	reopen func() (channel, error)
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// Dial connects to the broker and declares the exchange.
func Dial(amqpURL, exchange string, logger *logrus.Logger) (*Publisher, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, exchange, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	p.reopen = func() (channel, error) { return conn.Channel() }
	return p, nil
}

func newPublisher(ch channel, exchange string, logger *logrus.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := declare(ch, exchange); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{exchange: exchange, logger: logger, channel: ch}, nil
}

func declare(ch channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	)
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, topic, false, false, msg)
	if err == nil || p.reopen == nil {
		return err
	}

	// one retry on a fresh channel
	p.logger.WithError(err).WithFields(logrus.Fields{
		"exchange":    p.exchange,
		"routing_key": topic,
	}).Warn("publish failed, reopening channel")

	ch, chErr := p.reopen()
	if chErr != nil {
		return fmt.Errorf("reopen channel: %w", chErr)
	}
	p.channel.Close()
	p.channel = ch
	if err := declare(ch, p.exchange); err != nil {
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	return p.channel.PublishWithContext(ctx, p.exchange, topic, false, false, msg)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// Package rabbitmq publishes job lifecycle events to a topic exchange.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConnected is returned when publishing on a closed client
var ErrNotConnected = errors.New("not connected to RabbitMQ")

// Config holds RabbitMQ connection configuration
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	VHost              string
	ExchangeName       string
	ExchangeType       string
	ExchangeDurable    bool
	RoutingKeyPrefix   string
	RetryAttempts      int
	RetryInterval      time.Duration
	Heartbeat          time.Duration
	PublishRetries     int
	PublishRetryDelay  time.Duration
	PublishBackoffMult float64
}

// URL builds the AMQP connection string. An empty or "/" vhost selects the broker default.
func (c *Config) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	if vhost := strings.TrimPrefix(c.VHost, "/"); vhost != "" {
		u.Path = "/" + vhost
		u.RawPath = "/" + url.PathEscape(vhost)
	}
	return u.String()
}

// publisher is the part of *amqp.Channel the client needs
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Client represents a RabbitMQ event publisher
type Client struct {
	config *Config
	logger *slog.Logger

	mu          sync.Mutex
	conn        *amqp.Connection
	channel     publisher
	isConnected bool
}

// NewClient connects to RabbitMQ and declares the event exchange
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	client := &Client{
		config: config,
		logger: logger,
	}

	if err := client.connect(); err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ client: %w", err)
	}

	return client, nil
}

// newClientWithChannel builds a connected client around an existing channel
func newClientWithChannel(config *Config, logger *slog.Logger, ch publisher) *Client {
	return &Client{
		config:      config,
		logger:      logger,
		channel:     ch,
		isConnected: true,
	}
}

// connect establishes connection to RabbitMQ with retry logic
func (c *Client) connect() error {
	var (
		conn *amqp.Connection
		err  error
	)

	attempts := max(c.config.RetryAttempts, 1)
	amqpConfig := amqp.Config{
		Heartbeat: c.config.Heartbeat,
		Locale:    "en_US",
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		c.logger.Info("Connecting to RabbitMQ",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		conn, err = amqp.DialConfig(c.config.URL(), amqpConfig)
		if err == nil {
			break
		}

		c.logger.Error("Failed to connect to RabbitMQ",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)

		if attempt < attempts {
			time.Sleep(c.config.RetryInterval)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		c.config.ExchangeName,    // name
		c.config.ExchangeType,    // type
		c.config.ExchangeDurable, // durable
		false,                    // auto-deleted
		false,                    // internal
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.isConnected = true
	c.mu.Unlock()

	c.logger.Info("RabbitMQ client initialized",
		slog.String("exchange", c.config.ExchangeName),
	)
	return nil
}

// RoutingKey prefixes an event name with the configured prefix
func (c *Client) RoutingKey(event string) string {
	if c.config.RoutingKeyPrefix == "" {
		return event
	}
	return c.config.RoutingKeyPrefix + "." + event
}

// Publish sends a JSON event, retrying with exponential backoff until ctx ends
func (c *Client) Publish(ctx context.Context, event string, body []byte) error {
	c.mu.Lock()
	ch, connected := c.channel, c.isConnected
	c.mu.Unlock()
	if !connected || ch == nil {
		return ErrNotConnected
	}

	maxRetries := c.config.PublishRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	key := c.RoutingKey(event)
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := ch.PublishWithContext(
			ctx,
			c.config.ExchangeName, // exchange
			key,                   // routing key
			false,                 // mandatory
			false,                 // immediate
			msg,
		)
		if err == nil {
			c.logger.Debug("Event published to RabbitMQ",
				slog.String("routing_key", key),
				slog.Int("attempt", attempt+1),
				slog.Int("body_size", len(body)),
			)
			return nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		delay := c.backoff(attempt)
		c.logger.Warn("Failed to publish event to RabbitMQ, retrying...",
			slog.Int("attempt", attempt+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_after", delay),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to publish event %s: %w", key, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed to publish event %s after %d attempts: %w", key, maxRetries+1, lastErr)
}

// backoff is the delay before retry number attempt+1
func (c *Client) backoff(attempt int) time.Duration {
	base := c.config.PublishRetryDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	mult := c.config.PublishBackoffMult
	if mult <= 0 {
		mult = 2.0
	}

	delay := float64(base)
	for range attempt {
		delay *= mult
	}
	return time.Duration(delay)
}

// Close closes the RabbitMQ connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("Closing RabbitMQ connection")
	c.isConnected = false

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("Failed to close RabbitMQ channel",
				slog.Any("error", err),
			)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
		}
	}
	return nil
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isConnected {
		return false
	}
	return c.conn == nil || !c.conn.IsClosed()
}

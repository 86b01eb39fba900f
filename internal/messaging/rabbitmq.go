package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitMQClient maintains one connection and channel to the broker and
// redials when the connection drops.
type RabbitMQClient struct {
	config     *RabbitMQConfig
	logger     *zap.Logger
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	isClosing  bool
}

func NewRabbitMQClient(config *RabbitMQConfig, logger *zap.Logger) *RabbitMQClient {
	return &RabbitMQClient{
		config: config,
		logger: logger,
	}
}

func (r *RabbitMQClient) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for i := 0; i < r.config.RetryCount; i++ {
		r.connection, err = amqp.Dial(r.config.ConnectionURL())
		if err != nil {
			r.logger.Warn("rabbitmq connection failed",
				zap.Int("attempt", i+1),
				zap.Int("max_attempts", r.config.RetryCount),
				zap.Error(err))
			if i < r.config.RetryCount-1 {
				time.Sleep(r.config.RetryDelay)
				continue
			}
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}

		r.channel, err = r.connection.Channel()
		if err != nil {
			r.connection.Close()
			return fmt.Errorf("failed to open rabbitmq channel: %w", err)
		}

		err = r.channel.ExchangeDeclare(
			r.config.Exchange, // name
			"topic",           // type
			true,              // durable
			false,             // auto-deleted
			false,             // internal
			false,             // no-wait
			nil,               // arguments
		)
		if err != nil {
			r.channel.Close()
			r.connection.Close()
			return fmt.Errorf("failed to declare exchange: %w", err)
		}

		r.logger.Info("connected to rabbitmq", zap.String("host", r.config.Host))

		go r.handleReconnection()

		return nil
	}

	return err
}

func (r *RabbitMQClient) handleReconnection() {
	r.mu.RLock()
	connection := r.connection
	r.mu.RUnlock()

	notifyClose := make(chan *amqp.Error)
	connection.NotifyClose(notifyClose)

	err := <-notifyClose
	if err == nil || r.closing() {
		return
	}

	r.logger.Warn("rabbitmq connection lost, reconnecting", zap.Error(err))
	time.Sleep(time.Second * 2)
	if reconnectErr := r.Connect(); reconnectErr != nil {
		r.logger.Error("rabbitmq reconnect failed", zap.Error(reconnectErr))
	}
}

func (r *RabbitMQClient) closing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isClosing
}

func (r *RabbitMQClient) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isClosing {
		return nil
	}
	r.isClosing = true

	var closeErr error

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			closeErr = fmt.Errorf("channel close: %w", err)
		}
	}

	if r.connection != nil {
		if err := r.connection.Close(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; connection close: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("connection close: %w", err)
			}
		}
	}

	if closeErr == nil {
		r.logger.Info("rabbitmq connection closed")
	}

	return closeErr
}

func (r *RabbitMQClient) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.connection != nil && !r.connection.IsClosed()
}

package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
)

// Dead-letter headers added to parked messages.
const (
	HeaderOriginalTopic     = "original_topic"
	HeaderOriginalPartition = "original_partition"
	HeaderOriginalOffset    = "original_offset"
	HeaderErrorCode         = "error_code"
	HeaderErrorMessage      = "error_message"
	HeaderAttempts          = "attempts"
)

const resultAborted = "aborted"

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	AutoOffsetReset string
	Workers         int
	MinBytes        int
	MaxBytes        int
	MaxWait         time.Duration
	SessionTimeout  time.Duration
	Security        SecurityConfig
	RetryConfig     RetryConfig
}

// ConsumerConfigFromKafka derives the request consumer configuration from the
// service configuration.
func ConsumerConfigFromKafka(cfg config.KafkaConfig, workers int) ConsumerConfig {
	return ConsumerConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topics:   []string{cfg.RequestTopic},
		Workers:  workers,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		Security: securityFromKafka(cfg),
		RetryConfig: RetryConfig{
			MaxRetries:      cfg.MaxRetries,
			RetryBackoff:    cfg.RetryBackoff,
			DeadLetterTopic: cfg.DLQTopic,
		},
	}
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	MessagesConsumed     int64
	MessagesProcessed    int64
	MessagesRetried      int64
	MessagesDeadLettered int64
	MessagesDropped      int64
	Lag                  int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.ReaderStats
}

// Consumer reads messages from a consumer group and dispatches them to the
// handler registered for their topic.  Every fetched message is committed once
// it was handled, dead-lettered or dropped.
type Consumer struct {
	reader   ReaderInterface
	config   ConsumerConfig
	logger   logging.Logger
	dlq      Publisher
	observer MessageObserver

	handlers map[string]MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed     atomic.Int64
	processed    atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
	dropped      atomic.Int64
	lag          atomic.Int64

	sleep func(ctx context.Context, d time.Duration) error
}

// NewConsumer builds a consumer-group reader.  dlq receives messages that
// exhaust their retries; a nil dlq drops them after logging.
func NewConsumer(cfg ConsumerConfig, dlq Publisher, observer MessageObserver, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	tlsCfg, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}
	dialer.TLS = tlsCfg
	mech, err := cfg.Security.saslMechanism()
	if err != nil {
		return nil, err
	}
	dialer.SASLMechanism = mech

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		SessionTimeout: cfg.SessionTimeout,
		StartOffset:    kafka.FirstOffset,
		Dialer:         dialer,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	return newConsumerWithReader(kafka.NewReader(readerCfg), cfg, dlq, observer, logger), nil
}

func newConsumerWithReader(r ReaderInterface, cfg ConsumerConfig, dlq Publisher, observer MessageObserver, logger logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Consumer{
		reader:   r,
		config:   cfg.withDefaults(),
		logger:   logger.Named("kafka_consumer"),
		dlq:      dlq,
		observer: observer,
		handlers: make(map[string]MessageHandler),
		sleep:    sleepCtx,
	}
}

func (cfg ConsumerConfig) withDefaults() ConsumerConfig {
	if cfg.AutoOffsetReset == "" {
		cfg.AutoOffsetReset = "earliest"
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = time.Second
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.RetryConfig.RetryBackoff == 0 {
		cfg.RetryConfig.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.RetryConfig.MaxRetryBackoff == 0 {
		cfg.RetryConfig.MaxRetryBackoff = 30 * time.Second
	}
	return cfg
}

// Subscribe registers handler for topic, replacing any previous one.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start launches the configured number of consume loops and returns.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for i := 0; i < c.config.Workers; i++ {
		c.wg.Add(1)
		go c.consumeLoop(ctx)
	}
	c.logger.Info("Kafka consumer started",
		logging.String("group", c.config.GroupID),
		logging.Strings("topics", c.config.Topics),
		logging.Int("workers", c.config.Workers))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("FetchMessage failed", logging.Err(err))
			if c.sleep(ctx, time.Second) != nil {
				return
			}
			continue
		}
		c.consumed.Add(1)
		c.lag.Store(m.HighWaterMark - m.Offset - 1)

		msg := fromKafkaMessage(m)
		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
			c.dropped.Add(1)
		} else {
			start := time.Now()
			result := c.processMessage(ctx, msg, handler)
			if result == resultAborted {
				// Left uncommitted so the group redelivers it.
				c.logger.Info("Shutdown interrupted message", logging.String("topic", m.Topic), logging.Int64("offset", m.Offset))
				return
			}
			c.observer.RecordMessage(m.Topic, result, time.Since(start))
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

// processMessage runs handler with bounded retries and returns the result
// label.  Client errors are not retried.
func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) string {
	retry := c.config.RetryConfig
	backoff := retry.RetryBackoff
	attempts := 0

	var err error
	for {
		attempts++
		err = handler(ctx, msg)
		if err == nil {
			c.processed.Add(1)
			if attempts > 1 {
				return ResultRetry
			}
			return ResultOK
		}
		if ctx.Err() != nil {
			return resultAborted
		}
		if errors.IsClientError(errors.GetCode(err)) || attempts > retry.MaxRetries {
			break
		}

		c.retried.Add(1)
		c.logger.Warn("Message handler failed, retrying",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Int("attempt", attempts),
			logging.Duration("backoff", backoff),
			logging.Err(err))
		if c.sleep(ctx, backoff) != nil {
			return resultAborted
		}
		backoff *= 2
		if backoff > retry.MaxRetryBackoff {
			backoff = retry.MaxRetryBackoff
		}
	}

	c.logger.Error("Message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))
	return c.deadLetter(ctx, msg, err, attempts)
}

func (c *Consumer) deadLetter(ctx context.Context, msg *Message, cause error, attempts int) string {
	topic := c.config.RetryConfig.DeadLetterTopic
	if c.dlq == nil || topic == "" {
		c.dropped.Add(1)
		return ResultDropped
	}

	headers := make(map[string]string, len(msg.Headers)+6)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderOriginalPartition] = strconv.Itoa(msg.Partition)
	headers[HeaderOriginalOffset] = strconv.FormatInt(msg.Offset, 10)
	headers[HeaderErrorCode] = errors.GetCode(cause).String()
	headers[HeaderErrorMessage] = cause.Error()
	headers[HeaderAttempts] = strconv.Itoa(attempts)

	dlqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := c.dlq.Publish(dlqCtx, &ProducerMessage{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		c.logger.Error("Failed to send to dead letter queue",
			logging.String("topic", topic),
			logging.Err(err))
		c.dropped.Add(1)
		return ResultDropped
	}
	c.deadLettered.Add(1)
	return ResultDLQ
}

// Stats returns a snapshot of the consumer counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		MessagesConsumed:     c.consumed.Load(),
		MessagesProcessed:    c.processed.Load(),
		MessagesRetried:      c.retried.Load(),
		MessagesDeadLettered: c.deadLettered.Load(),
		MessagesDropped:      c.dropped.Load(),
		Lag:                  c.lag.Load(),
	}
}

// Close stops the consume loops, waits for in-flight messages and closes the
// reader.  It is idempotent.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	c.logger.Info("Kafka consumer closed",
		logging.Int64("consumed", c.consumed.Load()),
		logging.Int64("dead_lettered", c.deadLettered.Load()))
	return err
}

func fromKafkaMessage(m kafka.Message) *Message {
	msg := &Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "group id required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one topic required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.Newf(errors.ErrCodeInvalidConfig, "invalid auto offset reset %q", cfg.AutoOffsetReset)
	}
	if cfg.RetryConfig.MaxRetries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max retries must be >= 0")
	}
	return cfg.Security.validate()
}

//Personal.AI order the ending

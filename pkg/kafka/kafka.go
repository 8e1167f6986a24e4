package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

var (
	ErrConsumerGroupNotProvided = errors.New("consumer group id not provided")
	errBrokerNotProvided        = errors.New("kafka broker address not provided")
	errPublisherNotConfigured   = errors.New("can't publish message. Publisher not configured or topic is empty")
	errBatchSize                = errors.New("KAFKA_BATCH_SIZE must be greater than 0")
	errBatchBytes               = errors.New("KAFKA_BATCH_BYTES must be greater than 0")
	errBatchTimeout             = errors.New("KAFKA_BATCH_TIMEOUT must be greater than 0")
	errClientNotConnected       = errors.New("kafka client not connected")
)

const (
	DefaultBatchSize    = 100
	DefaultBatchBytes   = 1048576
	DefaultBatchTimeout = 1000
	defaultRetryTimeout = 10 * time.Second
)

type Config struct {
	Broker          string        `yaml:"broker"`
	Partition       int           `yaml:"partition"`
	ConsumerGroupID string        `yaml:"consumer_group_id"`
	OffSet          int           `yaml:"offset"`
	BatchSize       int           `yaml:"batch_size"`
	BatchBytes      int           `yaml:"batch_bytes"`
	BatchTimeout    int           `yaml:"batch_timeout"`
	RetryTimeout    time.Duration `yaml:"retry_timeout"`
	AutoCreateTopic bool          `yaml:"auto_create_topic"`
}

type KafkaClient interface {
	Publisher
	Subscriber

	CreateTopic(name string) error
	Close() error
}

type kafkaClient struct {
	dialer *kafka.Dialer
	conn   Connection

	writer Writer
	reader map[string]Reader

	mu *sync.RWMutex

	logger Logger
	config Config
}

// New validates conf and dials the broker. A failed dial still returns a client;
// it keeps reconnecting in the background and refuses work until it succeeds.
func New(conf *Config, logger Logger) KafkaClient {
	if err := validateConfigs(conf); err != nil {
		logger.Errorf("could not initialize kafka, error: %v", err)
		return nil
	}

	logger.Debugf("connecting to Kafka broker '%s'", conf.Broker)

	dialer, conn, writer, err := initializeKafkaClient(conf, logger)
	if err != nil {
		logger.Errorf("failed to connect to kafka at %v, error: %v", conf.Broker, err)

		client := &kafkaClient{
			logger: logger,
			config: *conf,
			reader: make(map[string]Reader),
			mu:     &sync.RWMutex{},
		}

		go retryConnect(client, conf, logger)

		return client
	}

	return &kafkaClient{
		config: *conf,
		dialer: dialer,
		reader: make(map[string]Reader),
		conn:   conn,
		logger: logger,
		writer: writer,
		mu:     &sync.RWMutex{},
	}
}

func validateConfigs(conf *Config) error {
	if conf.Broker == "" {
		return errBrokerNotProvided
	}

	if conf.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than 0: %w", errBatchSize)
	}

	if conf.BatchBytes <= 0 {
		return fmt.Errorf("batch bytes must be greater than 0: %w", errBatchBytes)
	}

	if conf.BatchTimeout <= 0 {
		return fmt.Errorf("batch timeout must be greater than 0: %w", errBatchTimeout)
	}

	return nil
}

func (k *kafkaClient) Publish(ctx context.Context, topic string, message []byte) error {
	ctx, span := otel.GetTracerProvider().Tracer("order-admin").Start(ctx, "kafka-publish")
	defer span.End()

	k.mu.RLock()
	writer := k.writer
	k.mu.RUnlock()

	if writer == nil || topic == "" {
		return errPublisherNotConfigured
	}

	start := time.Now()
	err := writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Value: message,
			Time:  time.Now(),
		},
	)
	end := time.Since(start)

	if err != nil {
		k.logger.Errorf("failed to publish message to kafka broker, error: %v", err)
		return err
	}

	k.logger.Debug(&Log{
		Mode:          "PUB",
		CorrelationID: span.SpanContext().TraceID().String(),
		MessageValue:  string(message),
		Topic:         topic,
		Host:          k.config.Broker,
		PubSubBackend: "KAFKA",
		Time:          end.Microseconds(),
	})

	return nil
}

func (k *kafkaClient) Subscribe(ctx context.Context, topic string) (*Message, error) {
	if !k.isConnected() {
		select {
		case <-ctx.Done():
		case <-time.After(defaultRetryTimeout):
		}

		return nil, errClientNotConnected
	}

	if k.config.ConsumerGroupID == "" {
		k.logger.Error("cannot subscribe as consumer_id is not provided in configs")

		return nil, ErrConsumerGroupNotProvided
	}

	ctx, span := otel.GetTracerProvider().Tracer("order-admin").Start(ctx, "kafka-subscribe")
	defer span.End()

	// one reader per topic, created on first use
	k.mu.Lock()
	reader, ok := k.reader[topic]
	if !ok {
		reader = k.getNewReader(topic)
		k.reader[topic] = reader
	}
	k.mu.Unlock()

	start := time.Now()

	msg, err := reader.FetchMessage(ctx)
	if err != nil {
		k.logger.Errorf("failed to read message from kafka topic %s: %v", topic, err)

		return nil, err
	}

	m := NewMessage(ctx)
	m.Value = msg.Value
	m.Topic = topic
	for _, h := range msg.Headers {
		m.Header[h.Key] = string(h.Value)
	}
	m.Committer = newKafkaMessage(&msg, reader, k.logger)

	k.logger.Debug(&Log{
		Mode:          "SUB",
		CorrelationID: span.SpanContext().TraceID().String(),
		MessageValue:  string(msg.Value),
		Topic:         topic,
		Host:          k.config.Broker,
		PubSubBackend: "KAFKA",
		Time:          time.Since(start).Microseconds(),
	})

	return m, nil
}

func (k *kafkaClient) Close() (err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, r := range k.reader {
		err = errors.Join(err, r.Close())
	}

	if k.writer != nil {
		err = errors.Join(err, k.writer.Close())
	}

	if k.conn != nil {
		err = errors.Join(err, k.conn.Close())
	}

	return err
}

func initializeKafkaClient(conf *Config, logger Logger) (*kafka.Dialer, Connection, Writer, error) {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	conn, err := dialer.DialContext(context.Background(), "tcp", conf.Broker)
	if err != nil {
		return nil, nil, nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(conf.Broker),
		BatchSize:    conf.BatchSize,
		BatchBytes:   int64(conf.BatchBytes),
		BatchTimeout: time.Duration(conf.BatchTimeout) * time.Millisecond,
		Balancer:     &kafka.LeastBytes{},
	}

	logger.Logf("connected to Kafka broker '%s'", conf.Broker)

	return dialer, conn, writer, nil
}

func (k *kafkaClient) getNewReader(topic string) Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		GroupID:     k.config.ConsumerGroupID,
		Brokers:     []string{k.config.Broker},
		Topic:       topic,
		MinBytes:    10e3,
		MaxBytes:    10e6,
		Dialer:      k.dialer,
		StartOffset: int64(k.config.OffSet),
	})
}

func (k *kafkaClient) CreateTopic(name string) error {
	if !k.isConnected() {
		return errClientNotConnected
	}
	return k.conn.CreateTopics(kafka.TopicConfig{Topic: name, NumPartitions: 1, ReplicationFactor: 1})
}

// retryConnect handles the retry mechanism for connecting to the Kafka broker.
func retryConnect(client *kafkaClient, conf *Config, logger Logger) {
	wait := conf.RetryTimeout
	if wait <= 0 {
		wait = defaultRetryTimeout
	}

	for {
		time.Sleep(wait)

		dialer, conn, writer, err := initializeKafkaClient(conf, logger)
		if err != nil {
			logger.Errorf("could not connect to Kafka at '%v', error: %v", conf.Broker, err)
			continue
		}

		client.mu.Lock()
		client.conn = conn
		client.dialer = dialer
		client.writer = writer
		client.mu.Unlock()

		return
	}
}

func (k *kafkaClient) isConnected() bool {
	k.mu.RLock()
	conn := k.conn
	k.mu.RUnlock()

	if conn == nil {
		return false
	}

	_, err := conn.Controller()

	return err == nil
}

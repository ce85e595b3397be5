package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

type Balancer func(topic string) sarama.Partitioner

var (
	RoundRobin Balancer = sarama.NewRoundRobinPartitioner
	Hash       Balancer = sarama.NewHashPartitioner
)

type RequiredAcks = sarama.RequiredAcks

const (
	NoResponse   RequiredAcks = sarama.NoResponse
	WaitForLocal RequiredAcks = sarama.WaitForLocal
	RequireAll   RequiredAcks = sarama.WaitForAll
)

type Producer interface {
	PushMessage(ctx context.Context, key, value []byte, topic string) (partition int32, offset int64, err error)
	Close() error
}

type ProducerOption func(*sarama.Config)

func WithBalancer(b Balancer) ProducerOption {
	return func(cfg *sarama.Config) {
		cfg.Producer.Partitioner = sarama.PartitionerConstructor(b)
	}
}

func WithRequiredAcks(acks RequiredAcks) ProducerOption {
	return func(cfg *sarama.Config) {
		cfg.Producer.RequiredAcks = acks
	}
}

type producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, opts ...ProducerOption) (Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	for _, opt := range opts {
		opt(cfg)
	}

	syncProducer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	return NewProducerFromSync(syncProducer), nil
}

// NewProducerFromSync wraps an already built sarama producer.
func NewProducerFromSync(syncProducer sarama.SyncProducer) Producer {
	return &producer{sync: syncProducer}
}

func (p *producer) PushMessage(ctx context.Context, key, value []byte, topic string) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to send message to %s: %w", topic, err)
	}

	return partition, offset, nil
}

func (p *producer) Close() error {
	return p.sync.Close()
}

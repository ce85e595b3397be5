package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greengate-back/internal/model"
	"greengate-back/internal/repository"
	"greengate-back/pkg/kafka"
)

const cleanupEvery = 60

type Repository interface {
	UpdateAsSent(ctx context.Context, ext repository.RepoExtension, messageID uuid.UUID) error
	SelectUnsentBatch(ctx context.Context, ext repository.RepoExtension, batchSize int) ([]model.OutboxMessage, error)
	DeleteSentBefore(ctx context.Context, ext repository.RepoExtension, before time.Time) (int64, error)
}

type Config struct {
	Name         string
	WorkerCount  int
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
}

// Publisher moves message events from the outbox table to kafka. Each polled batch
// is drained before the next poll so a row is never in flight twice.
type Publisher struct {
	l          *zap.Logger
	cfg        Config
	producer   kafka.Producer
	outboxRepo Repository
	now        func() time.Time
}

func NewPublisher(l *zap.Logger, cfg Config, producer kafka.Producer, outboxRepo Repository) *Publisher {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}

	return &Publisher{
		l:          l.With(zap.String("publisher", cfg.Name)),
		cfg:        cfg,
		producer:   producer,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.l.Info("Outbox publisher started", zap.Int("workers", p.cfg.WorkerCount))

	for tick := 1; ; tick++ {
		select {
		case <-ctx.Done():
			p.l.Info("Outbox publisher stopped")

			return
		case <-ticker.C:
			sent, err := p.PublishBatch(ctx)
			if err != nil {
				p.l.Error("Failed to publish outbox batch", zap.Error(err))
			} else if sent > 0 {
				p.l.Debug("Outbox batch published", zap.Int("sent", sent))
			}

			if tick%cleanupEvery == 0 {
				p.cleanup(ctx)
			}
		}
	}
}

// PublishBatch sends one batch of unsent rows and returns how many were marked as sent.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	messages, err := p.outboxRepo.SelectUnsentBatch(ctx, nil, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to select unsent messages: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	messagePipe := make(chan model.OutboxMessage, len(messages))
	for _, msg := range messages {
		messagePipe <- msg
	}
	close(messagePipe)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)

	for i := 0; i < p.cfg.WorkerCount && i < len(messages); i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			n := p.worker(ctx, id, messagePipe)

			mu.Lock()
			sent += n
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	return sent, nil
}

func (p *Publisher) worker(ctx context.Context, id int, messagePipe <-chan model.OutboxMessage) int {
	sent := 0

	for msg := range messagePipe {
		if ctx.Err() != nil {
			return sent
		}

		partition, offset, err := p.sendAndMark(ctx, msg)
		if err != nil {
			p.l.Error("Failed to send message",
				zap.Int("worker", id),
				zap.String("message_id", msg.ID.String()),
				zap.Error(err),
			)

			continue
		}

		sent++

		p.l.Debug("Message sent",
			zap.Int("worker", id),
			zap.String("message_id", msg.ID.String()),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset),
		)
	}

	return sent
}

func (p *Publisher) sendAndMark(ctx context.Context, message model.OutboxMessage) (partition int32, offset int64, err error) {
	partition, offset, err = p.producer.PushMessage(ctx, []byte(message.ID.String()), message.Payload, message.Topic)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to push message: %w", err)
	}

	if err := p.outboxRepo.UpdateAsSent(ctx, nil, message.ID); err != nil {
		return 0, 0, fmt.Errorf("failed to update as sent: %w", err)
	}

	return partition, offset, nil
}

func (p *Publisher) cleanup(ctx context.Context) {
	if p.cfg.Retention <= 0 {
		return
	}

	deleted, err := p.outboxRepo.DeleteSentBefore(ctx, nil, p.now().Add(-p.cfg.Retention))
	if err != nil {
		p.l.Warn("Failed to clean up sent outbox messages", zap.Error(err))
		return
	}

	if deleted > 0 {
		p.l.Info("Sent outbox messages cleaned up", zap.Int64("deleted", deleted))
	}
}

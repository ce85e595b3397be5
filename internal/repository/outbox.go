package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"greengate-back/internal/model"
)

type OutboxRepository struct {
	db *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{
		db: db,
	}
}

func (r *OutboxRepository) InsertMessage(ctx context.Context, ext RepoExtension, message model.OutboxMessage) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO whatsapp.outbox_messages (id, topic, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING;
	`

	_, err := ext.Exec(ctx, query, message.ID, message.Topic, message.Payload)

	return err
}

func (r *OutboxRepository) UpdateAsSent(ctx context.Context, ext RepoExtension, messageID uuid.UUID) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE whatsapp.outbox_messages
		SET sent = true, sent_at = NOW()
		WHERE id = $1;
	`

	_, err := ext.Exec(ctx, query, messageID)

	return err
}

// SelectUnsentBatch returns the oldest unsent rows first so events reach the topic in creation order.
func (r *OutboxRepository) SelectUnsentBatch(ctx context.Context, ext RepoExtension, batchSize int) ([]model.OutboxMessage, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, topic, payload, created_at, sent, sent_at
		FROM whatsapp.outbox_messages
		WHERE sent = false
		ORDER BY created_at, id
		LIMIT $1;
	`

	rows, err := ext.Query(ctx, query, batchSize)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	messages := make([]model.OutboxMessage, 0, batchSize)

	for rows.Next() {
		var message model.OutboxMessage
		if err := rows.Scan(
			&message.ID,
			&message.Topic,
			&message.Payload,
			&message.CreatedAt,
			&message.Sent,
			&message.SentAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *OutboxRepository) DeleteSentBefore(ctx context.Context, ext RepoExtension, before time.Time) (int64, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		DELETE FROM whatsapp.outbox_messages
		WHERE sent = true AND sent_at < $1;
	`

	tag, err := ext.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Pool() *pgxpool.Pool {
	return r.db
}

// InsertMessage fills ID, CreatedAt and UpdatedAt. A row with an already stored
// whatsapp_id is left untouched and reported as apperrors.ErrMessageAlreadyExists.
func (r *MessageRepository) InsertMessage(ctx context.Context, ext RepoExtension, message *model.Message) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO whatsapp.messages (whatsapp_id, to_number, from_number, template_name, direction, status, body, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (whatsapp_id) DO NOTHING
		RETURNING id, created_at, updated_at;
	`

	err := ext.QueryRow(ctx, query,
		message.WhatsAppID,
		message.ToNumber,
		message.FromNumber,
		message.TemplateName,
		message.Direction,
		message.Status,
		message.Body,
		message.Timestamp,
	).Scan(
		&message.ID,
		&message.CreatedAt,
		&message.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrMessageAlreadyExists
		}

		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.ErrMessageAlreadyExists
		}

		return err
	}

	return nil
}

func (r *MessageRepository) SelectMessageByWhatsAppID(ctx context.Context, ext RepoExtension, whatsappID string) (*model.Message, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, whatsapp_id, to_number, from_number, template_name, direction, status, body, timestamp, created_at, updated_at
		FROM whatsapp.messages
		WHERE whatsapp_id = $1;
	`

	message, err := scanMessage(ext.QueryRow(ctx, query, whatsappID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}

		return nil, err
	}

	return message, nil
}

func (r *MessageRepository) SelectMessageByID(ctx context.Context, ext RepoExtension, id int64) (*model.Message, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, whatsapp_id, to_number, from_number, template_name, direction, status, body, timestamp, created_at, updated_at
		FROM whatsapp.messages
		WHERE id = $1;
	`

	message, err := scanMessage(ext.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}

		return nil, err
	}

	return message, nil
}

func (r *MessageRepository) SelectMessages(ctx context.Context, ext RepoExtension, limit int) ([]model.Message, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, whatsapp_id, to_number, from_number, template_name, direction, status, body, timestamp, created_at, updated_at
		FROM whatsapp.messages
		ORDER BY timestamp DESC, id DESC
		LIMIT $1;
	`

	rows, err := ext.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	messages := make([]model.Message, 0, limit)

	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}

		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// UpdateStatusByWhatsAppID applies the status verbatim; ordering of provider events is not checked.
func (r *MessageRepository) UpdateStatusByWhatsAppID(ctx context.Context, ext RepoExtension, whatsappID, status string) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE whatsapp.messages
		SET status = $2, updated_at = NOW()
		WHERE whatsapp_id = $1;
	`

	tag, err := ext.Exec(ctx, query, whatsappID, status)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}

	return nil
}

func (r *MessageRepository) DeleteMessage(ctx context.Context, ext RepoExtension, id int64) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		DELETE FROM whatsapp.messages
		WHERE id = $1;
	`

	tag, err := ext.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}

	return nil
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var (
		message model.Message
		body    *string
	)

	if err := row.Scan(
		&message.ID,
		&message.WhatsAppID,
		&message.ToNumber,
		&message.FromNumber,
		&message.TemplateName,
		&message.Direction,
		&message.Status,
		&body,
		&message.Timestamp,
		&message.CreatedAt,
		&message.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if body != nil {
		message.Body = *body
	}

	return &message, nil
}

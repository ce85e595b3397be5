package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"greengate-back/internal/apperrors"
)

type ConfigRepository struct {
	db *pgxpool.Pool
}

func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) SelectValue(ctx context.Context, ext RepoExtension, key string) (string, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT value FROM whatsapp.config
		WHERE key = $1;
	`

	var value string

	if err := ext.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrConfigKeyNotFound
		}

		return "", err
	}

	return value, nil
}

func (r *ConfigRepository) UpsertValue(ctx context.Context, ext RepoExtension, key, value string) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO whatsapp.config (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW();
	`

	_, err := ext.Exec(ctx, query, key, value)

	return err
}

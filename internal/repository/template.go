package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
)

const templateColumns = `id, name, language_code, category, meta_template_id, status, content_json, created_at, updated_at`

type TemplateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) InsertTemplate(ctx context.Context, ext RepoExtension, template *model.Template) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO whatsapp.templates (name, language_code, category, meta_template_id, status, content_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at;
	`

	err := ext.QueryRow(ctx, query,
		template.Name,
		template.LanguageCode,
		template.Category,
		template.MetaTemplateID,
		template.Status,
		template.ContentJSON,
	).Scan(
		&template.ID,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.ErrTemplateAlreadyExists
		}

		return err
	}

	return nil
}

// UpsertTemplateByName replaces every synced field of the template with the same name.
func (r *TemplateRepository) UpsertTemplateByName(ctx context.Context, ext RepoExtension, template *model.Template) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO whatsapp.templates (name, language_code, category, meta_template_id, status, content_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE
		SET language_code = EXCLUDED.language_code,
		    category = EXCLUDED.category,
		    meta_template_id = COALESCE(EXCLUDED.meta_template_id, whatsapp.templates.meta_template_id),
		    status = EXCLUDED.status,
		    content_json = EXCLUDED.content_json,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at;
	`

	return ext.QueryRow(ctx, query,
		template.Name,
		template.LanguageCode,
		template.Category,
		template.MetaTemplateID,
		template.Status,
		template.ContentJSON,
	).Scan(
		&template.ID,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
}

func (r *TemplateRepository) SelectTemplates(ctx context.Context, ext RepoExtension) ([]model.Template, error) {
	if ext == nil {
		ext = r.db
	}

	query := `SELECT ` + templateColumns + ` FROM whatsapp.templates ORDER BY created_at DESC, id DESC;`

	rows, err := ext.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	templates := make([]model.Template, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}

		templates = append(templates, *template)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *TemplateRepository) SelectTemplateByID(ctx context.Context, ext RepoExtension, id int64) (*model.Template, error) {
	if ext == nil {
		ext = r.db
	}

	query := `SELECT ` + templateColumns + ` FROM whatsapp.templates WHERE id = $1;`

	template, err := scanTemplate(ext.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTemplateNotFound
		}

		return nil, err
	}

	return template, nil
}

func (r *TemplateRepository) SelectTemplateByName(ctx context.Context, ext RepoExtension, name string) (*model.Template, error) {
	if ext == nil {
		ext = r.db
	}

	query := `SELECT ` + templateColumns + ` FROM whatsapp.templates WHERE name = $1;`

	template, err := scanTemplate(ext.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTemplateNotFound
		}

		return nil, err
	}

	return template, nil
}

func (r *TemplateRepository) UpdateTemplate(ctx context.Context, ext RepoExtension, id int64, update *model.TemplateUpdate) error {
	if ext == nil {
		ext = r.db
	}

	sets := make([]string, 0, 7)
	args := make([]any, 0, 7)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		add("name", *update.Name)
	}

	if update.LanguageCode != nil {
		add("language_code", *update.LanguageCode)
	}

	if update.Category != nil {
		add("category", *update.Category)
	}

	if update.MetaTemplateID != nil {
		add("meta_template_id", *update.MetaTemplateID)
	}

	if update.Status != nil {
		add("status", *update.Status)
	}

	if len(update.ContentJSON) > 0 {
		add("content_json", update.ContentJSON)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE whatsapp.templates SET %s WHERE id = $%d;`, strings.Join(sets, ", "), len(args))

	tag, err := ext.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.ErrTemplateAlreadyExists
		}

		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrTemplateNotFound
	}

	return nil
}

func (r *TemplateRepository) DeleteTemplate(ctx context.Context, ext RepoExtension, id int64) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		DELETE FROM whatsapp.templates
		WHERE id = $1;
	`

	tag, err := ext.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrTemplateNotFound
	}

	return nil
}

func scanTemplate(row pgx.Row) (*model.Template, error) {
	var (
		template model.Template
		content  []byte
	)

	if err := row.Scan(
		&template.ID,
		&template.Name,
		&template.LanguageCode,
		&template.Category,
		&template.MetaTemplateID,
		&template.Status,
		&content,
		&template.CreatedAt,
		&template.UpdatedAt,
	); err != nil {
		return nil, err
	}

	template.ContentJSON = content

	return &template, nil
}

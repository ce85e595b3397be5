package model

import (
	"encoding/json"
	"time"
)

const (
	DefaultTemplateLanguage = "en"
	DefaultTemplateCategory = "UTILITY"
	TemplateStatusPending   = "PENDING"
)

type Template struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	LanguageCode   string          `db:"language_code" json:"language_code"`
	Category       string          `db:"category" json:"category"`
	MetaTemplateID *string         `db:"meta_template_id" json:"meta_template_id"`
	Status         string          `db:"status" json:"status"`
	ContentJSON    json.RawMessage `db:"content_json" json:"content_json"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// TemplateUpdate is a partial update; nil fields are left untouched.
type TemplateUpdate struct {
	Name           *string         `json:"name"`
	LanguageCode   *string         `json:"language_code"`
	Category       *string         `json:"category"`
	MetaTemplateID *string         `json:"meta_template_id"`
	Status         *string         `json:"status"`
	ContentJSON    json.RawMessage `json:"content_json"`
}

func (u *TemplateUpdate) Empty() bool {
	return u.Name == nil &&
		u.LanguageCode == nil &&
		u.Category == nil &&
		u.MetaTemplateID == nil &&
		u.Status == nil &&
		len(u.ContentJSON) == 0
}

type TemplateIDPathParam struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type CreateTemplateRequest struct {
	Name         string            `json:"name" binding:"required"`
	LanguageCode string            `json:"language_code" binding:"required"`
	Category     string            `json:"category" binding:"required"`
	Components   []json.RawMessage `json:"components" binding:"required"`
}

type CreateTemplateResult struct {
	TemplateID   int64           `json:"template_id"`
	MetaTemplate json.RawMessage `json:"meta_template"`
}

type SyncTemplatesResult struct {
	SyncedCount int `json:"synced_count"`
	TotalCount  int `json:"total_count"`
}

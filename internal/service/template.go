package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"greengate-back/internal/model"
	"greengate-back/internal/repository"
	"greengate-back/pkg/whatsapp"
)

type TemplateRepository interface {
	InsertTemplate(ctx context.Context, ext repository.RepoExtension, template *model.Template) error
	UpsertTemplateByName(ctx context.Context, ext repository.RepoExtension, template *model.Template) error
	SelectTemplates(ctx context.Context, ext repository.RepoExtension) ([]model.Template, error)
	SelectTemplateByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.Template, error)
	UpdateTemplate(ctx context.Context, ext repository.RepoExtension, id int64, update *model.TemplateUpdate) error
	DeleteTemplate(ctx context.Context, ext repository.RepoExtension, id int64) error
}

type TemplateProvider interface {
	ListTemplates(ctx context.Context, creds whatsapp.Credentials) ([]whatsapp.RemoteTemplate, error)
	CreateTemplate(ctx context.Context, creds whatsapp.Credentials, tpl whatsapp.CreateTemplateRequest) (*whatsapp.CreateTemplateResponse, error)
	DeleteTemplate(ctx context.Context, creds whatsapp.Credentials, name string) error
}

type TemplateService struct {
	log          *zap.Logger
	templateRepo TemplateRepository
	creds        CredentialsProvider
	provider     TemplateProvider
}

func NewTemplateService(log *zap.Logger, templateRepo TemplateRepository, creds CredentialsProvider, provider TemplateProvider) *TemplateService {
	return &TemplateService{
		log:          log,
		templateRepo: templateRepo,
		creds:        creds,
		provider:     provider,
	}
}

func (s *TemplateService) ListTemplates(ctx context.Context) ([]model.Template, error) {
	templates, err := s.templateRepo.SelectTemplates(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to select templates: %w", err)
	}

	return templates, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, id int64) (*model.Template, error) {
	return s.templateRepo.SelectTemplateByID(ctx, nil, id)
}

// CreateTemplate submits the template for review first and stores it only when the provider accepted it.
func (s *TemplateService) CreateTemplate(ctx context.Context, req model.CreateTemplateRequest) (*model.CreateTemplateResult, error) {
	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	resp, err := s.provider.CreateTemplate(ctx, creds, whatsapp.CreateTemplateRequest{
		Name:       req.Name,
		Language:   req.LanguageCode,
		Category:   req.Category,
		Components: req.Components,
	})
	if err != nil {
		return nil, mapSendError(err)
	}

	status := resp.Status
	if status == "" {
		status = model.TemplateStatusPending
	}

	template := &model.Template{
		Name:         req.Name,
		LanguageCode: req.LanguageCode,
		Category:     req.Category,
		Status:       status,
		ContentJSON:  resp.Raw,
	}

	if resp.ID != "" {
		metaID := resp.ID
		template.MetaTemplateID = &metaID
	}

	if len(template.ContentJSON) == 0 {
		template.ContentJSON = json.RawMessage(`{}`)
	}

	if err := s.templateRepo.InsertTemplate(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("failed to insert template: %w", err)
	}

	s.log.Info("Template created", zap.Int64("id", template.ID), zap.String("name", template.Name))

	return &model.CreateTemplateResult{
		TemplateID:   template.ID,
		MetaTemplate: template.ContentJSON,
	}, nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, id int64, update *model.TemplateUpdate) error {
	return s.templateRepo.UpdateTemplate(ctx, nil, id, update)
}

// DeleteTemplate removes the template at the provider on a best-effort basis, then locally.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id int64) error {
	template, err := s.templateRepo.SelectTemplateByID(ctx, nil, id)
	if err != nil {
		return err
	}

	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		s.log.Warn("Skipping provider template delete", zap.String("name", template.Name), zap.Error(err))
	} else if err := s.provider.DeleteTemplate(ctx, creds, template.Name); err != nil {
		s.log.Warn("Provider template delete failed", zap.String("name", template.Name), zap.Error(err))
	}

	if err := s.templateRepo.DeleteTemplate(ctx, nil, id); err != nil {
		return err
	}

	s.log.Info("Template deleted", zap.Int64("id", id), zap.String("name", template.Name))

	return nil
}

// SyncTemplates pulls every provider template and upserts it by name. A failing
// template is logged and does not stop the rest.
func (s *TemplateService) SyncTemplates(ctx context.Context) (*model.SyncTemplatesResult, error) {
	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	remote, err := s.provider.ListTemplates(ctx, creds)
	if err != nil {
		return nil, mapSendError(err)
	}

	s.log.Info("Syncing templates", zap.Int("total", len(remote)))

	result := &model.SyncTemplatesResult{TotalCount: len(remote)}

	for _, rt := range remote {
		if rt.Name == "" {
			s.log.Warn("Skipping provider template without name", zap.String("meta_template_id", rt.ID))
			continue
		}

		template := fromRemoteTemplate(rt)

		if err := s.templateRepo.UpsertTemplateByName(ctx, nil, template); err != nil {
			s.log.Error("Failed to sync template", zap.String("name", rt.Name), zap.Error(err))
			continue
		}

		result.SyncedCount++
	}

	s.log.Info("Templates synced", zap.Int("synced", result.SyncedCount), zap.Int("total", result.TotalCount))

	return result, nil
}

func fromRemoteTemplate(rt whatsapp.RemoteTemplate) *model.Template {
	template := &model.Template{
		Name:         rt.Name,
		LanguageCode: rt.Language,
		Category:     rt.Category,
		Status:       rt.Status,
		ContentJSON:  rt.Raw,
	}

	if template.LanguageCode == "" {
		template.LanguageCode = model.DefaultTemplateLanguage
	}

	if template.Category == "" {
		template.Category = model.DefaultTemplateCategory
	}

	if template.Status == "" {
		template.Status = model.StatusUnknown
	}

	if rt.ID != "" {
		metaID := rt.ID
		template.MetaTemplateID = &metaID
	}

	if len(template.ContentJSON) == 0 {
		template.ContentJSON = json.RawMessage(`{}`)
	}

	return template
}

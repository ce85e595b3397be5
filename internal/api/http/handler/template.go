package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
)

type TemplateService interface {
	ListTemplates(ctx context.Context) ([]model.Template, error)
	GetTemplate(ctx context.Context, id int64) (*model.Template, error)
	CreateTemplate(ctx context.Context, req model.CreateTemplateRequest) (*model.CreateTemplateResult, error)
	UpdateTemplate(ctx context.Context, id int64, update *model.TemplateUpdate) error
	DeleteTemplate(ctx context.Context, id int64) error
	SyncTemplates(ctx context.Context) (*model.SyncTemplatesResult, error)
}

type TemplateHandler struct {
	log *zap.Logger
	svc TemplateService
}

func NewTemplateHandler(log *zap.Logger, svc TemplateService) *TemplateHandler {
	return &TemplateHandler{
		log: log,
		svc: svc,
	}
}

// ListTemplates
// @Summary List local templates.
// @Tags Templates
// @Produce json
// @Success 200 {object} ResponseWithData{data=[]model.Template} "Success"
// @Router /templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list templates", zap.Error(err))
		internalError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   templates,
	})
}

// GetTemplate
// @Summary Get one template.
// @Tags Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} ResponseWithData{data=model.Template} "Success"
// @Failure 404 {object} ResponseWithMessage "Template not found"
// @Router /templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	var uri model.TemplateIDPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, err)
		return
	}

	template, err := h.svc.GetTemplate(c.Request.Context(), uri.ID)
	if err != nil {
		h.templateError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   template,
	})
}

// CreateTemplate
// @Summary Create a template.
// @Description Submits the template to the provider for review and stores it locally.
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body model.CreateTemplateRequest true "Template"
// @Success 201 {object} ResponseWithData{data=model.CreateTemplateResult} "Created"
// @Failure 400 {object} ResponseWithMessage "Invalid JSON body"
// @Failure 409 {object} ResponseWithMessage "Template already exists"
// @Failure 502 {object} ResponseWithMessage "Provider rejected the template"
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req model.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrTemplateAlreadyExists) {
			c.JSON(http.StatusConflict, ResponseWithMessage{
				Status:  StatusErr,
				Message: err.Error(),
			})

			return
		}

		h.log.Error("Failed to create template", zap.String("name", req.Name), zap.Error(err))
		providerError(c, err)

		return
	}

	c.JSON(http.StatusCreated, ResponseWithData{
		Status: StatusSuccess,
		Data:   res,
	})
}

// UpdateTemplate
// @Summary Partially update a local template.
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param payload body model.TemplateUpdate true "Fields to change"
// @Success 200 {object} ResponseWithMessage "Updated"
// @Failure 400 {object} ResponseWithMessage "Nothing to update"
// @Failure 404 {object} ResponseWithMessage "Template not found"
// @Router /templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var uri model.TemplateIDPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, err)
		return
	}

	var update model.TemplateUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err)
		return
	}

	if update.Empty() {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusErr,
			Message: "no fields to update",
		})

		return
	}

	if err := h.svc.UpdateTemplate(c.Request.Context(), uri.ID, &update); err != nil {
		h.templateError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "template updated",
	})
}

// DeleteTemplate
// @Summary Delete a template.
// @Description Removes it at the provider when possible, then locally.
// @Tags Templates
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} ResponseWithMessage "Deleted"
// @Failure 404 {object} ResponseWithMessage "Template not found"
// @Router /templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	var uri model.TemplateIDPathParam
	if err := c.ShouldBindUri(&uri); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.DeleteTemplate(c.Request.Context(), uri.ID); err != nil {
		h.templateError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "template deleted",
	})
}

// SyncTemplates
// @Summary Pull templates from the provider.
// @Description Upserts every remote template by name.
// @Tags Templates
// @Produce json
// @Success 200 {object} ResponseWithData{data=model.SyncTemplatesResult} "Success"
// @Failure 502 {object} ResponseWithMessage "Provider request failed"
// @Router /templates/sync [post]
func (h *TemplateHandler) SyncTemplates(c *gin.Context) {
	res, err := h.svc.SyncTemplates(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to sync templates", zap.Error(err))
		providerError(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   res,
	})
}

func (h *TemplateHandler) templateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrTemplateNotFound):
		notFound(c, err)
	case errors.Is(err, apperrors.ErrTemplateAlreadyExists):
		c.JSON(http.StatusConflict, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})
	default:
		h.log.Error("Template operation failed", zap.Error(err))
		internalError(c, err)
	}
}

package apperrors

import (
	"errors"
)

var (
	ErrShutdown = errors.New("shutdown error")

	ErrVerifyTokenMismatch = errors.New("verification token mismatch")
	ErrInvalidVerifyMode   = errors.New("invalid mode")
	ErrInvalidPayload      = errors.New("invalid webhook payload")

	ErrMessageAlreadyExists = errors.New("message already exists")
	ErrMessageNotFound      = errors.New("message not found")

	ErrTemplateAlreadyExists = errors.New("template already exists")
	ErrTemplateNotFound      = errors.New("template not found")

	ErrConfigKeyNotFound     = errors.New("configuration key not found")
	ErrVerifyTokenNotSet     = errors.New("webhook verify token not configured")
	ErrWhatsAppNotConfigured = errors.New("whatsapp configuration not set")
)

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"greengate-back/internal/model"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
	healthDatabaseUp     = "up"
	healthDatabaseDown   = "down"
)

type HealthRepository interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	log        *zap.Logger
	healthRepo HealthRepository
	now        func() time.Time
}

func NewHealthService(log *zap.Logger, healthRepo HealthRepository) *HealthService {
	return &HealthService{
		log:        log,
		healthRepo: healthRepo,
		now:        time.Now,
	}
}

// Check never fails; a database outage is reported as degraded.
func (s *HealthService) Check(ctx context.Context) *model.HealthStatus {
	status := &model.HealthStatus{
		Status:    healthStatusOK,
		Database:  healthDatabaseUp,
		Timestamp: s.now().UTC(),
	}

	if err := s.healthRepo.Ping(ctx); err != nil {
		s.log.Warn("Database ping failed", zap.Error(err))

		status.Status = healthStatusDegraded
		status.Database = healthDatabaseDown
	}

	return status
}

package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/models"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/jobs"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditService records console intents in the background. Persistence is
// best effort: failures are retried by the queue and then logged.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditService builds the service and its worker queue.
func NewAuditService(repo auditRepository, workers int, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue[models.AuditLog]("audit", s.handle, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: 256,
		Logger:     logger,
	})
	return s
}

// Start launches the workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight writes; buffered entries are discarded.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues entry. It never blocks the caller on persistence.
func (s *AuditService) Record(entry models.AuditLog) {
	if s == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := s.queue.Enqueue(jobs.Job[models.AuditLog]{ID: entry.ID, Payload: entry}); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}

// List returns the newest persisted entries for filter.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.From(appErrors.ErrInternal, err, "failed to list audit entries")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

// Stats exposes the queue counters.
func (s *AuditService) Stats() jobs.Stats {
	return s.queue.Stats()
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job[models.AuditLog]) error {
	entry := job.Payload
	return s.repo.Create(ctx, &entry)
}

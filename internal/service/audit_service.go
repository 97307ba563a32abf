package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/internal/models"
	"github.com/noah-isme/office-admin/internal/querycache"
	"github.com/noah-isme/office-admin/internal/session"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/jobs"
	"github.com/noah-isme/office-admin/pkg/middleware/requestid"
)

// JobTypeAudit is the queue job carrying one *models.AuditEntry.
const JobTypeAudit = "audit.write"

type auditStore interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
	ListRecent(ctx context.Context, collection string, limit int) ([]models.AuditEntry, error)
}

type auditQueue interface {
	Offer(job jobs.Job) error
}

type auditMetrics interface {
	ObserveAuditWrite(ok bool, duration time.Duration)
}

// AuditService records mutation outcomes off the request path.
type AuditService struct {
	store   auditStore
	queue   auditQueue
	metrics auditMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService constructs an AuditService. Without a queue entries are
// written inline.
func NewAuditService(store auditStore, queue auditQueue, metrics auditMetrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{store: store, queue: queue, metrics: metrics, logger: logger, now: time.Now}
}

// SetQueue attaches the queue once it exists; the queue handler needs the
// service first.
func (s *AuditService) SetQueue(queue auditQueue) { s.queue = queue }

// Observe implements querycache.MutationObserver. It never blocks the
// mutation and never fails it.
func (s *AuditService) Observe(ctx context.Context, ev querycache.MutationEvent) {
	entry := s.entryFor(ctx, ev)
	if s.queue == nil {
		s.write(context.WithoutCancel(ctx), entry)
		return
	}
	if err := s.queue.Offer(jobs.Job{Type: JobTypeAudit, Payload: entry}); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("collection", entry.Collection), zap.Error(err))
		if s.metrics != nil {
			s.metrics.ObserveAuditWrite(false, 0)
		}
	}
}

// Handle is the queue handler for audit jobs.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditEntry)
	if !ok {
		return appErrors.Clone(appErrors.ErrInternal, "unexpected audit payload")
	}
	return s.write(ctx, entry)
}

// Recent lists the latest entries of collection, or of every collection when
// it is empty.
func (s *AuditService) Recent(ctx context.Context, collection string, limit int) ([]models.AuditEntry, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "audit trail disabled")
	}
	entries, err := s.store.ListRecent(ctx, collection, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, nil
}

func (s *AuditService) write(ctx context.Context, entry *models.AuditEntry) error {
	start := s.now()
	err := s.store.Insert(ctx, entry)
	if s.metrics != nil {
		s.metrics.ObserveAuditWrite(err == nil, s.now().Sub(start))
	}
	if err != nil {
		s.logger.Warn("audit write failed", zap.String("collection", entry.Collection), zap.Error(err))
	}
	return err
}

func (s *AuditService) entryFor(ctx context.Context, ev querycache.MutationEvent) *models.AuditEntry {
	entry := &models.AuditEntry{
		Collection: ev.Name,
		Action:     ev.Action,
		Success:    ev.Err == nil,
		RequestID:  requestid.FromContext(ctx),
		CreatedAt:  s.now().UTC(),
	}
	if ev.RecordID != 0 {
		id := ev.RecordID
		entry.RecordID = &id
	}
	if id, ok := session.IdentityFrom(ctx); ok {
		entry.Actor = id.Subject
	}
	if ev.Err != nil {
		msg := ev.Err.Error()
		var appErr *appErrors.Error
		if errors.As(ev.Err, &appErr) && appErr.Message != "" {
			msg = appErr.Message
		}
		entry.Error = &msg
	}
	return entry
}

package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/repository"
)

const defaultAuditQueue = 256

// AuditService records session lifecycle events. Events are queued by the
// dispatcher handlers and written by Run, so a slow database never delays
// a navigation.
type AuditService struct {
	repo    repository.SessionAuditRepository
	logger  *zap.Logger
	metrics *observability.Metrics
	source  string
	queue   chan events.Event
	dropped atomic.Int64
}

// AuditDependencies bundles what the audit service needs. Repo may be nil,
// in which case events are only logged.
type AuditDependencies struct {
	Repo      repository.SessionAuditRepository
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Source    string
	QueueSize int
}

// NewAuditService creates the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := deps.QueueSize
	if size <= 0 {
		size = defaultAuditQueue
	}
	return &AuditService{
		repo:    deps.Repo,
		logger:  logger,
		metrics: deps.Metrics,
		source:  deps.Source,
		queue:   make(chan events.Event, size),
	}
}

// RegisterHandlers subscribes to session events.
func (a *AuditService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(a.enqueue)
}

func (a *AuditService) enqueue(_ context.Context, event events.Event) error {
	a.metrics.RecordSessionEvent(string(event.Type))
	select {
	case a.queue <- event:
	default:
		a.dropped.Add(1)
		a.logger.Warn("audit queue full; event dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Dropped reports how many events were discarded because the queue was full.
func (a *AuditService) Dropped() int64 {
	return a.dropped.Load()
}

// Run writes queued events until ctx is cancelled, then drains what is
// left with a short grace period.
func (a *AuditService) Run(ctx context.Context) {
	for {
		select {
		case event := <-a.queue:
			a.record(ctx, event)
		case <-ctx.Done():
			a.drain()
			return
		}
	}
}

func (a *AuditService) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case event := <-a.queue:
			a.record(ctx, event)
		default:
			return
		}
	}
}

func (a *AuditService) record(ctx context.Context, event events.Event) {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("username", event.Identity.Username),
		zap.String("detail", event.Detail),
	}
	if a.repo == nil {
		a.logger.Info("session event", fields...)
		return
	}

	entry := &repository.SessionAuditEntry{
		ID:         event.ID,
		EventType:  string(event.Type),
		UserID:     event.Identity.UserID,
		Username:   event.Identity.Username,
		Role:       event.Identity.Role,
		Detail:     event.Detail,
		Source:     a.source,
		OccurredAt: event.Timestamp,
	}
	if err := a.repo.Append(ctx, entry); err != nil {
		a.logger.Error("append session audit", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Debug("session event recorded", fields...)
}

// History returns the most recent audit entries for username.
func (a *AuditService) History(ctx context.Context, username string, limit int) ([]repository.SessionAuditEntry, error) {
	if a.repo == nil {
		return nil, nil
	}
	return a.repo.ListByUsername(ctx, username, limit)
}

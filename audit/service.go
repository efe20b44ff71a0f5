package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/questd/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type traceKey struct{}

// WithTraceID returns a context carrying the request trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceID returns the trace ID stored in ctx, or "".
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}

// Entry holds one mission event to be logged.
type Entry struct {
	TraceID    string
	PlayerID   int64
	MissionID  int64
	TemplateID int64
	Action     string
	Detail     interface{}
}

// Service logs mission events asynchronously in batches.
type Service struct {
	db       *gorm.DB
	ch       chan *model.MissionEvent
	stopCh   chan struct{}
	wg       sync.WaitGroup
	interval time.Duration
	logger   *zap.Logger
}

// New creates a new audit Service and starts its background worker.
// flushInterval <= 0 defaults to 2s.
func New(db *gorm.DB, flushInterval time.Duration, logger *zap.Logger) *Service {
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	svc := &Service{
		db:       db,
		ch:       make(chan *model.MissionEvent, 1024),
		stopCh:   make(chan struct{}),
		interval: flushInterval,
		logger:   logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an entry for async DB write. It never blocks; entries are
// dropped with a warning when the queue is full.
func (svc *Service) Log(ctx context.Context, entry Entry) {
	traceID := entry.TraceID
	if traceID == "" {
		traceID = TraceID(ctx)
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	var detail datatypes.JSON
	if entry.Detail != nil {
		detail, _ = json.Marshal(entry.Detail)
	}
	record := &model.MissionEvent{
		TraceID:    traceID,
		PlayerID:   entry.PlayerID,
		MissionID:  entry.MissionID,
		TemplateID: entry.TemplateID,
		Action:     entry.Action,
		Detail:     detail,
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action),
			zap.Int64("mission_id", entry.MissionID))
	}
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop() {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	batch := make([]*model.MissionEvent, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed",
				zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

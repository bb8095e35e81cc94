package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/reimbursement-approval/internal/application/notification"
	"github.com/garyjia/reimbursement-approval/internal/application/port"
)

// ReminderScanner periodically finds non-terminal documents older than the
// staleness threshold and reminds the holders of whichever gate is still
// open. Each document is read as one snapshot; reminders are best-effort and
// may repeat across passes, rate limiting belongs to the notifier side.
type ReminderScanner struct {
	store    port.DocumentStore
	notifier notification.Service
	logger   *zap.Logger

	scanInterval time.Duration
	staleness    time.Duration
	now          func() time.Time

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// ReminderConfig holds scanner timing configuration
type ReminderConfig struct {
	ScanInterval time.Duration
	Staleness    time.Duration
}

// NewReminderScanner creates a new reminder scanner
func NewReminderScanner(
	store port.DocumentStore,
	notifier notification.Service,
	cfg ReminderConfig,
	logger *zap.Logger,
) *ReminderScanner {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = time.Hour
	}
	if cfg.Staleness <= 0 {
		cfg.Staleness = 24 * time.Hour
	}
	return &ReminderScanner{
		store:        store,
		notifier:     notifier,
		logger:       logger,
		scanInterval: cfg.ScanInterval,
		staleness:    cfg.Staleness,
		now:          time.Now,
	}
}

// Start starts the reminder scanning worker
func (s *ReminderScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("reminder scanner is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	s.logger.Info("ReminderScanner started",
		zap.Duration("scan_interval", s.scanInterval),
		zap.Duration("staleness", s.staleness))

	go s.scanLoop()

	return nil
}

// Stop stops the reminder scanning worker
func (s *ReminderScanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}

	s.logger.Info("ReminderScanner stopped")
}

// Name returns the worker name for identification
func (s *ReminderScanner) Name() string {
	return "ReminderScanner"
}

func (s *ReminderScanner) scanLoop() {
	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.ScanOnce(s.ctx); err != nil {
				s.logger.Error("Reminder scan pass failed", zap.Error(err))
			}
		}
	}
}

// ScanOnce runs a single reminder pass. Exported so an external scheduler or
// an operator endpoint can trigger a pass outside the ticker.
func (s *ReminderScanner) ScanOnce(ctx context.Context) error {
	cutoff := s.now().Add(-s.staleness)

	docs, err := s.store.ListStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale documents: %w", err)
	}

	reminded := 0
	for _, doc := range docs {
		intent, ok := notification.ReminderIntent(doc)
		if !ok {
			continue
		}
		if err := s.notifier.Dispatch(ctx, intent); err != nil {
			s.logger.Error("Failed to dispatch reminder",
				zap.Error(err),
				zap.Int64("document_id", doc.ID))
			continue
		}
		reminded++
	}

	s.logger.Info("Reminder scan pass finished",
		zap.Int("stale_documents", len(docs)),
		zap.Int("reminders", reminded))
	return nil
}

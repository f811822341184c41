package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/metrics"
	"go.uber.org/zap"
)

// OpenSlotCounter источник числа свободных слотов для метрики
type OpenSlotCounter interface {
	CountOpenSince(ctx context.Context, since time.Time) (int, error)
}

// Worker фоновый процесс, работающий до отмены контекста (например, consumer очереди писем)
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	slots    OpenSlotCounter
	interval time.Duration
	workers  []Worker
	logger   *zap.Logger
	stopChan chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(slots OpenSlotCounter, interval time.Duration, logger *zap.Logger, workers ...Worker) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		slots:    slots,
		interval: interval,
		workers:  workers,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("workers", len(s.workers)))

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.runOpenSlotsTask(ctx)

	for _, w := range s.workers {
		s.wg.Add(1)
		go s.runWorker(ctx, w)
	}
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// runOpenSlotsTask периодически обновляет метрику свободных слотов
func (s *Scheduler) runOpenSlotsTask(ctx context.Context) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	s.refreshOpenSlots(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshOpenSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Open slots task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Open slots task cancelled")
			return
		}
	}
}

func (s *Scheduler) refreshOpenSlots(ctx context.Context) {
	count, err := s.slots.CountOpenSince(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to count open slots", zap.Error(err))
		return
	}
	metrics.SetOpenSlots(count)
	s.logger.Debug("Open slots gauge refreshed", zap.Int("open_slots", count))
}

func (s *Scheduler) runWorker(ctx context.Context, w Worker) {
	defer s.wg.Done()

	s.logger.Info("Worker started", zap.String("worker", w.Name()))
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Worker stopped with error", zap.String("worker", w.Name()), zap.Error(err))
		return
	}
	s.logger.Info("Worker stopped", zap.String("worker", w.Name()))
}

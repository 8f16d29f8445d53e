package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"surplus-saver-api/internal/clock"
	"surplus-saver-api/internal/config"
	"surplus-saver-api/internal/model"
	"surplus-saver-api/internal/repository"
	"surplus-saver-api/pkg/uid"
)

// ReportService generates store performance reports in the background.
// Request enqueues a job and returns immediately; callers poll Get until
// the report is completed or failed.
type ReportService struct {
	reports repository.ReportRepository
	bags    repository.BagRepository
	cfg     config.ReportConfig
	clock   clock.Clock

	queue     chan string
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

// NewReportService creates a new report service.
func NewReportService(reports repository.ReportRepository, bags repository.BagRepository, cfg config.ReportConfig, clk clock.Clock) *ReportService {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	return &ReportService{
		reports: reports,
		bags:    bags,
		cfg:     cfg,
		clock:   clk,
		queue:   make(chan string, cfg.QueueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the background worker.
func (s *ReportService) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	log.Printf("[ReportService] Started - Retries: %d, Delay: %v, Queue: %d",
		s.cfg.RetryCount, s.cfg.RetryDelay, s.cfg.QueueSize)

	s.wg.Add(1)
	go s.run()
}

// Stop shuts the worker down after it finishes the report in flight.
func (s *ReportService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		log.Printf("[ReportService] Stopped")
	})
}

// Request records a pending report for the store and queues it for
// generation.
func (s *ReportService) Request(ctx context.Context, storeID int64) (model.Report, error) {
	report := model.Report{
		ID:        uid.New(),
		StoreID:   storeID,
		Status:    model.ReportStatusPending,
		CreatedAt: s.clock.Now(),
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return model.Report{}, err
	}

	select {
	case s.queue <- report.ID:
	default:
		// Queue full: leave the report pending; it surfaces as a failure.
		if err := s.reports.FailReport(ctx, report.ID, "report queue is full"); err != nil {
			log.Printf("[ReportService] Failed to mark report %s: %v", report.ID, err)
		}
		report.Status = model.ReportStatusFailed
		report.Error = "report queue is full"
	}
	return report, nil
}

// Get returns the store's report by id.
func (s *ReportService) Get(ctx context.Context, id string, storeID int64) (model.Report, error) {
	if !uid.IsValid(id) {
		return model.Report{}, model.ErrNotFound
	}
	return s.reports.GetReportOwned(ctx, id, storeID)
}

func (s *ReportService) run() {
	defer s.wg.Done()
	for {
		select {
		case id := <-s.queue:
			s.generate(id)
		case <-s.stopCh:
			return
		}
	}
}

// generate builds the report payload, retrying a fixed number of times
// before recording the failure.
func (s *ReportService) generate(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := s.reports.GetReport(ctx, id)
	if err != nil {
		log.Printf("[ReportService] Report %s vanished before generation: %v", id, err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetryCount; attempt++ {
		payload, err := s.buildPayload(ctx, report.StoreID)
		if err == nil {
			if err := s.reports.CompleteReport(ctx, id, payload); err != nil {
				log.Printf("[ReportService] Failed to store report %s: %v", id, err)
			} else {
				log.Printf("[ReportService] Report %s completed for store %d (attempt %d)",
					id, report.StoreID, attempt)
			}
			return
		}

		lastErr = err
		log.Printf("[ReportService] Report %s attempt %d/%d failed: %v",
			id, attempt, s.cfg.RetryCount, err)
		if attempt < s.cfg.RetryCount {
			select {
			case <-time.After(s.cfg.RetryDelay):
			case <-s.stopCh:
				lastErr = errors.New("worker stopped during retry")
				attempt = s.cfg.RetryCount
			}
		}
	}

	if err := s.reports.FailReport(ctx, id, lastErr.Error()); err != nil {
		log.Printf("[ReportService] Failed to mark report %s failed: %v", id, err)
	}
}

func (s *ReportService) buildPayload(ctx context.Context, storeID int64) ([]byte, error) {
	stats, err := s.bags.StoreStats(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate store stats: %w", err)
	}

	payload := struct {
		StoreID     int64            `json:"store_id"`
		GeneratedAt time.Time        `json:"generated_at"`
		Stats       model.StoreStats `json:"stats"`
	}{
		StoreID:     storeID,
		GeneratedAt: s.clock.Now(),
		Stats:       stats,
	}
	return json.Marshal(payload)
}

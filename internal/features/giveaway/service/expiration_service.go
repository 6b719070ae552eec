package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"giveaway-tracker-bot/internal/common/config"
	"giveaway-tracker-bot/internal/features/giveaway/models"
)

// ExpirationService periodically closes open giveaways whose deadline has
// passed.
type ExpirationService struct {
	ctx        context.Context
	cancel     context.CancelFunc
	giveaways  GiveawayService
	logger     zerolog.Logger
	interval   time.Duration
	processing sync.Map
	wg         sync.WaitGroup
	// Semaphore to limit concurrent processing
	processSemaphore chan struct{}
	now              func() time.Time
	metrics          metrics
}

type metrics struct {
	ticks  atomic.Int64
	closed atomic.Int64
	failed atomic.Int64
}

// ScannerStats is a snapshot of the scanner counters.
type ScannerStats struct {
	Ticks  int64 `json:"ticks"`
	Closed int64 `json:"closed"`
	Failed int64 `json:"failed"`
}

func NewExpirationService(giveaways GiveawayService, config *config.Config, logger zerolog.Logger) *ExpirationService {
	ctx, cancel := context.WithCancel(context.Background())
	interval := config.Scanner.Interval
	if interval <= 0 {
		interval = CheckInterval
	}
	workers := config.Scanner.MaxConcurrent
	if workers <= 0 {
		workers = MaxConcurrentProcessing
	}
	return &ExpirationService{
		ctx:              ctx,
		cancel:           cancel,
		giveaways:        giveaways,
		logger:           logger,
		interval:         interval,
		processSemaphore: make(chan struct{}, workers),
		now:              time.Now,
	}
}

func (s *ExpirationService) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting expiration service")
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.ProcessExpiredGiveaways(s.ctx); err != nil {
					s.logger.Error().Err(err).Msg("Error processing expired giveaways")
				}
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the ticker and waits for in-flight closures.
func (s *ExpirationService) Stop() {
	s.logger.Info().Msg("Stopping expiration service")
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Expiration service stopped")
}

func (s *ExpirationService) Stats() ScannerStats {
	return ScannerStats{
		Ticks:  s.metrics.ticks.Load(),
		Closed: s.metrics.closed.Load(),
		Failed: s.metrics.failed.Load(),
	}
}

// ProcessExpiredGiveaways runs one scan: every due giveaway is closed by a
// bounded pool of workers. It returns the number of giveaways this tick
// closed. A failure on one giveaway never stops the others.
func (s *ExpirationService) ProcessExpiredGiveaways(ctx context.Context) (int, error) {
	s.metrics.ticks.Add(1)

	expired, err := s.listWithRetry(ctx)
	if err != nil {
		return 0, err
	}

	var (
		batch  sync.WaitGroup
		closed atomic.Int64
	)
	for _, g := range expired {
		if _, busy := s.processing.LoadOrStore(g.ID, struct{}{}); busy {
			s.logger.Debug().Int64("giveaway_id", g.ID).Msg("Giveaway is already being processed")
			continue
		}

		select {
		case s.processSemaphore <- struct{}{}:
		case <-ctx.Done():
			s.processing.Delete(g.ID)
			batch.Wait()
			return int(closed.Load()), ctx.Err()
		}

		batch.Add(1)
		go func(id int64) {
			defer batch.Done()
			defer func() { <-s.processSemaphore }()
			defer s.processing.Delete(id)

			if s.processGiveaway(ctx, id) {
				closed.Add(1)
			}
		}(g.ID)
	}

	batch.Wait()
	return int(closed.Load()), nil
}

func (s *ExpirationService) listWithRetry(ctx context.Context) ([]*models.Giveaway, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		expired, err := s.giveaways.ListExpired(ctx, s.now().UTC())
		if err == nil {
			return expired, nil
		}
		lastErr = err
		s.logger.Warn().Err(err).Int("attempt", attempt).Msg("Failed to list expired giveaways")

		if attempt == MaxRetries {
			break
		}
		select {
		case <-time.After(RetryDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", MaxRetries, lastErr)
}

// processGiveaway closes one giveaway and reports whether this call closed it.
func (s *ExpirationService) processGiveaway(ctx context.Context, id int64) bool {
	ctx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.giveaways.Close(ctx, id, models.CloseReasonDeadline)
	switch {
	case err == nil:
		s.metrics.closed.Add(1)
		s.logger.Debug().
			Int64("giveaway_id", id).
			Int("winners", len(result.Winners)).
			Dur("took", time.Since(start)).
			Msg("Expired giveaway closed")
		return true
	case errors.Is(err, ErrAlreadyClosed), errors.Is(err, ErrGiveawayNotFound):
		// lost the race with a manual end or delete
		s.logger.Debug().Err(err).Int64("giveaway_id", id).Msg("Giveaway no longer open")
	default:
		s.metrics.failed.Add(1)
		s.logger.Error().Err(err).Int64("giveaway_id", id).Msg("Failed to close expired giveaway")
	}
	return false
}

// internal/historian/historian.go drains finished games from a queue and persists them in batches.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/rachel/internal/models"
	"github.com/sirupsen/logrus"
)

// Source yields queued game records. Pop returns nil, nil when nothing arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.GameRecord, error)
}

// Store persists a batch of records atomically.
type Store interface {
	SaveGames(ctx context.Context, recs []models.GameRecord) error
}

type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	PopTimeout    time.Duration
}

// Service accumulates records popped from a Source and flushes them to a Store when the
// batch fills or the flush interval elapses.
type Service struct {
	src Source
	dst Store
	cfg Config
	log logrus.FieldLogger

	batchMu sync.Mutex
	batch   []models.GameRecord
	saved   int
}

func New(src Source, dst Store, cfg Config, log logrus.FieldLogger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 3 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		src:   src,
		dst:   dst,
		cfg:   cfg,
		log:   log,
		batch: make([]models.GameRecord, 0, cfg.BatchSize),
	}
}

// Run pops until ctx is canceled, then flushes whatever is left.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	s.log.Info("historian started")
	defer s.log.Info("historian stopped")

	for {
		select {
		case <-ctx.Done():
			// ctx is gone; the final flush needs its own deadline.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return s.Flush(flushCtx)

		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.log.WithError(err).Error("flush failed")
			}

		default:
			rec, err := s.src.Pop(ctx, s.cfg.PopTimeout)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				s.log.WithError(err).Warn("pop failed")
				continue
			}
			if rec == nil {
				continue
			}
			s.append(ctx, *rec)
		}
	}
}

func (s *Service) append(ctx context.Context, rec models.GameRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		if err := s.Flush(ctx); err != nil {
			s.log.WithError(err).Error("flush failed")
		}
	}
}

// Flush writes the pending batch in one transaction. On failure the records stay queued for
// the next flush.
func (s *Service) Flush(ctx context.Context) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if len(s.batch) == 0 {
		return nil
	}
	batchCopy := make([]models.GameRecord, len(s.batch))
	copy(batchCopy, s.batch)

	if err := s.dst.SaveGames(ctx, batchCopy); err != nil {
		return err
	}
	s.batch = s.batch[:0]
	s.saved += len(batchCopy)
	s.log.WithField("count", len(batchCopy)).Debug("flushed games")
	return nil
}

// Pending is the number of records waiting for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// Saved is the number of records persisted so far.
func (s *Service) Saved() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.saved
}

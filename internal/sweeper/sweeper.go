// Package sweeper удаляет из хранилища объекты, на которые не ссылается ни один снимок.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"polaroida/internal/lib/logger/sl"
	"polaroida/internal/metrics"
	"polaroida/internal/storage/objectstore"

	"github.com/robfig/cron/v3"
)

const batchSize = 500

type PathChecker interface {
	ExistingStoragePaths(ctx context.Context, paths []string) (map[string]bool, error)
}

type Sweeper struct {
	log    *slog.Logger
	store  objectstore.Store
	photos PathChecker
	grace  time.Duration
	now    func() time.Time
	cron   *cron.Cron
}

func New(log *slog.Logger, store objectstore.Store, photos PathChecker, grace time.Duration) *Sweeper {
	return &Sweeper{
		log:    log,
		store:  store,
		photos: photos,
		grace:  grace,
		now:    time.Now,
	}
}

// Sweep проходит по хранилищу один раз и возвращает число удалённых объектов.
// Объекты моложе grace не трогаются: загрузка может ещё ждать вставки строки.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	const op = "sweeper.Sweep"

	log := s.log.With(slog.String("op", op))

	objects, err := s.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	cutoff := s.now().Add(-s.grace)

	candidates := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		candidates = append(candidates, obj.Path)
	}

	removed := 0
	for start := 0; start < len(candidates); start += batchSize {
		end := min(start+batchSize, len(candidates))
		batch := candidates[start:end]

		existing, err := s.photos.ExistingStoragePaths(ctx, batch)
		if err != nil {
			return removed, fmt.Errorf("%s: %w", op, err)
		}

		for _, path := range batch {
			if existing[path] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return removed, fmt.Errorf("%s: %w", op, err)
			}
			if err := s.store.Delete(ctx, path); err != nil {
				log.Warn("failed to delete orphan", slog.String("path", path), sl.Err(err))
				continue
			}
			removed++
			metrics.OrphansSwept.Inc()
		}
	}

	log.Info("sweep finished",
		slog.Int("objects", len(objects)),
		slog.Int("checked", len(candidates)),
		slog.Int("removed", removed),
	)

	return removed, nil
}

// Start запускает Sweep по расписанию cron с секундами
func (s *Sweeper) Start(schedule string) error {
	const op = "sweeper.Start"

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Error("sweep failed", sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.Start()
	s.cron = c

	s.log.Info("orphan sweeper scheduled", slog.String("schedule", schedule))

	return nil
}

// Stop останавливает планировщик и ждёт завершения текущего прохода
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

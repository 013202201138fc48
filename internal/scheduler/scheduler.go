package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rifalabs/rifa-engine/internal/config"
	"github.com/rifalabs/rifa-engine/internal/service"
)

// Scheduler drives the periodic maintenance jobs: the reservation sweeper,
// the raffle closer and the fraud analyzer. Each job runs on its own ticker
// until the context is cancelled.
type Scheduler struct {
	reservations *service.ReservationService
	raffles      *service.RaffleService
	analyzer     *service.FraudAnalyzer
	conf         *config.EngineConfig
}

func New(reservations *service.ReservationService, raffles *service.RaffleService, analyzer *service.FraudAnalyzer, conf *config.EngineConfig) *Scheduler {
	return &Scheduler{
		reservations: reservations,
		raffles:      raffles,
		analyzer:     analyzer,
		conf:         conf,
	}
}

// Start launches the job loops. Non-blocking; jobs stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx, "reservation-sweeper", time.Duration(s.conf.SweeperIntervalSeconds)*time.Second, s.sweep)
	go s.loop(ctx, "raffle-closer", time.Duration(s.conf.CloserIntervalSeconds)*time.Second, s.close)
	go s.loop(ctx, "fraud-analyzer", time.Duration(s.conf.AnalyzerIntervalSeconds)*time.Second, s.analyze)
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) {
	zap.L().Info("starting job", zap.String("job", name), zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("stopping job", zap.String("job", name))
			return
		case <-ticker.C:
			if err := job(ctx); err != nil {
				zap.L().Error("job run failed", zap.String("job", name), zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) error {
	swept, err := s.reservations.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if swept > 0 {
		zap.L().Info("reclaimed expired reservations", zap.Int("count", swept))
	}
	return nil
}

func (s *Scheduler) close(ctx context.Context) error {
	closed, err := s.raffles.CloseDue(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		zap.L().Info("closed raffles past sales deadline", zap.Int("count", closed))
	}
	return nil
}

func (s *Scheduler) analyze(ctx context.Context) error {
	return s.analyzer.Analyze(ctx)
}

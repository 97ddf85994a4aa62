package redemption

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper expires stale pending sessions in the background so a shop's
// displayed state goes stale for at most one interval even if nobody polls.
type Sweeper struct {
	repo     *Repository
	interval time.Duration
	stopCh   chan struct{}
}

func NewSweeper(repo *Repository, interval time.Duration) *Sweeper {
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		repo:     repo,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep
func (s *Sweeper) Start() {
	log.Info().Dur("interval", s.interval).Msg("Starting session sweeper...")
	go s.loop()
}

// Stop gracefully stops the sweeper
func (s *Sweeper) Stop() {
	log.Info().Msg("Stopping session sweeper...")
	close(s.stopCh)
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := s.repo.ExpireStale(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to expire stale sessions")
		return
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("Expired stale redemption sessions")
	}
}

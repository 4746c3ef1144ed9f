package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// GuestPurger deletes guest accounts whose credentials have expired.
type GuestPurger interface {
	PurgeExpiredGuests(ctx context.Context) (int, error)
}

// GuestSweeper periodically purges expired guest accounts.
type GuestSweeper struct {
	purger  GuestPurger
	cron    *cron.Cron
	spec    string
	timeout time.Duration
}

// NewGuestSweeper creates a sweeper running on the given cron spec
// (standard five-field syntax or descriptors such as "@every 1h").
func NewGuestSweeper(purger GuestPurger, spec string) *GuestSweeper {
	return &GuestSweeper{
		purger:  purger,
		cron:    cron.New(),
		spec:    spec,
		timeout: time.Minute,
	}
}

// Run registers the sweep job and starts the scheduler. It returns once the
// scheduler is running.
func (s *GuestSweeper) Run() error {
	if _, err := s.cron.AddFunc(s.spec, s.Sweep); err != nil {
		return err
	}
	log.Info().Str("schedule", s.spec).Msg("Starting guest sweeper...")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *GuestSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped guest sweeper.")
}

// Sweep runs a single purge.
func (s *GuestSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purger.PurgeExpiredGuests(ctx)
	if err != nil {
		log.Error().Err(err).Int("purged", n).Msg("GuestSweeper: Failed to purge expired guests")
		return
	}
	if n > 0 {
		log.Info().Int("purged", n).Msg("GuestSweeper: Purged expired guest accounts")
	}
}

package session

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper runs the reaper on a fixed schedule so reclamation does not
// depend on request traffic: with reap-on-write alone, a quiet service
// would keep stale sessions forever.
type Sweeper struct {
	cron *cron.Cron
}

// NewSweeper schedules reaper passes against the registry using a cron
// spec (e.g. "@every 30m"). The schedule is validated here; a bad spec
// is a configuration error and should be fatal at startup.
func NewSweeper(schedule string, reaper *Reaper, reg *Registry, log zerolog.Logger) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if ids := reaper.Reap(reg); len(ids) > 0 {
			log.Info().Int("reclaimed", len(ids)).Msg("background sweep done")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return &Sweeper{cron: c}, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling; a sweep already in flight runs to completion.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

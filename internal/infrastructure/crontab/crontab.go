package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/config"
	"masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/infrastructure/metrics"
)

const jobTimeout = 5 * time.Minute

// Crontab runs periodic maintenance jobs, currently retention cleanup of
// expired messages.
type Crontab struct {
	ctab *crontab.Crontab
	cfg  *config.Config
	repo chat.Repository
	log  zerolog.Logger
}

func New(cfg *config.Config, repo chat.Repository, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab: crontab.New(),
		cfg:  cfg,
		repo: repo,
		log:  log.With().Str("component", "crontab").Logger(),
	}
}

// Run schedules the maintenance jobs and blocks until the context ends.
func (c *Crontab) Run(ctx context.Context) error {
	if c.cfg.RetentionDays <= 0 {
		c.log.Info().Msg("retention cleanup disabled")
		<-ctx.Done()
		c.ctab.Shutdown()
		return nil
	}

	// Run once on startup, then hourly.
	c.purgeExpired(ctx)

	if err := c.ctab.AddJob("0 * * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		c.purgeExpired(jobCtx)
	}); err != nil {
		return err
	}
	c.log.Info().Int("retention_days", c.cfg.RetentionDays).Msg("retention cleanup scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) purgeExpired(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -c.cfg.RetentionDays)
	removed, err := c.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		c.log.Error().Err(err).Msg("retention cleanup failed")
		return
	}
	if removed > 0 {
		metrics.MessagesPurged.Add(float64(removed))
		c.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("retention cleanup completed")
	}
}

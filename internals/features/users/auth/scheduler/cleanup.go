package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"proctorx_backend/internals/configs"
)

type BlacklistPurger interface {
	PurgeBlacklist(ctx context.Context, ttl time.Duration) (int64, error)
}

// StartBlacklistCleanupScheduler purges revoked tokens once a day, keeping
// TOKEN_BLACKLIST_TTL_DAYS (default 7) of history past expiry.
func StartBlacklistCleanupScheduler(p BlacklistPurger) (*cron.Cron, error) {
	ttl := time.Duration(configs.GetEnvInt("TOKEN_BLACKLIST_TTL_DAYS", 7)) * 24 * time.Hour
	spec := configs.GetEnv("TOKEN_BLACKLIST_CRON", "@daily")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { runCleanup(p, ttl) }); err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("[CLEANUP] token blacklist cleanup scheduled (%s, ttl %s)", spec, ttl)
	return c, nil
}

func runCleanup(p BlacklistPurger, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := p.PurgeBlacklist(ctx, ttl)
	if err != nil {
		log.Printf("[CLEANUP ERROR] token blacklist purge failed: %v", err)
		return
	}
	log.Printf("[CLEANUP] %d expired blacklist rows removed", n)
}

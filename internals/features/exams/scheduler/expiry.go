package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"proctorx_backend/internals/configs"
)

type Expirer interface {
	ExpireOverdueAttempts(ctx context.Context) (int, error)
}

// StartAttemptExpiryScheduler auto-submits overdue attempts on ATTEMPT_EXPIRY_CRON
// (default every minute). The returned cron is already running.
func StartAttemptExpiryScheduler(svc Expirer) (*cron.Cron, error) {
	spec := configs.GetEnv("ATTEMPT_EXPIRY_CRON", "@every 1m")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		n, err := svc.ExpireOverdueAttempts(ctx)
		if err != nil {
			log.Printf("[ATTEMPT-EXPIRY] error: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[ATTEMPT-EXPIRY] auto-submitted %d attempt(s)", n)
		}
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ATTEMPT-EXPIRY] started schedule=%q", spec)
	c.Start()
	return c, nil
}

package jobs

import (
	"context"
	"time"

	"casetrack/cmd/internal/utils"

	"github.com/labstack/gommon/log"
)

const connectionSweepInterval = 5 * time.Minute

type ConnectionExpirer interface {
	ExpireConnections(ctx context.Context, now int64) int
}

type ConnectionCleaner struct {
	expirer ConnectionExpirer
}

func NewConnectionCleaner(expirer ConnectionExpirer) *ConnectionCleaner {
	return &ConnectionCleaner{expirer: expirer}
}

func (c *ConnectionCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(connectionSweepInterval)
	defer ticker.Stop()

	log.Info("Connection cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping connection cleaner...")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *ConnectionCleaner) cleanup() {
	// Detached from the ticker, gateway calls should not be cut short by shutdown
	n := c.expirer.ExpireConnections(context.Background(), utils.NowUTC())
	if n > 0 {
		log.Infof("Cleaner: terminated %d expired connections", n)
	}
}

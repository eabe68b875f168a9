// Command reaper deletes expired verification codes and staged registrations.
// Run it periodically (cron, Cloud Scheduler); correctness never depends on it.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/resident-registration/config"
	"github.com/oksasatya/resident-registration/internal/container"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
	"github.com/oksasatya/resident-registration/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-reaper", cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("reaper failed")
	}
}

// run owns every resource so they are released before main exits non-zero.
func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := container.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer c.Close()

	before := time.Now().Add(-cfg.ReaperGrace)
	challenges, staged, err := reap(ctx, c.Store, before)
	if err != nil {
		return err
	}
	helpers.LogInfo(logger, "reaper finished", logrus.Fields{
		"challenges": challenges,
		"staged":     staged,
		"before":     before.UTC().Format(time.RFC3339),
	})
	return nil
}

func reap(ctx context.Context, store repository.Store, before time.Time) (challenges, staged int64, err error) {
	if challenges, err = store.Challenges().DeleteExpired(ctx, before); err != nil {
		return 0, 0, fmt.Errorf("reap challenges: %w", err)
	}
	if staged, err = store.Staging().DeleteExpired(ctx, before); err != nil {
		return challenges, 0, fmt.Errorf("reap staged registrations: %w", err)
	}
	return challenges, staged, nil
}

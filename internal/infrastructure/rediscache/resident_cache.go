// Package rediscache fronts the resident lookup with Redis.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/resident-registration/internal/domain/repository"
)

func keyRegistered(email string) string { return "resident:registered:" + email }

// ResidentLookup caches positive Exists answers. Residents are never removed
// by this service, so a cached "registered" can't go stale; negative answers
// always hit the database.
type ResidentLookup struct {
	next   repository.ResidentLookup
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewResidentLookup(next repository.ResidentLookup, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *ResidentLookup {
	return &ResidentLookup{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (l *ResidentLookup) Exists(ctx context.Context, email string) (bool, error) {
	v, err := l.rdb.Get(ctx, keyRegistered(email)).Result()
	switch {
	case err == nil && v == "1":
		return true, nil
	case err != nil && !errors.Is(err, redis.Nil) && l.logger != nil:
		// fail-open to the database
		l.logger.WithError(err).WithField("email", email).Warn("resident cache read failed")
	}

	ok, err := l.next.Exists(ctx, email)
	if err != nil || !ok {
		return ok, err
	}
	l.MarkRegistered(ctx, email)
	return true, nil
}

// MarkRegistered records a freshly committed resident.
func (l *ResidentLookup) MarkRegistered(ctx context.Context, email string) {
	if err := l.rdb.Set(ctx, keyRegistered(email), "1", l.ttl).Err(); err != nil && l.logger != nil {
		l.logger.WithError(err).WithField("email", email).Warn("resident cache write failed")
	}
}

var _ repository.ResidentLookup = (*ResidentLookup)(nil)

package repository

import (
	"context"
	"time"

	"github.com/oksasatya/resident-registration/internal/domain/entity"
)

// StagingStore holds registrations that are waiting for email verification.
// Get treats rows past ExpiresAt as missing.
type StagingStore interface {
	Put(ctx context.Context, p *entity.PendingRegistration) error
	Get(ctx context.Context, email string, now time.Time) (*entity.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

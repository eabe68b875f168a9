package repository

import (
	"context"
	"time"

	"github.com/oksasatya/resident-registration/internal/domain/entity"
)

// ChallengeStore keeps at most one OTP challenge per email.
type ChallengeStore interface {
	// Replace atomically supersedes any existing challenge for c.Email.
	Replace(ctx context.Context, c *entity.OTPChallenge) error
	Get(ctx context.Context, email string) (*entity.OTPChallenge, error)
	// Consume deletes the challenge only if its code matches and returns the
	// deleted row. ErrNotFound means there was nothing to consume.
	Consume(ctx context.Context, email, code string) (*entity.OTPChallenge, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

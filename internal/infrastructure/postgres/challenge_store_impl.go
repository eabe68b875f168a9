package postgres

import (
	"context"
	"time"

	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
)

type ChallengeStore struct {
	db DBTX
}

func NewChallengeStore(db DBTX) *ChallengeStore {
	return &ChallengeStore{db: db}
}

// Replace upserts on the email primary key so the previous challenge is gone
// in the same statement that creates the new one.
func (s *ChallengeStore) Replace(ctx context.Context, c *entity.OTPChallenge) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO otp_challenges (email, code, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code, issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at
	`, c.Email, c.Code, c.IssuedAt, c.ExpiresAt)
	return err
}

func (s *ChallengeStore) Get(ctx context.Context, email string) (*entity.OTPChallenge, error) {
	c := &entity.OTPChallenge{}
	row := s.db.QueryRow(ctx, `
		SELECT email, code, issued_at, expires_at
		FROM otp_challenges
		WHERE email = $1
	`, email)
	if err := row.Scan(&c.Email, &c.Code, &c.IssuedAt, &c.ExpiresAt); err != nil {
		return nil, mapNoRows(err)
	}
	return c, nil
}

// Consume is the single-use guard: of two concurrent callers with the same
// code only one gets the row back.
func (s *ChallengeStore) Consume(ctx context.Context, email, code string) (*entity.OTPChallenge, error) {
	c := &entity.OTPChallenge{}
	row := s.db.QueryRow(ctx, `
		DELETE FROM otp_challenges
		WHERE email = $1 AND code = $2
		RETURNING email, code, issued_at, expires_at
	`, email, code)
	if err := row.Scan(&c.Email, &c.Code, &c.IssuedAt, &c.ExpiresAt); err != nil {
		return nil, mapNoRows(err)
	}
	return c, nil
}

func (s *ChallengeStore) Delete(ctx context.Context, email string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM otp_challenges WHERE email = $1`, email)
	return err
}

func (s *ChallengeStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM otp_challenges WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ repository.ChallengeStore = (*ChallengeStore)(nil)

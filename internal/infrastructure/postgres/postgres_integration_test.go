//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/oksasatya/resident-registration/internal/domain"
	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
	"github.com/oksasatya/resident-registration/internal/infrastructure/postgres"
	"github.com/oksasatya/resident-registration/internal/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.NewStore(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(s.ctx, "residents", "otp_challenges", "pending_registrations")
	s.Require().NoError(err)
}

func newProfile(email string) entity.Profile {
	return entity.Profile{
		Email:       email,
		FirstName:   "Jose",
		MiddleName:  "Protacio",
		LastName:    "Rizal",
		Age:         35,
		Sex:         entity.SexMale,
		Birthday:    time.Date(1990, 6, 19, 0, 0, 0, 0, time.UTC),
		CivilStatus: entity.CivilStatusSingle,
		Address:     "123 Mabini Street, Calamba",
		ValidIDType: "UMID",
		IDImage:     []byte{0x89, 'P', 'N', 'G'},
	}
}

func (s *PostgresStoreSuite) TestResidentRoundTrip() {
	res := &entity.Resident{ID: uuid.NewString(), Profile: newProfile("jose@example.com"), EmailVerified: true}
	s.Require().NoError(s.store.Residents().InsertUnique(s.ctx, res))
	s.False(res.CreatedAt.IsZero())

	got, err := s.store.Residents().GetByID(s.ctx, res.ID)
	s.Require().NoError(err)
	s.True(res.Profile.Birthday.Equal(got.Profile.Birthday))
	got.Profile.Birthday = res.Profile.Birthday
	s.Equal(res.Profile, got.Profile)
	s.True(got.EmailVerified)

	s.Require().NoError(s.store.Residents().SetIDImageURL(s.ctx, res.ID, "https://storage.googleapis.com/b/ids/x.png"))
	got, err = s.store.Residents().GetByID(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Equal("https://storage.googleapis.com/b/ids/x.png", got.IDImageURL)

	_, err = s.store.Residents().GetByID(s.ctx, uuid.NewString())
	s.Require().ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresStoreSuite) TestResidentWithoutImage() {
	p := newProfile("noimage@example.com")
	p.IDImage = nil
	res := &entity.Resident{ID: uuid.NewString(), Profile: p, EmailVerified: true}
	s.Require().NoError(s.store.Residents().InsertUnique(s.ctx, res))

	got, err := s.store.Residents().GetByID(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Nil(got.Profile.IDImage)
}

// TestConcurrentUniqueEmailViolation verifies that concurrent inserts with the
// same email result in exactly one resident.
func (s *PostgresStoreSuite) TestConcurrentUniqueEmailViolation() {
	const goroutines = 30
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := &entity.Resident{ID: uuid.NewString(), Profile: newProfile("race@example.com"), EmailVerified: true}
			err := s.store.Residents().InsertUnique(s.ctx, res)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrDuplicateEmail):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())

	var n int
	s.Require().NoError(s.postgres.Pool.QueryRow(s.ctx, `SELECT count(*) FROM residents WHERE email = $1`, "race@example.com").Scan(&n))
	s.Equal(1, n)
}

func (s *PostgresStoreSuite) TestChallengeReplaceAndConsume() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("a@x.com", "111111", now)))
	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("a@x.com", "222222", now)))

	got, err := s.store.Challenges().Get(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal("222222", got.Code)
	s.True(got.ExpiresAt.Equal(now.Add(entity.ChallengeTTL)))

	_, err = s.store.Challenges().Consume(s.ctx, "a@x.com", "111111")
	s.Require().ErrorIs(err, repository.ErrNotFound)

	const goroutines = 10
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Challenges().Consume(s.ctx, "a@x.com", "222222"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())

	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("old@x.com", "333333", now.Add(-time.Hour))))
	n, err := s.store.Challenges().DeleteExpired(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *PostgresStoreSuite) TestStagingUpsertAndExpiry() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &entity.PendingRegistration{Profile: newProfile("stage@example.com"), StagedAt: now, ExpiresAt: now.Add(30 * time.Minute)}
	s.Require().NoError(s.store.Staging().Put(s.ctx, p))

	p.Profile.Address = "456 Rizal Avenue, Manila"
	s.Require().NoError(s.store.Staging().Put(s.ctx, p))

	got, err := s.store.Staging().Get(s.ctx, "stage@example.com", now)
	s.Require().NoError(err)
	s.Equal("456 Rizal Avenue, Manila", got.Profile.Address)
	s.Equal(p.Profile.IDImage, got.Profile.IDImage)

	_, err = s.store.Staging().Get(s.ctx, "stage@example.com", now.Add(time.Hour))
	s.Require().ErrorIs(err, repository.ErrNotFound)

	n, err := s.store.Staging().DeleteExpired(s.ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *PostgresStoreSuite) TestPromotionRollsBackOnDuplicate() {
	now := time.Now().UTC()
	existing := &entity.Resident{ID: uuid.NewString(), Profile: newProfile("dup@example.com"), EmailVerified: true}
	s.Require().NoError(s.store.Residents().InsertUnique(s.ctx, existing))
	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("dup@example.com", "123456", now)))

	err := s.store.WithTx(s.ctx, func(tx repository.Store) error {
		if _, err := tx.Challenges().Consume(s.ctx, "dup@example.com", "123456"); err != nil {
			return err
		}
		return tx.Residents().InsertUnique(s.ctx, &entity.Resident{ID: uuid.NewString(), Profile: newProfile("dup@example.com"), EmailVerified: true})
	})
	s.Require().ErrorIs(err, domain.ErrDuplicateEmail)

	_, err = s.store.Challenges().Get(s.ctx, "dup@example.com")
	s.Require().NoError(err, "consumed challenge restored by rollback")
}

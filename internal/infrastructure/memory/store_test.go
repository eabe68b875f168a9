package memory

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
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.store = New()
	s.store.Now = func() time.Time { return s.now }
}

func newResident(email string) *entity.Resident {
	return &entity.Resident{
		ID:            uuid.NewString(),
		EmailVerified: true,
		Profile: entity.Profile{
			Email:     email,
			FirstName: "Maria",
			LastName:  "Santos",
			IDImage:   []byte{1, 2, 3},
		},
	}
}

func (s *MemoryStoreSuite) TestResidents() {
	s.Run("insert then lookup", func() {
		r := newResident("maria@example.com")
		s.Require().NoError(s.store.Residents().InsertUnique(s.ctx, r))
		s.Equal(s.now, r.CreatedAt)

		ok, err := s.store.Residents().Exists(s.ctx, "maria@example.com")
		s.Require().NoError(err)
		s.True(ok)

		got, err := s.store.Residents().GetByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(r, got)

		got.Profile.IDImage[0] = 9
		again, _ := s.store.Residents().GetByID(s.ctx, r.ID)
		s.Equal(byte(1), again.Profile.IDImage[0], "returned records are copies")
	})

	s.Run("duplicate email rejected", func() {
		err := s.store.Residents().InsertUnique(s.ctx, newResident("maria@example.com"))
		s.Require().ErrorIs(err, domain.ErrDuplicateEmail)
	})

	s.Run("missing id", func() {
		_, err := s.store.Residents().GetByID(s.ctx, uuid.NewString())
		s.Require().ErrorIs(err, repository.ErrNotFound)
		s.Require().ErrorIs(s.store.Residents().SetIDImageURL(s.ctx, "nope", "u"), repository.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestChallenges() {
	c := entity.NewOTPChallenge("a@x.com", "111111", s.now)
	s.Require().NoError(s.store.Challenges().Replace(s.ctx, c))
	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("a@x.com", "222222", s.now)))

	got, err := s.store.Challenges().Get(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal("222222", got.Code, "replace supersedes")

	_, err = s.store.Challenges().Consume(s.ctx, "a@x.com", "111111")
	s.Require().ErrorIs(err, repository.ErrNotFound)

	consumed, err := s.store.Challenges().Consume(s.ctx, "a@x.com", "222222")
	s.Require().NoError(err)
	s.Equal("222222", consumed.Code)

	_, err = s.store.Challenges().Consume(s.ctx, "a@x.com", "222222")
	s.Require().ErrorIs(err, repository.ErrNotFound, "single use")

	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("old@x.com", "333333", s.now.Add(-time.Hour))))
	n, err := s.store.Challenges().DeleteExpired(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *MemoryStoreSuite) TestStagingExpiry() {
	p := &entity.PendingRegistration{
		Profile:   entity.Profile{Email: "b@x.com", FirstName: "Ben"},
		StagedAt:  s.now,
		ExpiresAt: s.now.Add(30 * time.Minute),
	}
	s.Require().NoError(s.store.Staging().Put(s.ctx, p))

	got, err := s.store.Staging().Get(s.ctx, "b@x.com", s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(p, got)

	_, err = s.store.Staging().Get(s.ctx, "b@x.com", s.now.Add(time.Hour))
	s.Require().ErrorIs(err, repository.ErrNotFound)

	n, err := s.store.Staging().DeleteExpired(s.ctx, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *MemoryStoreSuite) TestTransactionRollback() {
	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("c@x.com", "123456", s.now)))
	boom := errors.New("boom")

	err := s.store.WithTx(s.ctx, func(tx repository.Store) error {
		if _, err := tx.Challenges().Consume(s.ctx, "c@x.com", "123456"); err != nil {
			return err
		}
		s.Require().NoError(tx.Residents().InsertUnique(s.ctx, newResident("c@x.com")))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.store.Challenges().Get(s.ctx, "c@x.com")
	s.Require().NoError(err, "challenge restored after rollback")
	ok, _ := s.store.Residents().Exists(s.ctx, "c@x.com")
	s.False(ok, "resident not visible after rollback")
}

func (s *MemoryStoreSuite) TestConcurrentConsumeSingleWinner() {
	s.Require().NoError(s.store.Challenges().Replace(s.ctx, entity.NewOTPChallenge("d@x.com", "654321", s.now)))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.WithTx(s.ctx, func(tx repository.Store) error {
				if _, err := tx.Challenges().Consume(s.ctx, "d@x.com", "654321"); err != nil {
					return err
				}
				return tx.Residents().InsertUnique(s.ctx, newResident("d@x.com"))
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

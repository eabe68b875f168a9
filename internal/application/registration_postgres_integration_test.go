//go:build integration

package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"github.com/oksasatya/resident-registration/internal/application"
	"github.com/oksasatya/resident-registration/internal/domain"
	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/internal/infrastructure/postgres"
	"github.com/oksasatya/resident-registration/internal/testutil/containers"
)

// PostgresRegistrationSuite runs the service over the Postgres store, where
// transactions genuinely interleave and take row locks.
type PostgresRegistrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	notifier *captureNotifier
	svc      *application.RegistrationService
	ctx      context.Context
}

func TestPostgresRegistrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRegistrationSuite))
}

func (s *PostgresRegistrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.NewStore(s.postgres.Pool)
}

func (s *PostgresRegistrationSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "residents", "otp_challenges", "pending_registrations"))
	logger, _ := test.NewNullLogger()
	s.notifier = &captureNotifier{}
	s.svc = application.NewRegistrationService(s.store, nil, s.notifier, nil, logger, 30*time.Minute, time.Second)
}

func (s *PostgresRegistrationSuite) TearDownTest() {
	s.Require().NoError(s.svc.Wait(s.ctx))
}

func (s *PostgresRegistrationSuite) residentCount(email string) int {
	var n int
	s.Require().NoError(s.postgres.Pool.QueryRow(s.ctx, `SELECT count(*) FROM residents WHERE email = $1`, email).Scan(&n))
	return n
}

func (s *PostgresRegistrationSuite) TestConcurrentVerifySameCode() {
	_, err := s.svc.BeginRegistration(s.ctx, validInput("race@example.com"))
	s.Require().NoError(err)
	code := s.notifier.sent("race@example.com")[0]

	const goroutines = 16
	errs := make([]error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Verify(s.ctx, "race@example.com", code)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.Falsef(errors.Is(err, domain.ErrStorage), "storage error: %v", err)
		s.True(errors.Is(err, domain.ErrInvalidCode) || errors.Is(err, domain.ErrDuplicateEmail), err.Error())
	}
	s.Equal(1, wins)
	s.Equal(1, s.residentCount("race@example.com"))
}

// A resubmit racing a verify for the same email must end in a defined
// outcome for both; a lock cycle would surface as a storage error.
func (s *PostgresRegistrationSuite) TestConcurrentBeginAndVerify() {
	const rounds = 20
	for i := 0; i < rounds; i++ {
		email := fmt.Sprintf("resubmit-%d@example.com", i)
		_, err := s.svc.BeginRegistration(s.ctx, validInput(email))
		s.Require().NoError(err)
		code := s.notifier.sent(email)[0]

		var beginErr, verifyErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, beginErr = s.svc.BeginRegistration(s.ctx, validInput(email))
		}()
		go func() {
			defer wg.Done()
			_, verifyErr = s.svc.Verify(s.ctx, email, code)
		}()
		wg.Wait()

		if beginErr != nil {
			s.Falsef(errors.Is(beginErr, domain.ErrStorage), "begin storage error: %v", beginErr)
			s.ErrorIs(beginErr, domain.ErrDuplicateEmail)
		}
		if verifyErr != nil {
			s.Falsef(errors.Is(verifyErr, domain.ErrStorage), "verify storage error: %v", verifyErr)
			s.ErrorIs(verifyErr, domain.ErrInvalidCode)
			s.Equal(0, s.residentCount(email))
		} else {
			s.Equal(1, s.residentCount(email))
		}
	}
}

func (s *PostgresRegistrationSuite) TestDuplicateAtCommitKeepsChallenge() {
	_, err := s.svc.BeginRegistration(s.ctx, validInput("dup@example.com"))
	s.Require().NoError(err)
	code := s.notifier.sent("dup@example.com")[0]

	s.svc.Lookup = lookupFunc(func(string) bool { return false })
	existing := &entity.Resident{ID: "6f1d4c8e-2b7a-4e0f-9a51-3c2d1e0f9b7a", Profile: validProfile("dup@example.com"), EmailVerified: true}
	s.Require().NoError(s.store.Residents().InsertUnique(s.ctx, existing))

	_, err = s.svc.Verify(s.ctx, "dup@example.com", code)
	s.Require().ErrorIs(err, domain.ErrDuplicateEmail)

	c, err := s.store.Challenges().Get(s.ctx, "dup@example.com")
	s.Require().NoError(err, "rollback restores the consumed challenge")
	s.Equal(code, c.Code)
	_, err = s.store.Staging().Get(s.ctx, "dup@example.com", time.Now())
	s.NoError(err)
	s.Equal(1, s.residentCount("dup@example.com"))
}

func validProfile(email string) entity.Profile {
	return entity.Profile{
		Email:       email,
		FirstName:   "Ana",
		LastName:    "Reyes",
		Age:         25,
		Sex:         entity.SexFemale,
		Birthday:    time.Date(2001, 4, 9, 0, 0, 0, 0, time.UTC),
		CivilStatus: entity.CivilStatusSingle,
		Address:     "12 Mabini St, Barangay San Isidro",
		ValidIDType: "UMID",
	}
}

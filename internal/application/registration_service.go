package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/resident-registration/internal/domain"
	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
	"github.com/oksasatya/resident-registration/internal/infrastructure/metrics"
	"github.com/oksasatya/resident-registration/pkg/helpers"
	"github.com/oksasatya/resident-registration/pkg/validation"
)

const (
	DefaultStagingTTL      = 30 * time.Minute
	DefaultDispatchTimeout = 10 * time.Second

	archiveTimeout = 30 * time.Second

	mailTypeCode    = "registration_otp"
	mailTypeWelcome = "welcome"
)

// RegistrationInput is the form submitted by a prospective resident.
type RegistrationInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	MiddleName  string `json:"middle_name" validate:"omitempty,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Suffix      string `json:"suffix" validate:"omitempty,max=20"`
	Age         int    `json:"age" validate:"required,min=18,max=100"`
	Sex         string `json:"sex" validate:"required,sex"`
	Birthday    string `json:"birthday" validate:"required,datetime=2006-01-02"`
	CivilStatus string `json:"civil_status" validate:"required,civilstatus"`
	Address     string `json:"address" validate:"required,min=10,max=500"`
	ValidIDType string `json:"valid_id_type" validate:"required,validid"`
	IDImage     []byte `json:"-"`
}

func (in *RegistrationInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Suffix = strings.TrimSpace(in.Suffix)
	in.Sex = strings.TrimSpace(in.Sex)
	in.Birthday = strings.TrimSpace(in.Birthday)
	in.CivilStatus = strings.TrimSpace(in.CivilStatus)
	in.Address = strings.TrimSpace(in.Address)
	in.ValidIDType = strings.TrimSpace(in.ValidIDType)
}

// Registration describes a staged registration waiting for its code.
type Registration struct {
	Email            string
	CodeExpiresAt    time.Time
	StagingExpiresAt time.Time
}

// RegistrationService runs the staged registration flow: stage the form,
// mail a one-time code, and promote the staged data to a resident once the
// code is presented.
type RegistrationService struct {
	Store    repository.Store
	Lookup   repository.ResidentLookup
	Notifier Notifier
	Archiver IDImageArchiver
	Logger   *logrus.Logger

	Now             func() time.Time
	GenCode         func() (string, error)
	StagingTTL      time.Duration
	DispatchTimeout time.Duration

	validate *validator.Validate
	wg       sync.WaitGroup
}

// NewRegistrationService wires the service. lookup may be nil, in which case
// the store's resident repository answers existence checks; archiver may be
// nil to skip ID image archival.
func NewRegistrationService(store repository.Store, lookup repository.ResidentLookup, notifier Notifier, archiver IDImageArchiver, logger *logrus.Logger, stagingTTL, dispatchTimeout time.Duration) *RegistrationService {
	if lookup == nil {
		lookup = store.Residents()
	}
	if logger == nil {
		logger = logrus.New()
	}
	if stagingTTL <= 0 {
		stagingTTL = DefaultStagingTTL
	}
	if dispatchTimeout <= 0 {
		dispatchTimeout = DefaultDispatchTimeout
	}
	return &RegistrationService{
		Store:           store,
		Lookup:          lookup,
		Notifier:        notifier,
		Archiver:        archiver,
		Logger:          logger,
		Now:             time.Now,
		GenCode:         helpers.GenOTPCode,
		StagingTTL:      stagingTTL,
		DispatchTimeout: dispatchTimeout,
		validate:        validation.New(),
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BeginRegistration validates and stages the form, issues a fresh code and
// mails it. When only the mail fails, the staged registration is returned
// together with a delivery error; the code stays valid.
func (s *RegistrationService) BeginRegistration(ctx context.Context, in RegistrationInput) (*Registration, error) {
	reg, err := s.beginRegistration(ctx, in)
	metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return reg, err
}

func (s *RegistrationService) beginRegistration(ctx context.Context, in RegistrationInput) (*Registration, error) {
	profile, err := s.validateInput(in)
	if err != nil {
		return nil, err
	}

	exists, err := s.Lookup.Exists(ctx, profile.Email)
	if err != nil {
		return nil, s.storageError("check email", profile.Email, err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	now := s.Now()
	challenge, err := s.newChallenge(profile.Email, now)
	if err != nil {
		return nil, err
	}
	pending := &entity.PendingRegistration{
		Profile:   profile,
		StagedAt:  now,
		ExpiresAt: now.Add(s.StagingTTL),
	}

	// Challenge before staging, the same row order verify locks in.
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Challenges().Replace(ctx, challenge); err != nil {
			return err
		}
		return tx.Staging().Put(ctx, pending)
	})
	if err != nil {
		return nil, s.storageError("stage registration", profile.Email, err)
	}

	reg := &Registration{
		Email:            profile.Email,
		CodeExpiresAt:    challenge.ExpiresAt,
		StagingExpiresAt: pending.ExpiresAt,
	}
	s.Logger.WithFields(logrus.Fields{"email": profile.Email}).Info("registration staged")
	if err := s.dispatchCode(ctx, profile, challenge); err != nil {
		return reg, err
	}
	return reg, nil
}

// ResendCode replaces the outstanding code for a staged registration and
// mails the new one. The staged fields are left untouched.
func (s *RegistrationService) ResendCode(ctx context.Context, email string) (*Registration, error) {
	reg, err := s.resendCode(ctx, email)
	metrics.ResendsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return reg, err
}

func (s *RegistrationService) resendCode(ctx context.Context, email string) (*Registration, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}

	now := s.Now()
	challenge, err := s.newChallenge(email, now)
	if err != nil {
		return nil, err
	}

	var pending *entity.PendingRegistration
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		p, err := tx.Staging().Get(ctx, email, now)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrSessionExpired
		}
		if err != nil {
			return err
		}
		pending = p
		return tx.Challenges().Replace(ctx, challenge)
	})
	if err != nil {
		return nil, s.storageError("resend code", email, err)
	}

	reg := &Registration{
		Email:            email,
		CodeExpiresAt:    challenge.ExpiresAt,
		StagingExpiresAt: pending.ExpiresAt,
	}
	s.Logger.WithField("email", email).Info("verification code reissued")
	if err := s.dispatchCode(ctx, pending.Profile, challenge); err != nil {
		return reg, err
	}
	return reg, nil
}

// Verify checks code against the outstanding challenge and, on success,
// promotes the staged registration to a resident in one transaction. A code
// can be redeemed at most once.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (*entity.Resident, error) {
	r, err := s.verify(ctx, email, code)
	metrics.VerificationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return r, err
}

func (s *RegistrationService) verify(ctx context.Context, email, code string) (*entity.Resident, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	if !helpers.IsOTPCode(code) {
		return nil, domain.NewValidationError("code", "must be 6 digits")
	}

	now := s.Now()
	log := s.Logger.WithField("email", email)

	c, err := s.Store.Challenges().Get(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrInvalidCode
	}
	if err != nil {
		return nil, s.storageError("load challenge", email, err)
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) != 1 {
		return nil, domain.ErrInvalidCode
	}
	if c.Expired(now) {
		return nil, domain.ErrExpiredCode
	}

	exists, err := s.Lookup.Exists(ctx, email)
	if err != nil {
		return nil, s.storageError("check email", email, err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	var resident *entity.Resident
	err = s.Store.WithTx(ctx, func(tx repository.Store) error {
		consumed, err := tx.Challenges().Consume(ctx, email, code)
		if errors.Is(err, repository.ErrNotFound) {
			// lost the race to a concurrent verify or a resend
			return domain.ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if consumed.Expired(now) {
			return domain.ErrExpiredCode
		}

		pending, err := tx.Staging().Get(ctx, email, now)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrSessionExpired
		}
		if err != nil {
			return err
		}

		r := &entity.Resident{
			ID:            uuid.NewString(),
			Profile:       pending.Profile,
			EmailVerified: true,
			CreatedAt:     now,
		}
		if err := tx.Residents().InsertUnique(ctx, r); err != nil {
			return err
		}
		if err := tx.Staging().Delete(ctx, email); err != nil {
			return err
		}
		resident = r
		return nil
	})
	if err != nil {
		return nil, s.storageError("promote registration", email, err)
	}

	log.WithField("resident_id", resident.ID).Info("resident registered")
	if m, ok := s.Lookup.(registeredMarker); ok {
		m.MarkRegistered(ctx, email)
	}
	s.afterPromotion(resident)
	return resident, nil
}

// Wait blocks until post-registration work started by Verify has finished or
// ctx is done.
func (s *RegistrationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RegistrationService) validateInput(in RegistrationInput) (entity.Profile, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		field, msg := validation.First(err)
		return entity.Profile{}, domain.NewValidationError(field, msg)
	}
	birthday, err := time.Parse(entity.BirthdayLayout, in.Birthday)
	if err != nil {
		return entity.Profile{}, domain.NewValidationError("birthday", "must be a date in YYYY-MM-DD format")
	}
	if _, err := entity.DetectIDImage(in.IDImage); err != nil {
		return entity.Profile{}, domain.NewValidationError("id_image", err.Error())
	}
	return entity.Profile{
		Email:       in.Email,
		FirstName:   in.FirstName,
		MiddleName:  in.MiddleName,
		LastName:    in.LastName,
		Suffix:      in.Suffix,
		Age:         in.Age,
		Sex:         in.Sex,
		Birthday:    birthday,
		CivilStatus: in.CivilStatus,
		Address:     in.Address,
		ValidIDType: in.ValidIDType,
		IDImage:     in.IDImage,
	}, nil
}

func (s *RegistrationService) newChallenge(email string, now time.Time) (*entity.OTPChallenge, error) {
	code, err := s.GenCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	return entity.NewOTPChallenge(email, code, now), nil
}

// dispatchCode mails the code within DispatchTimeout. On failure the code is
// written to the log so an operator can hand it over out of band.
func (s *RegistrationService) dispatchCode(ctx context.Context, p entity.Profile, c *entity.OTPChallenge) error {
	dctx, cancel := context.WithTimeout(ctx, s.DispatchTimeout)
	defer cancel()

	var err error
	if s.Notifier == nil {
		err = errors.New("no notifier configured")
	} else {
		err = s.Notifier.SendVerificationCode(dctx, p, c)
	}
	if err != nil {
		metrics.MailDispatchTotal.WithLabelValues(mailTypeCode, "error").Inc()
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"email":      c.Email,
			"code":       c.Code,
			"expires_at": c.ExpiresAt,
		}).Warn("verification code not delivered")
		return domain.NewDeliveryError(err)
	}
	metrics.MailDispatchTotal.WithLabelValues(mailTypeCode, "ok").Inc()
	return nil
}

// afterPromotion sends the welcome mail and archives the ID image. Both are
// best effort and never affect the registration outcome.
func (s *RegistrationService) afterPromotion(r *entity.Resident) {
	log := s.Logger.WithFields(logrus.Fields{"email": r.Profile.Email, "resident_id": r.ID})

	if s.Notifier != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), s.DispatchTimeout)
			defer cancel()
			if err := s.Notifier.SendWelcome(ctx, r); err != nil {
				metrics.MailDispatchTotal.WithLabelValues(mailTypeWelcome, "error").Inc()
				log.WithError(err).Warn("welcome mail not delivered")
				return
			}
			metrics.MailDispatchTotal.WithLabelValues(mailTypeWelcome, "ok").Inc()
		}()
	}

	if s.Archiver != nil && len(r.Profile.IDImage) > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			url, err := s.Archiver.Archive(ctx, r)
			if err != nil {
				log.WithError(err).Warn("id image archival failed")
				return
			}
			if err := s.Store.Residents().SetIDImageURL(ctx, r.ID, url); err != nil {
				log.WithError(err).Warn("id image url not saved")
				return
			}
			log.WithField("url", url).Debug("id image archived")
		}()
	}
}

func (s *RegistrationService) storageError(op, email string, err error) error {
	wrapped := domain.NewStorageError(op, err)
	if domain.KindOf(wrapped) == domain.KindStorage {
		s.Logger.WithError(err).WithFields(logrus.Fields{"email": email, "op": op}).Error("registration storage failure")
	}
	return wrapped
}

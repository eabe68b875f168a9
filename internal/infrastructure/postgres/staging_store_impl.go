package postgres

import (
	"context"
	"time"

	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
)

type StagingStore struct {
	db DBTX
}

func NewStagingStore(db DBTX) *StagingStore {
	return &StagingStore{db: db}
}

func (s *StagingStore) Put(ctx context.Context, pr *entity.PendingRegistration) error {
	p := pr.Profile
	_, err := s.db.Exec(ctx, `
		INSERT INTO pending_registrations (email, first_name, middle_name, last_name, suffix, age, sex,
			birthday, civil_status, address, valid_id_type, id_image, staged_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (email) DO UPDATE
		SET first_name = EXCLUDED.first_name, middle_name = EXCLUDED.middle_name,
			last_name = EXCLUDED.last_name, suffix = EXCLUDED.suffix, age = EXCLUDED.age,
			sex = EXCLUDED.sex, birthday = EXCLUDED.birthday, civil_status = EXCLUDED.civil_status,
			address = EXCLUDED.address, valid_id_type = EXCLUDED.valid_id_type,
			id_image = EXCLUDED.id_image, staged_at = EXCLUDED.staged_at, expires_at = EXCLUDED.expires_at
	`, p.Email, p.FirstName, p.MiddleName, p.LastName, p.Suffix, p.Age, p.Sex, p.Birthday,
		p.CivilStatus, p.Address, p.ValidIDType, p.IDImage, pr.StagedAt, pr.ExpiresAt)
	return err
}

func (s *StagingStore) Get(ctx context.Context, email string, now time.Time) (*entity.PendingRegistration, error) {
	pr := &entity.PendingRegistration{}
	p := &pr.Profile

	row := s.db.QueryRow(ctx, `
		SELECT email, first_name, middle_name, last_name, suffix, age, sex, birthday,
			civil_status, address, valid_id_type, id_image, staged_at, expires_at
		FROM pending_registrations
		WHERE email = $1 AND expires_at >= $2
	`, email, now)

	if err := row.Scan(&p.Email, &p.FirstName, &p.MiddleName, &p.LastName, &p.Suffix, &p.Age,
		&p.Sex, &p.Birthday, &p.CivilStatus, &p.Address, &p.ValidIDType, &p.IDImage,
		&pr.StagedAt, &pr.ExpiresAt); err != nil {
		return nil, mapNoRows(err)
	}
	return pr, nil
}

func (s *StagingStore) Delete(ctx context.Context, email string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM pending_registrations WHERE email = $1`, email)
	return err
}

func (s *StagingStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM pending_registrations WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ repository.StagingStore = (*StagingStore)(nil)

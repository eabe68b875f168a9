package postgres

import (
	"context"

	"github.com/oksasatya/resident-registration/internal/domain"
	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
)

type ResidentRepository struct {
	db DBTX
}

func NewResidentRepository(db DBTX) *ResidentRepository {
	return &ResidentRepository{db: db}
}

func (r *ResidentRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM residents WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// InsertUnique relies on residents_email_key; a conflicting concurrent
// committer surfaces as domain.ErrDuplicateEmail.
func (r *ResidentRepository) InsertUnique(ctx context.Context, res *entity.Resident) error {
	p := res.Profile
	row := r.db.QueryRow(ctx, `
		INSERT INTO residents (id, email, first_name, middle_name, last_name, suffix, age, sex,
			birthday, civil_status, address, valid_id_type, id_image, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`, res.ID, p.Email, p.FirstName, p.MiddleName, p.LastName, p.Suffix, p.Age, p.Sex,
		p.Birthday, p.CivilStatus, p.Address, p.ValidIDType, p.IDImage, res.EmailVerified)

	if err := row.Scan(&res.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *ResidentRepository) GetByID(ctx context.Context, id string) (*entity.Resident, error) {
	res := &entity.Resident{}
	p := &res.Profile

	row := r.db.QueryRow(ctx, `
		SELECT id, email, first_name, middle_name, last_name, suffix, age, sex, birthday,
			civil_status, address, valid_id_type, id_image, id_image_url, email_verified, created_at
		FROM residents
		WHERE id = $1
	`, id)

	if err := row.Scan(&res.ID, &p.Email, &p.FirstName, &p.MiddleName, &p.LastName, &p.Suffix,
		&p.Age, &p.Sex, &p.Birthday, &p.CivilStatus, &p.Address, &p.ValidIDType, &p.IDImage,
		&res.IDImageURL, &res.EmailVerified, &res.CreatedAt); err != nil {
		return nil, mapNoRows(err)
	}

	return res, nil
}

func (r *ResidentRepository) SetIDImageURL(ctx context.Context, id, url string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE residents
		SET id_image_url = $1, updated_at = now()
		WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ repository.ResidentRepository = (*ResidentRepository)(nil)

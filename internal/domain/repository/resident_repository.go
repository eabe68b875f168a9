package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/resident-registration/internal/domain/entity"
)

// ErrNotFound is returned by stores when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// ResidentLookup answers the advisory "is this email registered" question.
type ResidentLookup interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// ResidentRepository defines the interface for resident-related database operations.
// InsertUnique is the enforcement point for email uniqueness and returns
// domain.ErrDuplicateEmail on conflict.
type ResidentRepository interface {
	ResidentLookup
	InsertUnique(ctx context.Context, r *entity.Resident) error
	GetByID(ctx context.Context, id string) (*entity.Resident, error)
	SetIDImageURL(ctx context.Context, id, url string) error
}

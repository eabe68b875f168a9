package repository

import "context"

// Store groups the registration repositories behind one transaction boundary.
// Repositories obtained from the Store passed to fn take part in the
// transaction; returning an error from fn rolls everything back.
type Store interface {
	Residents() ResidentRepository
	Challenges() ChallengeStore
	Staging() StagingStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

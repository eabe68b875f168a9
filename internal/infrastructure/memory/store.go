// Package memory is a process-local repository.Store used by tests and by
// STORE_BACKEND=memory for local development.
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/oksasatya/resident-registration/internal/domain"
	"github.com/oksasatya/resident-registration/internal/domain/entity"
	"github.com/oksasatya/resident-registration/internal/domain/repository"
)

type state struct {
	residents  map[string]*entity.Resident // by id
	emailIndex map[string]string           // email -> id
	challenges map[string]*entity.OTPChallenge
	staging    map[string]*entity.PendingRegistration
}

func newState() *state {
	return &state{
		residents:  make(map[string]*entity.Resident),
		emailIndex: make(map[string]string),
		challenges: make(map[string]*entity.OTPChallenge),
		staging:    make(map[string]*entity.PendingRegistration),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.residents {
		c.residents[k] = cloneResident(v)
	}
	for k, v := range s.emailIndex {
		c.emailIndex[k] = v
	}
	for k, v := range s.challenges {
		cp := *v
		c.challenges[k] = &cp
	}
	for k, v := range s.staging {
		c.staging[k] = clonePending(v)
	}
	return c
}

// Store serialises every operation on one mutex. A transaction holds the
// mutex for its whole duration and works on a copy that replaces the live
// state only when fn succeeds.
//
// The copy is deep, ID images included, so each transaction costs time and
// memory proportional to everything stored. Fine for tests and a local
// STORE_BACKEND=memory run; use postgres for anything with real volume.
type Store struct {
	mu     *sync.Mutex
	data   **state
	locked bool
	Now    func() time.Time
}

func New() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, data: &st, Now: time.Now}
}

func (s *Store) Residents() repository.ResidentRepository { return &residents{s} }
func (s *Store) Challenges() repository.ChallengeStore     { return &challenges{s} }
func (s *Store) Staging() repository.StagingStore          { return &staging{s} }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.locked {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := (*s.data).clone()
	tx := &Store{mu: s.mu, data: &work, locked: true, Now: s.Now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	*s.data = work
	return nil
}

// view runs fn against the current state, taking the lock unless already
// inside a transaction.
func (s *Store) view(fn func(st *state) error) error {
	if !s.locked {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(*s.data)
}

type residents struct{ s *Store }

func (r *residents) Exists(_ context.Context, email string) (bool, error) {
	var ok bool
	err := r.s.view(func(st *state) error {
		_, ok = st.emailIndex[email]
		return nil
	})
	return ok, err
}

func (r *residents) InsertUnique(_ context.Context, res *entity.Resident) error {
	return r.s.view(func(st *state) error {
		if _, taken := st.emailIndex[res.Profile.Email]; taken {
			return domain.ErrDuplicateEmail
		}
		res.CreatedAt = r.s.Now()
		st.residents[res.ID] = cloneResident(res)
		st.emailIndex[res.Profile.Email] = res.ID
		return nil
	})
}

func (r *residents) GetByID(_ context.Context, id string) (*entity.Resident, error) {
	var out *entity.Resident
	err := r.s.view(func(st *state) error {
		res, ok := st.residents[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = cloneResident(res)
		return nil
	})
	return out, err
}

func (r *residents) SetIDImageURL(_ context.Context, id, url string) error {
	return r.s.view(func(st *state) error {
		res, ok := st.residents[id]
		if !ok {
			return repository.ErrNotFound
		}
		res.IDImageURL = url
		return nil
	})
}

type challenges struct{ s *Store }

func (c *challenges) Replace(_ context.Context, ch *entity.OTPChallenge) error {
	return c.s.view(func(st *state) error {
		cp := *ch
		st.challenges[ch.Email] = &cp
		return nil
	})
}

func (c *challenges) Get(_ context.Context, email string) (*entity.OTPChallenge, error) {
	var out *entity.OTPChallenge
	err := c.s.view(func(st *state) error {
		ch, ok := st.challenges[email]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *ch
		out = &cp
		return nil
	})
	return out, err
}

func (c *challenges) Consume(_ context.Context, email, code string) (*entity.OTPChallenge, error) {
	var out *entity.OTPChallenge
	err := c.s.view(func(st *state) error {
		ch, ok := st.challenges[email]
		if !ok || ch.Code != code {
			return repository.ErrNotFound
		}
		delete(st.challenges, email)
		out = ch
		return nil
	})
	return out, err
}

func (c *challenges) Delete(_ context.Context, email string) error {
	return c.s.view(func(st *state) error {
		delete(st.challenges, email)
		return nil
	})
}

func (c *challenges) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := c.s.view(func(st *state) error {
		for k, ch := range st.challenges {
			if ch.ExpiresAt.Before(before) {
				delete(st.challenges, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

type staging struct{ s *Store }

func (g *staging) Put(_ context.Context, p *entity.PendingRegistration) error {
	return g.s.view(func(st *state) error {
		st.staging[p.Profile.Email] = clonePending(p)
		return nil
	})
}

func (g *staging) Get(_ context.Context, email string, now time.Time) (*entity.PendingRegistration, error) {
	var out *entity.PendingRegistration
	err := g.s.view(func(st *state) error {
		p, ok := st.staging[email]
		if !ok || p.Expired(now) {
			return repository.ErrNotFound
		}
		out = clonePending(p)
		return nil
	})
	return out, err
}

func (g *staging) Delete(_ context.Context, email string) error {
	return g.s.view(func(st *state) error {
		delete(st.staging, email)
		return nil
	})
}

func (g *staging) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := g.s.view(func(st *state) error {
		for k, p := range st.staging {
			if p.ExpiresAt.Before(before) {
				delete(st.staging, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func cloneProfile(p entity.Profile) entity.Profile {
	if p.IDImage != nil {
		p.IDImage = bytes.Clone(p.IDImage)
	}
	return p
}

func cloneResident(r *entity.Resident) *entity.Resident {
	cp := *r
	cp.Profile = cloneProfile(r.Profile)
	return &cp
}

func clonePending(p *entity.PendingRegistration) *entity.PendingRegistration {
	cp := *p
	cp.Profile = cloneProfile(p.Profile)
	return &cp
}

var _ repository.Store = (*Store)(nil)

package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

type userRepo struct{ g guard }

func (r *userRepo) Create(ctx context.Context, u *repo.User) error {
	return r.g.write(func(d *state, now time.Time) error {
		email := strings.ToLower(u.Email)
		if _, ok := d.emails[email]; ok {
			return repo.ErrDuplicate
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.Must(uuid.NewV7())
		}
		if _, ok := d.users[u.ID]; ok {
			return repo.ErrDuplicate
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		cp := *u
		d.users[u.ID] = &cp
		d.emails[email] = u.ID
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	var out *repo.User
	err := r.g.read(func(d *state, _ time.Time) error {
		u, ok := d.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (r *userRepo) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]repo.UserSummary, error) {
	out := make(map[uuid.UUID]repo.UserSummary, len(ids))
	err := r.g.read(func(d *state, _ time.Time) error {
		for _, id := range ids {
			if u, ok := d.users[id]; ok {
				out[id] = u.Summary()
			}
		}
		return nil
	})
	return out, err
}

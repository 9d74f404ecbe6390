package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

const usersTable = "users"

var userColumns = []string{"id", "name", "email", "role", "created_at"}

type userRepo struct{ db execer }

func (r *userRepo) Create(ctx context.Context, u *repo.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.Must(uuid.NewV7())
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	q := psql.Insert(usersTable).
		Columns(userColumns...).
		Values(u.ID, u.Name, strings.ToLower(u.Email), string(u.Role), u.CreatedAt)
	if _, err := exec(ctx, r.db, q); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	query, args := psql.Select(userColumns...).
		From(psql.Table(usersTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var u repo.User
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userRepo) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]repo.UserSummary, error) {
	out := make(map[uuid.UUID]repo.UserSummary, len(ids))
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}

	query, args := psql.Select("id", "name", "email").
		From(psql.Table(usersTable)).
		Where(entsql.In("id", lo.ToAnySlice(ids)...)).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var s repo.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

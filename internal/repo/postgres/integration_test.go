package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/database"
)

// These tests need a disposable Postgres with btree_gist available, e.g.
// MENTORBOOK_TEST_DSN="host=localhost user=postgres dbname=mentorbook_test sslmode=disable".
const testDSNEnv = "MENTORBOOK_TEST_DSN"

func liveStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, database.MigrateUp(ctx, db))
	return New(db)
}

func liveUser(t *testing.T, s *Store, role authorize.Role) *repo.User {
	t.Helper()
	u := &repo.User{Name: string(role), Email: uuid.NewString() + "@example.com", Role: role}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestExclusionConstraintsLive(t *testing.T) {
	s := liveStore(t)
	ctx := context.Background()
	mentor, otherMentor := liveUser(t, s, authorize.RoleMentor), liveUser(t, s, authorize.RoleMentor)
	student, otherStudent := liveUser(t, s, authorize.RoleStudent), liveUser(t, s, authorize.RoleStudent)

	start := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	first := &repo.Appointment{StudentID: student.ID, MentorID: mentor.ID, StartsAt: start, EndsAt: start.Add(time.Hour), Status: repo.StatusPending}
	require.NoError(t, s.Appointments().Create(ctx, first))

	mentorClash := &repo.Appointment{StudentID: otherStudent.ID, MentorID: mentor.ID, StartsAt: start.Add(30 * time.Minute), EndsAt: start.Add(90 * time.Minute), Status: repo.StatusPending}
	assert.ErrorIs(t, s.Appointments().Create(ctx, mentorClash), repo.ErrMentorOverlap)

	studentClash := &repo.Appointment{StudentID: student.ID, MentorID: otherMentor.ID, StartsAt: start.Add(30 * time.Minute), EndsAt: start.Add(90 * time.Minute), Status: repo.StatusPending}
	assert.ErrorIs(t, s.Appointments().Create(ctx, studentClash), repo.ErrStudentOverlap)

	touching := &repo.Appointment{StudentID: otherStudent.ID, MentorID: mentor.ID, StartsAt: start.Add(time.Hour), EndsAt: start.Add(2 * time.Hour), Status: repo.StatusPending}
	assert.NoError(t, s.Appointments().Create(ctx, touching))

	_, err := s.Appointments().UpdateStatus(ctx, repo.StatusChange{ID: first.ID, From: repo.StatusPending, To: repo.StatusCancelled, At: time.Now().UTC(), By: student.ID})
	require.NoError(t, err)
	rebook := &repo.Appointment{StudentID: student.ID, MentorID: mentor.ID, StartsAt: start, EndsAt: start.Add(time.Hour), Status: repo.StatusPending}
	assert.NoError(t, s.Appointments().Create(ctx, rebook), "cancelled rows free the range")
}

func TestTxSerializesBookingsLive(t *testing.T) {
	s := liveStore(t)
	ctx := context.Background()
	mentor := liveUser(t, s, authorize.RoleMentor)

	const n = 8
	students := make([]*repo.User, n)
	for i := range students {
		students[i] = liveUser(t, s, authorize.RoleStudent)
	}

	errBusy := errors.New("busy")
	start := time.Now().UTC().Truncate(time.Hour).Add(48 * time.Hour)
	var booked, busy atomic.Int32
	var wg conc.WaitGroup
	for _, st := range students {
		wg.Go(func() {
			err := s.Tx(ctx, []string{repo.MentorLock(mentor.ID), repo.StudentLock(st.ID)}, func(r repo.Repositories) error {
				clash, err := r.Appointments().FindOverlapping(ctx, repo.PartyMentor, mentor.ID, start, start.Add(time.Hour))
				if err != nil {
					return err
				}
				if len(clash) > 0 {
					return errBusy
				}
				return r.Appointments().Create(ctx, &repo.Appointment{
					StudentID: st.ID, MentorID: mentor.ID,
					StartsAt: start, EndsAt: start.Add(time.Hour),
					Status: repo.StatusPending,
				})
			})
			switch {
			case err == nil:
				booked.Add(1)
			case errors.Is(err, errBusy):
				busy.Add(1)
			default:
				// the advisory lock must decide before the constraint has to
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	assert.EqualValues(t, 1, booked.Load())
	assert.EqualValues(t, n-1, busy.Load())
}

package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo/memory"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/availability"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
)

func TestServiceOpenWindows(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	e, err := authorize.NewMemoryEnforcer()
	require.NoError(t, err)
	authz, err := authorize.NewAuthorization(e, false)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(ctx, authz))

	mk := func(role authorize.Role) *repo.User {
		u := &repo.User{Name: string(role), Email: uuid.NewString() + "@example.com", Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}
	mentor, student := mk(authorize.RoleMentor), mk(authorize.RoleStudent)

	avail := availability.New(store, authz, availability.NopCache{}, 0)
	mon := 1
	_, err = avail.Add(ctx, repo.Actor{ID: mentor.ID, Role: authorize.RoleMentor}, []availability.SlotInput{
		{DayOfWeek: &mon, StartTime: "09:00", EndTime: "12:00"},
	})
	require.NoError(t, err)

	booked := &repo.Appointment{
		StudentID: student.ID, MentorID: mentor.ID,
		StartsAt: monday(10, 0), EndsAt: monday(11, 0),
		Status: repo.StatusConfirmed,
	}
	require.NoError(t, store.Appointments().Create(ctx, booked))

	svc := New(avail, store.Appointments(), DefaultConfig())
	windows, err := svc.OpenWindows(ctx, mentor.ID, monday(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []Interval{
		{Start: monday(9, 0), End: monday(10, 0)},
		{Start: monday(11, 0), End: monday(12, 0)},
	}, windows)

	windows, err = svc.OpenWindows(ctx, mentor.ID, monday(0, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.NotNil(t, windows)
	assert.Empty(t, windows)
}

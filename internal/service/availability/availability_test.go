package availability

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo/memory"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
)

type fixture struct {
	svc     Service
	store   *memory.Store
	mentor  repo.Actor
	other   repo.Actor
	student repo.Actor
}

func newAuthz(t *testing.T) authorize.IAuthorization {
	t.Helper()
	e, err := authorize.NewMemoryEnforcer()
	require.NoError(t, err)
	authz, err := authorize.NewAuthorization(e, false)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(context.Background(), authz))
	return authz
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	authz := newAuthz(t)

	store := memory.New()
	mk := func(role authorize.Role) repo.Actor {
		u := &repo.User{Name: string(role), Email: uuid.NewString() + "@example.com", Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return repo.Actor{ID: u.ID, Role: role}
	}

	return &fixture{
		svc:     New(store, authz, nil, 0),
		store:   store,
		mentor:  mk(authorize.RoleMentor),
		other:   mk(authorize.RoleMentor),
		student: mk(authorize.RoleStudent),
	}
}

func day(d int) *int       { return &d }
func str(s string) *string { return &s }

func TestAddReturnsOrderedFullSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.mentor, []SlotInput{{DayOfWeek: day(3), StartTime: "14:00", EndTime: "15:00"}})
	require.NoError(t, err)

	slots, err := f.svc.Add(ctx, f.mentor, []SlotInput{
		{DayOfWeek: day(1), StartTime: "13:00", EndTime: "14:00"},
		{DayOfWeek: day(1), StartTime: "9:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, 1, slots[0].DayOfWeek)
	assert.Equal(t, "09:00", slots[0].StartTime.String())
	assert.Equal(t, "13:00", slots[1].StartTime.String())
	assert.Equal(t, 3, slots[2].DayOfWeek)

	listed, err := f.svc.ListForMentor(ctx, f.mentor.ID)
	require.NoError(t, err)
	assert.Equal(t, slots, listed)
}

func TestAddIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input []SlotInput
		want  error
	}{
		{"empty", nil, ErrInvalidSlots},
		{"missing day", []SlotInput{{StartTime: "09:00", EndTime: "10:00"}}, ErrInvalidDay},
		{"day out of range", []SlotInput{{DayOfWeek: day(7), StartTime: "09:00", EndTime: "10:00"}}, ErrInvalidDay},
		{"bad time", []SlotInput{{DayOfWeek: day(1), StartTime: "25:00", EndTime: "26:00"}}, ErrInvalidTime},
		{"missing end", []SlotInput{{DayOfWeek: day(1), StartTime: "09:00"}}, ErrInvalidTime},
		{"inverted", []SlotInput{{DayOfWeek: day(1), StartTime: "11:00", EndTime: "09:00"}}, ErrInvalidRange},
		{"empty range", []SlotInput{{DayOfWeek: day(1), StartTime: "09:00", EndTime: "09:00"}}, ErrInvalidRange},
		{"second entry bad", []SlotInput{
			{DayOfWeek: day(1), StartTime: "09:00", EndTime: "10:00"},
			{DayOfWeek: day(2), StartTime: "10:00", EndTime: "09:00"},
		}, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Add(ctx, f.mentor, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	slots, err := f.svc.ListForMentor(ctx, f.mentor.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestOnlyMentorsManageAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.student, []SlotInput{{DayOfWeek: day(1), StartTime: "09:00", EndTime: "10:00"}})
	assert.ErrorIs(t, err, ErrMentorOnly)

	admin := repo.Actor{ID: uuid.New(), Role: authorize.RoleAdmin}
	_, err = f.svc.Replace(ctx, admin, nil)
	assert.ErrorIs(t, err, ErrMentorOnly)
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slots, err := f.svc.Add(ctx, f.mentor, []SlotInput{{DayOfWeek: day(1), StartTime: "09:00", EndTime: "11:00"}})
	require.NoError(t, err)
	slotID := slots[0].ID

	_, err = f.svc.Update(ctx, f.other, slotID, SlotPatch{EndTime: str("12:00")})
	assert.ErrorIs(t, err, ErrNotSlotOwner)

	err = f.svc.Delete(ctx, f.other, slotID)
	assert.ErrorIs(t, err, ErrNotSlotOwner)

	_, err = f.svc.Update(ctx, f.mentor, uuid.New(), SlotPatch{EndTime: str("12:00")})
	assert.ErrorIs(t, err, ErrSlotNotFound)

	err = f.svc.Delete(ctx, f.mentor, uuid.New())
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = f.svc.Update(ctx, f.mentor, slotID, SlotPatch{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	_, err = f.svc.Update(ctx, f.mentor, slotID, SlotPatch{StartTime: str("11:30")})
	assert.ErrorIs(t, err, ErrInvalidRange, "merged result must keep start < end")

	updated, err := f.svc.Update(ctx, f.mentor, slotID, SlotPatch{EndTime: str("12:00")})
	require.NoError(t, err)
	assert.Equal(t, "09:00", updated.StartTime.String())
	assert.Equal(t, "12:00", updated.EndTime.String())
	assert.Equal(t, 1, updated.DayOfWeek)

	require.NoError(t, f.svc.Delete(ctx, f.mentor, slotID))
	err = f.svc.Delete(ctx, f.mentor, slotID)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.mentor, []SlotInput{{DayOfWeek: day(1), StartTime: "09:00", EndTime: "11:00"}})
	require.NoError(t, err)

	slots, err := f.svc.Replace(ctx, f.mentor, []SlotInput{{DayOfWeek: day(5), StartTime: "18:00", EndTime: "20:00"}})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 5, slots[0].DayOfWeek)

	_, err = f.svc.Replace(ctx, f.mentor, []SlotInput{{DayOfWeek: day(9), StartTime: "18:00", EndTime: "20:00"}})
	assert.ErrorIs(t, err, ErrInvalidDay)

	kept, err := f.svc.ListForMentor(ctx, f.mentor.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1, "a rejected replace leaves the previous set")

	cleared, err := f.svc.Replace(ctx, f.mentor, []SlotInput{})
	require.NoError(t, err)
	assert.Empty(t, cleared)
}

func TestListForUnknownMentorIsEmpty(t *testing.T) {
	f := newFixture(t)

	slots, err := f.svc.ListForMentor(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)

	slots, err = f.svc.ListForMentor(context.Background(), f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

type countingCache struct {
	NopCache
	invalidated []uuid.UUID
}

func (c *countingCache) Invalidate(_ context.Context, id uuid.UUID) {
	c.invalidated = append(c.invalidated, id)
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cache := &countingCache{}
	svc := New(f.store, newAuthz(t), cache, 0)

	slots, err := svc.Add(ctx, f.mentor, []SlotInput{{DayOfWeek: day(1), StartTime: "09:00", EndTime: "11:00"}})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, f.mentor, slots[0].ID))

	assert.Equal(t, []uuid.UUID{f.mentor.ID, f.mentor.ID}, cache.invalidated)

	_, err = svc.Add(ctx, f.mentor, nil)
	require.True(t, errors.Is(err, ErrInvalidSlots))
	assert.Len(t, cache.invalidated, 2, "rejected calls must not touch the cache")
}

// genCache is an in-process Cache with the same generation rules as
// RedisCache. pauseNextSet parks the next Set until the returned release
// func is called.
type genCache struct {
	mu      sync.Mutex
	gens    map[uuid.UUID]int64
	entries map[uuid.UUID]genEntry
	paused  *setPause
}

type genEntry struct {
	gen   int64
	slots []*repo.AvailabilitySlot
}

type setPause struct {
	entered chan struct{}
	release chan struct{}
}

func newGenCache() *genCache {
	return &genCache{gens: map[uuid.UUID]int64{}, entries: map[uuid.UUID]genEntry{}}
}

func (c *genCache) pauseNextSet() (entered <-chan struct{}, release func()) {
	p := &setPause{entered: make(chan struct{}), release: make(chan struct{})}
	c.mu.Lock()
	c.paused = p
	c.mu.Unlock()
	return p.entered, func() { close(p.release) }
}

func (c *genCache) Get(_ context.Context, id uuid.UUID) ([]*repo.AvailabilitySlot, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[id]
	e, ok := c.entries[id]
	if !ok || e.gen != gen {
		return nil, gen, false
	}
	return e.slots, gen, true
}

func (c *genCache) Set(_ context.Context, id uuid.UUID, gen int64, slots []*repo.AvailabilitySlot) {
	c.mu.Lock()
	p := c.paused
	c.paused = nil
	c.mu.Unlock()
	if p != nil {
		close(p.entered)
		<-p.release
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gens[id] {
		return
	}
	c.entries[id] = genEntry{gen: gen, slots: slots}
}

func (c *genCache) Invalidate(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[id]++
}

func TestListServesCachedSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := newGenCache()
	svc := New(f.store, newAuthz(t), cache, 0)

	_, err := svc.Add(ctx, f.mentor, []SlotInput{{DayOfWeek: day(1), StartTime: "09:00", EndTime: "11:00"}})
	require.NoError(t, err)

	_, err = svc.ListForMentor(ctx, f.mentor.ID)
	require.NoError(t, err)

	cached, _, ok := cache.Get(ctx, f.mentor.ID)
	require.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestSlowReaderCannotCacheRowsOlderThanACommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := newGenCache()
	svc := New(f.store, newAuthz(t), cache, 0)

	_, err := svc.Add(ctx, f.mentor, []SlotInput{{DayOfWeek: day(1), StartTime: "09:00", EndTime: "11:00"}})
	require.NoError(t, err)

	entered, release := cache.pauseNextSet()
	read := make(chan []*repo.AvailabilitySlot, 1)
	go func() {
		slots, err := svc.ListForMentor(ctx, f.mentor.ID)
		assert.NoError(t, err)
		read <- slots
	}()

	// the reader holds one slot and is about to cache it
	<-entered
	_, err = svc.Add(ctx, f.mentor, []SlotInput{{DayOfWeek: day(2), StartTime: "09:00", EndTime: "11:00"}})
	require.NoError(t, err)
	release()
	assert.Len(t, <-read, 1)

	_, _, ok := cache.Get(ctx, f.mentor.ID)
	assert.False(t, ok, "rows read before the commit must not be cached")

	slots, err := svc.ListForMentor(ctx, f.mentor.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestRedisEntryKeyCarriesGeneration(t *testing.T) {
	id := uuid.New()
	assert.NotEqual(t, entryKey(id, 0), entryKey(id, 1))
	assert.NotEqual(t, genKey(id), entryKey(id, 0))

	_, gen, ok := NopCache{}.Get(context.Background(), id)
	assert.False(t, ok)
	assert.Equal(t, noGen, gen)
}

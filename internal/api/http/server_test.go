package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/router"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo/memory"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/appointment"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/availability"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/scheduling"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/events"
	pasetotoken "github.com/Alijeyrad/mentorbook_backend/pkg/paseto"
)

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	tokens *pasetotoken.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Server.Environment = "test"

	e, err := authorize.NewMemoryEnforcer()
	require.NoError(t, err)
	authz, err := authorize.NewAuthorization(e, false)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(ctx, authz))

	keys := pasetotoken.NewLocalKeys()
	mgr, err := pasetotoken.New(pasetotoken.Config{Mode: keys.Mode, Issuer: "mentorbook", Audience: "mentorbook-api"}, keys)
	require.NoError(t, err)

	store := memory.New()
	sc := scheduling.DefaultConfig()
	avail := availability.New(store, authz, availability.NopCache{}, sc.QueryTimeout)

	r := router.NewRouter(router.Params{
		Cfg:             cfg,
		Auth:            authz,
		AvailabilitySvc: avail,
		SchedulingSvc:   scheduling.New(avail, store.Appointments(), sc),
		AppointmentSvc:  appointment.New(store, authz, events.Nop{}, sc),
		PasetoMgr:       mgr,
	})

	return &testServer{app: NewApp(cfg, nil, r, false), store: store, tokens: mgr}
}

func (s *testServer) user(t *testing.T, role authorize.Role) string {
	t.Helper()
	u := &repo.User{Name: string(role), Email: uuid.NewString() + "@example.com", Role: role}
	require.NoError(t, s.store.Users().Create(context.Background(), u))
	tok, err := s.tokens.IssueAccess(u.ID, string(role), nil, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) userID(t *testing.T, token string) uuid.UUID {
	t.Helper()
	c, err := s.tokens.Verify(token)
	require.NoError(t, err)
	return c.UserID
}

type response struct {
	status int
	body   struct {
		Success bool                  `json:"success"`
		Data    json.RawMessage       `json:"data"`
		Meta    *appointment.PageMeta `json:"meta"`
		Message string                `json:"message"`
		Code    string                `json:"code"`
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := s.app.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out response
	out.status = res.StatusCode
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

// nextMonday returns a Monday at least a week ahead, at midnight UTC.
func nextMonday() time.Time {
	d := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", "UNAUTHORIZED"},
		{"garbage token", "Bearer v4.local.nope", "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(nethttp.MethodGet, "/api/appointments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			res, err := s.app.Test(req)
			require.NoError(t, err)
			defer res.Body.Close()

			var body struct {
				Success bool   `json:"success"`
				Code    string `json:"code"`
			}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.Equal(t, nethttp.StatusUnauthorized, res.StatusCode)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	mentor := s.user(t, authorize.RoleMentor)
	student := s.user(t, authorize.RoleStudent)
	other := s.user(t, authorize.RoleStudent)
	mentorID := s.userID(t, mentor)

	res := s.do(t, nethttp.MethodPost, "/api/mentors/me/availability", mentor, []map[string]any{
		{"dayOfWeek": 1, "startTime": "09:00", "endTime": "17:00"},
	})
	require.Equal(t, nethttp.StatusCreated, res.status, res.body.Message)

	res = s.do(t, nethttp.MethodPost, "/api/mentors/me/availability", student, []map[string]any{
		{"dayOfWeek": 1, "startTime": "09:00", "endTime": "10:00"},
	})
	assert.Equal(t, nethttp.StatusForbidden, res.status)

	res = s.do(t, nethttp.MethodGet, "/api/mentors/"+mentorID.String()+"/availability", "", nil)
	require.Equal(t, nethttp.StatusOK, res.status)
	var slots []*repo.AvailabilitySlot
	require.NoError(t, json.Unmarshal(res.body.Data, &slots))
	require.Len(t, slots, 1)

	day := nextMonday()
	book := func(token string, from, to time.Time) response {
		return s.do(t, nethttp.MethodPost, "/api/appointments", token, map[string]any{
			"mentorId": mentorID.String(),
			"startsAt": from.Format(time.RFC3339),
			"endsAt":   to.Format(time.RFC3339),
			"title":    "Career chat",
		})
	}

	res = book(student, day.Add(10*time.Hour), day.Add(11*time.Hour))
	require.Equal(t, nethttp.StatusCreated, res.status, res.body.Message)
	var appt repo.Appointment
	require.NoError(t, json.Unmarshal(res.body.Data, &appt))
	assert.Equal(t, repo.StatusPending, appt.Status)
	require.NotNil(t, appt.Mentor)

	res = book(other, day.Add(10*time.Hour+30*time.Minute), day.Add(11*time.Hour+30*time.Minute))
	assert.Equal(t, nethttp.StatusConflict, res.status)
	assert.Equal(t, "MENTOR_BUSY", res.body.Code)

	res = book(other, day.Add(7*time.Hour), day.Add(8*time.Hour))
	assert.Equal(t, nethttp.StatusUnprocessableEntity, res.status)
	assert.Equal(t, "NOT_WITHIN_AVAILABILITY", res.body.Code)

	res = book(mentor, day.Add(12*time.Hour), day.Add(13*time.Hour))
	assert.Equal(t, nethttp.StatusForbidden, res.status)

	res = s.do(t, nethttp.MethodPost, "/api/appointments", student, map[string]any{
		"mentorId": mentorID.String(), "startsAt": "tomorrow", "endsAt": "later",
	})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, res.status)
	assert.Equal(t, "Invalid date format for startsAt or endsAt", res.body.Message)

	path := "/api/appointments/" + appt.ID.String()

	res = s.do(t, nethttp.MethodGet, path, other, nil)
	assert.Equal(t, nethttp.StatusForbidden, res.status)

	res = s.do(t, nethttp.MethodPatch, path+"/confirm", student, nil)
	assert.Equal(t, nethttp.StatusForbidden, res.status)

	res = s.do(t, nethttp.MethodPut, path+"/confirm", mentor, nil)
	require.Equal(t, nethttp.StatusOK, res.status, res.body.Message)
	require.NoError(t, json.Unmarshal(res.body.Data, &appt))
	assert.Equal(t, repo.StatusConfirmed, appt.Status)

	res = s.do(t, nethttp.MethodPut, path+"/meeting", mentor, map[string]string{
		"id": "m-1", "joinUrl": "https://meet.example.com/m-1",
	})
	require.Equal(t, nethttp.StatusOK, res.status, res.body.Message)

	res = s.do(t, nethttp.MethodPatch, path+"/cancel", student, map[string]string{"reason": "sick"})
	require.Equal(t, nethttp.StatusOK, res.status, res.body.Message)
	require.NoError(t, json.Unmarshal(res.body.Data, &appt))
	assert.Equal(t, repo.StatusCancelled, appt.Status)

	res = s.do(t, nethttp.MethodPatch, path+"/complete", mentor, nil)
	assert.Equal(t, nethttp.StatusConflict, res.status)

	res = s.do(t, nethttp.MethodGet, "/api/appointments/my?status=cancelled", student, nil)
	require.Equal(t, nethttp.StatusOK, res.status)
	require.NotNil(t, res.body.Meta)
	assert.Equal(t, 1, res.body.Meta.Total)
	assert.Equal(t, 10, res.body.Meta.Limit)

	res = s.do(t, nethttp.MethodGet, "/api/appointments?status=bogus", student, nil)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, res.status)
}

func TestAvailabilitySlotRoutes(t *testing.T) {
	s := newTestServer(t)
	mentor := s.user(t, authorize.RoleMentor)
	rival := s.user(t, authorize.RoleMentor)

	res := s.do(t, nethttp.MethodPost, "/api/mentors/me/availability", mentor, []map[string]any{
		{"dayOfWeek": 2, "startTime": "08:00", "endTime": "12:00"},
	})
	require.Equal(t, nethttp.StatusCreated, res.status, res.body.Message)
	var slots []*repo.AvailabilitySlot
	require.NoError(t, json.Unmarshal(res.body.Data, &slots))
	require.Len(t, slots, 1)
	slotPath := "/api/mentors/me/availability/" + slots[0].ID.String()

	res = s.do(t, nethttp.MethodPut, slotPath, rival, map[string]any{"endTime": "13:00"})
	assert.Equal(t, nethttp.StatusForbidden, res.status)

	res = s.do(t, nethttp.MethodPut, slotPath, mentor, map[string]any{"startTime": "25:00"})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, res.status)

	res = s.do(t, nethttp.MethodPost, "/api/mentors/me/availability", mentor, []map[string]any{})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, res.status)

	res = s.do(t, nethttp.MethodDelete, slotPath, mentor, nil)
	assert.Equal(t, nethttp.StatusNoContent, res.status)

	res = s.do(t, nethttp.MethodDelete, slotPath, mentor, nil)
	assert.Equal(t, nethttp.StatusNotFound, res.status)

	res = s.do(t, nethttp.MethodGet, "/api/mentors/not-a-uuid/availability", "", nil)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, res.status)

	res = s.do(t, nethttp.MethodGet, "/api/mentors/"+s.userID(t, mentor).String()+"/availability/open?date=2025-13-01", "", nil)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, res.status)
}

func TestLivenessProbe(t *testing.T) {
	s := newTestServer(t)
	res, err := s.app.Test(httptest.NewRequest(nethttp.MethodGet, "/livez", nil))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, nethttp.StatusOK, res.StatusCode)
}

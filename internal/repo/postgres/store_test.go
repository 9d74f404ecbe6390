package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/crypto"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, repo.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), repo.ErrNotFound},
		{"mentor exclusion", &pq.Error{Code: "23P01", Constraint: "appointments_mentor_no_overlap"}, repo.ErrMentorOverlap},
		{"student exclusion", &pq.Error{Code: "23P01", Constraint: "appointments_student_no_overlap"}, repo.ErrStudentOverlap},
		{"unique", &pq.Error{Code: "23505", Constraint: "users_email_key"}, repo.ErrDuplicate},
		{"foreign key", &pq.Error{Code: "23503", Constraint: "availability_slots_mentor_profile_id_fkey"}, repo.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("mapError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	other := &pq.Error{Code: "40001"}
	if got := mapError(other); got != other {
		t.Errorf("unrelated pq errors must pass through, got %v", got)
	}
	if mapError(nil) != nil {
		t.Error("mapError(nil) must be nil")
	}
}

func TestFilterPredicate(t *testing.T) {
	if filterPredicate(repo.AppointmentFilter{}) != nil {
		t.Error("empty filter must not produce a predicate")
	}

	status := repo.StatusPending
	sel := psql.Select("id").From(psql.Table(appointmentsTable))
	sel.Where(filterPredicate(repo.AppointmentFilter{Status: &status}))
	_, args := sel.Query()
	if len(args) != 1 || args[0] != "PENDING" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestStartURLSealing(t *testing.T) {
	sealer, err := crypto.NewSealer("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatal(err)
	}
	sealed := &appointmentRepo{sealer: sealer}
	plain := &appointmentRepo{}

	const link = "https://meet.example.com/s/1?host=1"

	v, err := sealed.sealStartURL(link)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Valid || v.String == link {
		t.Fatalf("expected a sealed value, got %+v", v)
	}
	got, err := sealed.openStartURL(v)
	if err != nil || got != link {
		t.Errorf("openStartURL = %q, %v", got, err)
	}

	v, _ = plain.sealStartURL(link)
	if v.String != link {
		t.Errorf("without a key the link is stored as is, got %q", v.String)
	}
	if v, _ := sealed.sealStartURL(""); v.Valid {
		t.Error("empty link must store NULL")
	}
}

package pasetotoken

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newManager(t *testing.T, keys Keys) *Manager {
	t.Helper()
	m, err := New(Config{Mode: keys.Mode, Issuer: "mentorbook", Audience: "mentorbook-api"}, keys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	for _, keys := range []Keys{NewLocalKeys(), NewPublicKeys()} {
		t.Run(string(keys.Mode), func(t *testing.T) {
			m := newManager(t, keys)
			uid := uuid.New()
			sid := uuid.New()

			tok, err := m.IssueAccess(uid, "MENTOR", &sid, 0)
			if err != nil {
				t.Fatalf("IssueAccess: %v", err)
			}

			c, err := m.Verify(tok)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if c.UserID != uid || c.GetRole() != "MENTOR" || c.Type != TokenTypeAccess {
				t.Errorf("unexpected claims %+v", c)
			}
			if c.SessionID == nil || *c.SessionID != sid {
				t.Errorf("session id = %v, want %v", c.SessionID, sid)
			}
			if c.IsExpired() {
				t.Error("fresh token reported expired")
			}
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	m := newManager(t, NewLocalKeys())
	other := newManager(t, NewLocalKeys())

	tok, err := other.IssueAccess(uuid.New(), "STUDENT", nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"foreign key": tok,
		"garbage":     "v4.local.not-a-token",
		"empty":       "",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(in)
			var invalid ErrInvalidToken
			if !errors.As(err, &invalid) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestIssueRequiresRole(t *testing.T) {
	m := newManager(t, NewLocalKeys())
	if _, err := m.IssueAccess(uuid.New(), "", nil, 0); err == nil {
		t.Error("expected error for empty role")
	}
}

func TestLoadKeys(t *testing.T) {
	if _, err := LoadKeys(KeyStrings{Mode: ModeLocal}); err == nil {
		t.Error("local mode without key should fail")
	}
	if _, err := LoadKeys(KeyStrings{Mode: ModePublic}); err == nil {
		t.Error("public mode without keys should fail")
	}
	if _, err := LoadKeys(KeyStrings{Mode: "hmac"}); err == nil {
		t.Error("unknown mode should fail")
	}

	local := NewLocalKeys()
	got, err := LoadKeys(KeyStrings{Mode: ModeLocal, SymmetricHex: local.Symmetric.ExportHex()})
	if err != nil {
		t.Fatalf("LoadKeys: %v", err)
	}
	if got.Symmetric == nil {
		t.Error("symmetric key not loaded")
	}
}

func TestVerifyOnlyManager(t *testing.T) {
	signer := NewPublicKeys()
	issuer := newManager(t, signer)

	verifyOnly, err := LoadKeys(KeyStrings{Mode: ModePublic, PublicHex: signer.Export().PublicHex})
	if err != nil {
		t.Fatal(err)
	}
	m := newManager(t, verifyOnly)

	tok, err := issuer.IssueAccess(uuid.New(), "ADMIN", nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Verify(tok); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if _, err := m.IssueAccess(uuid.New(), "ADMIN", nil, 0); err == nil {
		t.Error("verify-only manager must not issue")
	}
}

func TestLoadKeysRejectsMismatchedPair(t *testing.T) {
	a, b := NewPublicKeys().Export(), NewPublicKeys().Export()
	if _, err := LoadKeys(KeyStrings{Mode: ModePublic, SecretHex: a.SecretHex, PublicHex: b.PublicHex}); err == nil {
		t.Error("expected mismatch error")
	}
	if _, err := LoadKeys(KeyStrings{Mode: ModePublic, SecretHex: a.SecretHex, PublicHex: a.PublicHex}); err != nil {
		t.Errorf("matching pair rejected: %v", err)
	}
}

package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func mustSealer(t *testing.T, key string) *Sealer {
	t.Helper()
	s, err := NewSealer(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSealOpen(t *testing.T) {
	s := mustSealer(t, testKey)
	const link = "https://meet.example.com/s/123?role=host"

	a, err := s.Seal(link, "start_url")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Seal(link, "start_url")
	if a == b {
		t.Error("expected a fresh nonce per call")
	}
	if !strings.HasPrefix(a, "v1.") || strings.Contains(a, "meet.example.com") {
		t.Errorf("unexpected sealed form %q", a)
	}

	got, err := s.Open(a, "start_url")
	if err != nil {
		t.Fatal(err)
	}
	if got != link {
		t.Errorf("Open = %q, want %q", got, link)
	}
}

func TestOpenRejects(t *testing.T) {
	s := mustSealer(t, testKey)
	other := mustSealer(t, strings.Repeat("ff", 32))
	foreign, _ := other.Seal("secret", "x")
	relabelled, _ := s.Seal("secret", "x")

	tests := map[string]struct {
		in, label string
	}{
		"wrong key":   {foreign, "x"},
		"wrong label": {relabelled, "y"},
		"no prefix":   {"AAAA", "x"},
		"not base64":  {"v1.%%%", "x"},
		"too short":   {"v1.AAAA", "x"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Open(tt.in, tt.label); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewSealerKey(t *testing.T) {
	for _, k := range []string{"abcd", "zz", ""} {
		if _, err := NewSealer(k); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("NewSealer(%q) = %v", k, err)
		}
	}
}

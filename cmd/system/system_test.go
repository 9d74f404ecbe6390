package system

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/mentorbook_backend/pkg/paseto"
)

func runSystem(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "mentorbook", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "config.yaml", "")
	root.AddCommand(NewSystemCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTokenIssue(t *testing.T) {
	keys := pasetotoken.NewLocalKeys()
	dir := t.TempDir()
	cfg := "authentication:\n  paseto:\n    mode: local\n    local_key_hex: " + keys.Symmetric.ExportHex() + "\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgFlag := "--config=" + filepath.Join(dir, "config.yaml")

	uid := uuid.New()
	out, err := runSystem(t, "system", "token", "issue", cfgFlag, "--user", uid.String(), "--role", "mentor")
	if err != nil {
		t.Fatalf("token issue: %v", err)
	}

	mgr, err := pasetotoken.New(pasetotoken.Config{Mode: keys.Mode, Issuer: "mentorbook", Audience: "mentorbook-api"}, keys)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := mgr.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != uid || claims.GetRole() != "MENTOR" {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := runSystem(t, "system", "token", "issue", cfgFlag, "--user", uid.String(), "--role", "janitor"); err == nil {
		t.Error("expected unknown role to fail")
	}
	if _, err := runSystem(t, "system", "token", "issue", cfgFlag, "--user", "nope", "--role", "student"); err == nil {
		t.Error("expected bad user id to fail")
	}
}

func TestTokenKeygen(t *testing.T) {
	out, err := runSystem(t, "system", "token", "keygen", "--mode", "public")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	ks := pasetotoken.KeyStrings{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		k, v, _ := strings.Cut(line, ": ")
		switch k {
		case "mode":
			ks.Mode = pasetotoken.Mode(v)
		case "secret_key_hex":
			ks.SecretHex = v
		case "public_key_hex":
			ks.PublicHex = v
		}
	}
	if _, err := pasetotoken.LoadKeys(ks); err != nil {
		t.Errorf("generated keys do not load: %v", err)
	}

	if _, err := runSystem(t, "system", "token", "keygen", "--mode", "v2"); err == nil {
		t.Error("expected unknown mode to fail")
	}
}

func TestGenDocs(t *testing.T) {
	dir := t.TempDir()
	if _, err := runSystem(t, "system", "gendocs", "--outdir", dir); err != nil {
		t.Fatalf("gendocs: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mentorbook_system_token_keygen.md")); err != nil {
		t.Errorf("expected keygen page: %v", err)
	}
	if _, err := runSystem(t, "system", "gendocs", "--outdir", dir, "--format", "pdf"); err == nil {
		t.Error("expected unknown format to fail")
	}
}

package system

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/mentorbook_backend/pkg/paseto"
)

func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token tooling for development",
	}
	cmd.AddCommand(newTokenIssueCommand(), newTokenKeygenCommand())
	return cmd
}

func newTokenIssueCommand() *cobra.Command {
	var (
		userID, role string
		ttl          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint an access token with the configured PASETO keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			r, err := authorize.ParseRole(role)
			if err != nil {
				return err
			}

			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return err
			}

			tok, err := mgr.IssueAccess(uid, r.String(), nil, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id the token is issued for")
	cmd.Flags().StringVar(&role, "role", "", "Role carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime, defaults to authentication.paseto.access_ttl_minutes")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newTokenKeygenCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print fresh PASETO key material for authentication.paseto",
		RunE: func(cmd *cobra.Command, args []string) error {
			var keys pasetotoken.Keys
			switch pasetotoken.Mode(mode) {
			case pasetotoken.ModeLocal:
				keys = pasetotoken.NewLocalKeys()
			case pasetotoken.ModePublic:
				keys = pasetotoken.NewPublicKeys()
			default:
				return fmt.Errorf("invalid --mode %q, want local or public", mode)
			}

			ks := keys.Export()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode: %s\n", ks.Mode)
			if ks.SymmetricHex != "" {
				fmt.Fprintf(out, "local_key_hex: %s\n", ks.SymmetricHex)
			}
			if ks.SecretHex != "" {
				fmt.Fprintf(out, "secret_key_hex: %s\n", ks.SecretHex)
				fmt.Fprintf(out, "public_key_hex: %s\n", ks.PublicHex)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(pasetotoken.ModeLocal), "Key kind: local or public")
	return cmd
}

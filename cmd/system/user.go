package system

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo/postgres"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/database"
)

func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the local identity directory",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Insert a user record that bookings can reference",
		Long: `Identities are issued by an external provider. This command seeds the
users table with one record so local and test environments can book against it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := authorize.ParseRole(role)
			if err != nil {
				return err
			}
			addr, err := mail.ParseAddress(email)
			if err != nil {
				return fmt.Errorf("invalid --email: %w", err)
			}
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}

			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("database.driver is %q, users would not outlive this command", config.DriverMemory)
			}

			db, err := database.Open(database.FromCentralConfig(cfg.Database))
			if err != nil {
				return err
			}
			store := postgres.New(db)
			defer store.Close()

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.TimeoutSeconds)*time.Second)
			defer cancel()

			u := &repo.User{Name: strings.TrimSpace(name), Email: strings.ToLower(addr.Address), Role: r}
			if err := store.Users().Create(ctx, u); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return fmt.Errorf("a user with email %s already exists", u.Email)
				}
				return err
			}

			fmt.Printf("Created %s %s (%s)\n", u.Role, u.ID, u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Unique email address")
	cmd.Flags().StringVar(&role, "role", "", "STUDENT, MENTOR, PROFESSOR or ADMIN")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

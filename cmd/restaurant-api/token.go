package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"restaurant-api/internal/domain"
	"restaurant-api/internal/usecase"
)

func newTokenCmd(load loader) *cobra.Command {
	var (
		sub   string
		email string
		role  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed development token for the staff routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if sub == "" {
				sub = uuid.NewString()
			}
			auth := &usecase.AuthService{JWTSecret: cfg.JWTSecret}
			tok, err := auth.IssueToken(&domain.User{ID: sub, Email: email, Role: role}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&sub, "sub", "", "user id (random when empty)")
	fl.StringVar(&email, "email", "staff@example.com", "user email")
	fl.StringVar(&role, "role", domain.RoleStaff, "application role: admin or staff")
	fl.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}

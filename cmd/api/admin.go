package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swasthatech/hospital-service/internal/users"
)

func createAdminCmd() *cobra.Command {
	var req users.RegisterRequest
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an approved admin account",
		Long: "Creates an Admin account whose profile is approved without an approver.\n" +
			"Use it once on a fresh database so later admin registrations can be approved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup()
			if err != nil {
				return err
			}
			defer conn.Close()

			// No issuer: bootstrap never returns a token.
			svc := users.NewService(users.NewRepository(conn), nil, nil, nil, cfg.OrgEmailDomain)
			resp, err := svc.BootstrapAdmin(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %s (user id %d)\n", resp.User.Email, resp.User.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email (must use the organisation domain)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "Admin full name")
	cmd.Flags().StringVar(&req.Department, "department", "", "Admin department")
	cmd.Flags().StringVar(&req.ContactNo, "contact-no", "", "Admin contact number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("department")
	return cmd
}

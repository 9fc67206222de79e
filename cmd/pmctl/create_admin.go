package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"gorm.io/gorm"
)

// createAdminCmd bootstraps the first admin, who can then register everyone else.
func createAdminCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin user",
		Long: `Create an admin user. The password is read from PMCTL_ADMIN_PASSWORD.

Examples:
  PMCTL_ADMIN_PASSWORD=... pmctl create-admin --email admin@example.com --name Admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("PMCTL_ADMIN_PASSWORD")
			if password == "" {
				return errors.New("PMCTL_ADMIN_PASSWORD is not set")
			}

			user, err := services.NewUser(services.CreateUserInput{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     string(models.RoleAdmin),
			})
			if err != nil {
				return err
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			if err := repository.NewStore(db).Users().Create(cmd.Context(), user); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("a user with email %s already exists", user.Email)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Admin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

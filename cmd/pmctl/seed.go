package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/seed"
)

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, projects and tasks from a YAML fixture",
		Long: `Load a YAML fixture into the database.

Rows that already exist are skipped: users by email, projects by name and
tasks by title within their project. The whole fixture is applied in one
transaction.

Examples:
  pmctl seed --file seed.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.LoadFile(file)
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

			logger := newLogger()
			defer logger.Sync() //nolint:errcheck

			res, err := seed.Apply(cmd.Context(), repository.NewStore(db), fixture, logger)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Users:    %d created\n", res.UsersCreated)
			fmt.Fprintf(cmd.OutOrStdout(), "Projects: %d created\n", res.ProjectsCreated)
			fmt.Fprintf(cmd.OutOrStdout(), "Tasks:    %d created\n", res.TasksCreated)
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped:  %d\n", res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "fixture file")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/shoplist/internal/database"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/store"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(opts.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := database.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var name, password string
	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.ToLower(strings.TrimSpace(args[0]))
			if email == "" || password == "" {
				return fmt.Errorf("email and --password are required")
			}
			if name == "" {
				name, _, _ = strings.Cut(email, "@")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			db, err := database.Open(opts.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := store.NewUserStore(db).Create(cmd.Context(), email, name, string(hash))
			if err != nil {
				return err
			}
			opts.logger.Info("user created", "user_id", u.ID, "email", u.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name (defaults to the email local part)")
	add.Flags().StringVar(&password, "password", "", "initial password")

	cmd.AddCommand(add)
	return cmd
}

func newRecipeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage the local recipe catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.json>",
		Short: "Load recipes from a JSON array into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var recipes []model.Recipe
			if err := json.Unmarshal(data, &recipes); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			db, err := database.Open(opts.cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			recipeStore := store.NewRecipeStore(db)
			for i := range recipes {
				r := &recipes[i]
				if r.ID == "" {
					return fmt.Errorf("recipe %d has no id", i)
				}
				if r.Source == "" {
					r.Source = "catalog"
				}
				if err := recipeStore.Save(cmd.Context(), r); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d recipes\n", len(recipes))
			return nil
		},
	})
	return cmd
}

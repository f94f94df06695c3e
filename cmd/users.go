/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jjudge-oj/authsvc/config"
	"github.com/jjudge-oj/authsvc/internal/password"
	"github.com/jjudge-oj/authsvc/internal/server"
	"github.com/jjudge-oj/authsvc/internal/services"
	"github.com/jjudge-oj/authsvc/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// usersCmd groups directory maintenance commands.
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect and export the user directory",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every user as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		repo, dbConn, err := server.OpenDirectory(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if dbConn != nil {
			defer dbConn.Close()
		}

		userService := services.NewUserService(repo, password.NewHasher(cfg.Auth.BcryptCost), nil)
		users, err := userService.List(cmd.Context())
		if err != nil {
			return err
		}
		count, err := userService.Count(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int("users", count).Msg("Directory listed")

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	},
}

var usersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload a snapshot of the directory to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		repo, dbConn, err := server.OpenDirectory(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if dbConn != nil {
			defer dbConn.Close()
		}

		objects, err := storage.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open object storage: %w", err)
		}
		defer objects.Close()

		key, count, err := services.NewExportService(repo, objects).Export(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Str("bucket", objects.Bucket()).Str("key", key).Int("users", count).Msg("Directory exported")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersExportCmd)
}

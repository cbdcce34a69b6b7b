// Package main provides the triage admin CLI.
package main

import (
	"consult_flow_app_go/cmd/triage/commands"
	"consult_flow_app_go/config"
	"consult_flow_app_go/db"
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	var cfg *config.Config

	// The database is opened on first use so classify/assess run without one
	openDB := func() (*gorm.DB, error) {
		if db.DB != nil {
			return db.DB, nil
		}
		if err := db.Initialize(db.Options{
			Path:        cfg.DBPath,
			Environment: "production",
			TursoURL:    cfg.TursoDatabaseURL,
			TursoToken:  cfg.TursoAuthToken,
		}); err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, err
		}
		return db.DB, nil
	}

	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Consultation triage and routing administration",
		Long: `Consultation triage and routing administration.

Runs the risk classifiers offline and performs routing, scoring and
roster maintenance directly against the configured database.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logger.Init("development")
			}
			cfg = config.Load()
			services.SetScheduleLocation(cfg.Location())
		},
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(commands.TriageCommands()...)
	rootCmd.AddCommand(commands.RoutingCommands(openDB)...)
	rootCmd.AddCommand(commands.AdminCommands(openDB)...)

	err := rootCmd.Execute()
	if closeErr := db.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

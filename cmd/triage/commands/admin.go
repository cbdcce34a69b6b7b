package commands

import (
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// AdminCommands returns user, roster and workload maintenance commands
func AdminCommands(openDB OpenDB) []*cobra.Command {
	return []*cobra.Command{createUserCmd(openDB), workloadCmd(openDB), importRosterCmd(openDB)}
}

func createUserCmd(openDB OpenDB) *cobra.Command {
	var name, email, role, city, province string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account. Admin accounts are needed to override routing
decisions and manage form templates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			name = strings.TrimSpace(name)
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}
			switch role {
			case models.RoleUser, models.RoleConsultant, models.RoleAdmin:
			default:
				return fmt.Errorf("invalid role %q (must be user, consultant or admin)", role)
			}

			database, err := openDB()
			if err != nil {
				return err
			}

			var count int64
			if err := database.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check existing users: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("a user with email %s already exists", email)
			}

			user := &models.User{
				Name:     name,
				Email:    email,
				Role:     role,
				IsActive: true,
				City:     strings.TrimSpace(city),
				Province: strings.TrimSpace(province),
			}
			if err := database.Create(user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "User created")
			fmt.Fprintf(out, "  ID:    %s\n", user.ID)
			fmt.Fprintf(out, "  Email: %s\n", user.Email)
			fmt.Fprintf(out, "  Role:  %s\n", user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", models.RoleUser, "Role: user, consultant or admin")
	cmd.Flags().StringVar(&city, "city", "", "City")
	cmd.Flags().StringVar(&province, "province", "", "Province, used for same-region routing")
	return cmd
}

func workloadCmd(openDB OpenDB) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Show consultant workload, or export it with --out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			if out == "" {
				workloads, err := services.ListConsultantWorkloads(database, now())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), workloads)
			}

			buf, err := services.GenerateWorkloadReport(database, now())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write an xlsx report to this path")
	return cmd
}

func importRosterCmd(openDB OpenDB) *cobra.Command {
	return &cobra.Command{
		Use:   "import-roster <file.xlsx>",
		Short: "Create or update consultants from a roster workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			database, err := openDB()
			if err != nil {
				return err
			}
			result, err := services.ImportConsultantRoster(database, f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "processed %d, created %d, updated %d\n", result.TotalProcessed, result.Created, result.Updated)
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
			return nil
		},
	}
}

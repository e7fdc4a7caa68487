package cli

import (
	"github.com/spf13/cobra"
)

// addProfileCommands adds profile management commands.
func addProfileCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile management",
		Long:  "Create, list and delete trading profiles. Each profile keeps an isolated record.",
	}

	cmd.AddCommand(newProfileCreateCmd(app))
	cmd.AddCommand(newProfileListCmd(app))
	cmd.AddCommand(newProfileDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func newProfileCreateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			p, err := app.Registry.Create(cmd.Context(), args[0])
			if err != nil {
				output.Error("Failed to create profile: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(p)
			}
			output.Success("Profile %q created", p.Name)
			output.Dim("id: %s", p.ID)
			return nil
		},
	}
}

func newProfileListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			profiles, err := app.Registry.List(cmd.Context())
			if err != nil {
				output.Error("Failed to list profiles: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(profiles)
			}
			if len(profiles) == 0 {
				output.Info("No profiles yet. Create one with 'companion profile create <name>'.")
				return nil
			}

			table := NewTable(output, "Name", "ID", "Created")
			for _, p := range profiles {
				table.AddRow(p.Name, p.ID, p.CreatedAt.Format("02-Jan-2006"))
			}
			table.Render()
			return nil
		},
	}
}

func newProfileDeleteCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a profile and its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if !force {
				output.Warning("Deleting a profile removes its entire record. Re-run with --force to confirm.")
				return nil
			}

			if err := app.Registry.Delete(cmd.Context(), args[0]); err != nil {
				output.Error("Failed to delete profile: %v", err)
				return err
			}
			output.Success("Profile deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/profile"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure blockrec (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before profile exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard and saves the profile.
func runSetup(cmd *cobra.Command) error {
	// Load existing profile as defaults if present.
	var existing *profile.Profile
	if profile.Exists() {
		p, err := profile.Load()
		if err == nil {
			existing = p
		}
	}

	c, err := notice.LoadEmbedded()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	prof, err := profile.RunSetup(cmd.InOrStdin(), out, existing, c.Locales())
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	fmt.Fprintln(out, "  ✓ Profile saved.")
	fmt.Fprintln(out, "  Setup complete. Run 'blockrec record --script FILE' to record a session.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

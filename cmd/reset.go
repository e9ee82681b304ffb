package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/session"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset [FILE]",
	Short: "Discard the current session, or strip the recording from a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pr, err := printer()
		if err != nil {
			return err
		}
		if !resetYes && term.IsTerminal(os.Stdin.Fd()) {
			cmd.Printf("%s [y/N]: ", pr.Text(notice.ResetConfirm))
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				return nil
			}
		}

		if len(args) > 0 {
			p, err := readProjectFile(args[0])
			if err != nil {
				return err
			}
			p.Recording = nil
			if err := writeProjectFile(args[0], p); err != nil {
				return err
			}
		} else {
			store, err := session.NewSessionStore()
			if err != nil {
				return err
			}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("deleting session: %w", err)
			}
		}
		cmd.Println(pr.Text(notice.ResetDone))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

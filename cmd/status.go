package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/recorder"
	"github.com/fakeyudi/blockrec/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status [FILE]",
	Short: "Show the recording of the current session or a project file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadTarget(args)
		if err != nil {
			return err
		}
		pr, err := printer()
		if err != nil {
			return err
		}
		s := p.Recording
		if s == nil {
			s = &session.Session{}
		}

		none := pr.Text(notice.TimeNone)
		if len(args) > 0 {
			cmd.Printf("Project: %s (%s)\n", p.Title, p.Board)
		}
		cmd.Printf("State: %s\n", pr.Text(recorder.Stopped.NoticeKey()))
		cmd.Printf("Events: %d\n", s.Len())
		cmd.Printf("Duration: %s\n", recorder.FormatDuration(s.Duration()))
		cmd.Printf("Started: %s\n", recorder.FormatDateTime(s.Metadata.StartTime, none))
		cmd.Printf("Ended: %s\n", recorder.FormatDateTime(s.Metadata.EndTime, none))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

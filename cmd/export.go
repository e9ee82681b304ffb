package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/project"
	"github.com/fakeyudi/blockrec/internal/session"
)

var (
	exportFormat string
	exportOut    string
	exportTitle  string
)

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export a recording or render a project",
	Long: `Export writes the recording of the current session (or of the given
project file) in its portable JSON form. With --format xml, json or markdown
the whole project is rendered instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadTarget(args)
		if err != nil {
			return err
		}
		if exportTitle != "" {
			p.Title = exportTitle
		}

		var data []byte
		if exportFormat == "session" {
			if p.Recording == nil {
				return fmt.Errorf("no recording to export")
			}
			data, err = session.Export(p.Recording)
			if err != nil {
				return err
			}
			data = append(data, '\n')
		} else {
			r, err := project.RendererFor(project.Format(exportFormat))
			if err != nil {
				return err
			}
			data, err = r.Render(p)
			if err != nil {
				return err
			}
		}
		return writeOut(cmd, exportOut, data)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "session", "session, xml, json or markdown")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "project title")
	rootCmd.AddCommand(exportCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/project"
	"github.com/fakeyudi/blockrec/internal/session"
	"github.com/fakeyudi/blockrec/internal/workspace"
)

var importInto string

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a recording as the current session or into a project",
	Long: `Import reads a session export or any saved project and takes its
recording. The recording becomes the current session, or with --into it is
embedded in the given project file. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		rec, err := newRecorder(cmd, workspace.New())
		if err != nil {
			return err
		}
		p, err := project.Parse(data)
		switch {
		case err == nil && p.Recording != nil:
			err = rec.LoadSession(p.Recording)
		case err == nil:
			return fmt.Errorf("%s carries no recording", args[0])
		case errors.Is(err, project.ErrBadRecording):
			return err
		default:
			// Not a project: let the recorder judge it as a session export.
			err = rec.ImportSession(data)
		}
		if err != nil {
			return err
		}

		if importInto != "" {
			target, err := readProjectFile(importInto)
			if err != nil {
				return err
			}
			target.Recording = rec.Session()
			return writeProjectFile(importInto, target)
		}

		store, err := session.NewSessionStore()
		if err != nil {
			return err
		}
		return store.Save(rec.Session())
	},
}

func init() {
	importCmd.Flags().StringVar(&importInto, "into", "", "embed the recording in this project file instead")
	rootCmd.AddCommand(importCmd)
}

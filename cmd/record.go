package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/project"
	"github.com/fakeyudi/blockrec/internal/recorder"
	"github.com/fakeyudi/blockrec/internal/script"
	"github.com/fakeyudi/blockrec/internal/session"
	"github.com/fakeyudi/blockrec/internal/workspace"
)

var (
	recordScript string
	recordFollow string
	recordFrom   string
	recordOut    string
	recordTitle  string
	recordBoard  string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a block assembly session driven by a script or a live journal",
	Long: `Record starts a recording, applies user edits to the workspace and stops
when the edits are done. Edits come from a YAML script (--script) or from a
JSON Lines journal that is followed until interrupted (--follow).

The recording becomes the current session. With --out it is also saved in a
project file together with the final workspace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (recordScript == "") == (recordFollow == "") {
			return fmt.Errorf("exactly one of --script or --follow is required")
		}

		ws := workspace.New()
		proj := project.New()
		proj.Board = cfg.DefaultBoard
		if recordFrom != "" {
			p, err := readProjectFile(recordFrom)
			if err != nil {
				return err
			}
			proj = p
			if p.Workspace != nil {
				if err := ws.Restore(*p.Workspace); err != nil {
					return fmt.Errorf("restore %s: %w", recordFrom, err)
				}
			}
		}
		if recordTitle != "" {
			proj.Title = recordTitle
		}
		if recordBoard != "" {
			proj.Board = recordBoard
		}

		rec, err := newRecorder(cmd, ws)
		if err != nil {
			return err
		}
		if err := rec.StartRecording(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		runner := script.NewRunner(ws, script.WithLogger(logger))
		var runErr error
		if recordScript != "" {
			s, err := script.LoadFile(recordScript)
			if err != nil {
				runErr = err
			} else {
				logger.Info("running script", "name", s.Name, "ops", len(s.Ops))
				runErr = runner.Run(ctx, s.Ops)
			}
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "following %s, press Ctrl+C to stop\n", recordFollow)
			runErr = runner.Follow(ctx, recordFollow)
		}
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}

		// The cap may already have stopped the recording.
		if rec.State() == recorder.Recording {
			if err := rec.StopRecording(); err != nil {
				return err
			}
		}

		sess := rec.Session()
		store, err := session.NewSessionStore()
		if err != nil {
			return err
		}
		if err := store.Save(sess); err != nil {
			return err
		}

		if recordOut != "" {
			snap, err := ws.Snapshot()
			if err != nil {
				return err
			}
			proj.Workspace = &snap
			proj.Recording = sess
			path := outPath(recordOut)
			if err := writeProjectFile(path, proj); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
		}
		return runErr
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordScript, "script", "", "YAML script (or .jsonl journal) of edits to apply")
	recordCmd.Flags().StringVar(&recordFollow, "follow", "", "JSON Lines journal to follow until interrupted")
	recordCmd.Flags().StringVar(&recordFrom, "from", "", "project file whose workspace to start from")
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "save the project with the recording to this file")
	recordCmd.Flags().StringVar(&recordTitle, "title", "", "project title")
	recordCmd.Flags().StringVar(&recordBoard, "board", "", "project board")
	rootCmd.AddCommand(recordCmd)
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/project"
	"github.com/fakeyudi/blockrec/internal/recorder"
	"github.com/fakeyudi/blockrec/internal/tui"
	"github.com/fakeyudi/blockrec/internal/workspace"
)

var (
	playSpeed int
	playPlain bool
	playOut   string
)

var playCmd = &cobra.Command{
	Use:   "play [FILE]",
	Short: "Replay a recording into a fresh workspace",
	Long: `Play replays the recording of the given project file, or the current
session, into a fresh workspace at 1x, 2x, 4x or 8x speed. On a terminal a
live monitor shows each applied event; press q to stop. With --plain, or
when output is not a terminal, events are printed line by line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadTarget(args)
		if err != nil {
			return err
		}
		if !p.HasRecording() {
			return fmt.Errorf("no recording to play")
		}
		speed := playSpeed
		if speed == 0 {
			speed = cfg.DefaultSpeed
		}

		ws := workspace.New()
		if playPlain || !term.IsTerminal(os.Stdout.Fd()) {
			err = playPlainRun(cmd, ws, p, speed)
		} else {
			err = playMonitored(cmd, ws, p, speed)
		}
		if err != nil {
			return err
		}

		if playOut != "" {
			snap, err := ws.Snapshot()
			if err != nil {
				return err
			}
			p.Workspace = &snap
			path := outPath(playOut)
			if err := writeProjectFile(path, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
		}
		return nil
	},
}

func playPlainRun(cmd *cobra.Command, ws *workspace.Workspace, p *project.Project, speed int) error {
	out := cmd.OutOrStdout()
	skipped := 0
	rec, err := newRecorder(cmd, ws, recorder.WithObserver(func(pr recorder.Progress) {
		if pr.Err != nil {
			skipped++
		}
		printProgress(out, pr)
	}))
	if err != nil {
		return err
	}
	if err := rec.LoadSession(p.Recording); err != nil {
		return err
	}
	if err := rec.PlayRecording(speed); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if err := rec.Wait(ctx); err != nil {
		rec.StopPlaying()
		<-rec.Done()
	}
	logger.Debug("playback done", "blocks", ws.Len(), "skipped", skipped)
	return nil
}

func printProgress(w io.Writer, pr recorder.Progress) {
	line := fmt.Sprintf("%4d/%-4d %9.3fs  %-7s %s  %s",
		pr.Applied, pr.Total,
		float64(pr.Event.Timestamp)/1000,
		strings.ToUpper(string(pr.Event.Kind())),
		pr.Event.NodeID,
		project.Describe(pr.Event))
	if pr.Err != nil {
		line += "  (skipped: " + pr.Err.Error() + ")"
	}
	fmt.Fprintln(w, line)
}

func playMonitored(cmd *cobra.Command, ws *workspace.Workspace, p *project.Project, speed int) error {
	pr, err := printer()
	if err != nil {
		return err
	}
	var rec *recorder.Recorder
	mon := tui.NewMonitor(pr, p.Title, p.Recording.Len(), func() { rec.StopPlaying() })
	rec, err = newRecorder(cmd, ws,
		recorder.WithOverlay(mon),
		recorder.WithObserver(mon.Observe),
		recorder.WithNotifier(mon),
	)
	if err != nil {
		return err
	}
	if err := rec.LoadSession(p.Recording); err != nil {
		return err
	}
	if err := rec.PlayRecording(speed); err != nil {
		return err
	}
	go func() {
		<-rec.Done()
		mon.Finish()
	}()

	runErr := mon.Run()
	rec.StopPlaying()
	<-rec.Done()
	return runErr
}

func init() {
	playCmd.Flags().IntVarP(&playSpeed, "speed", "s", 0, "playback speed: 1, 2, 4 or 8 (default from config)")
	playCmd.Flags().BoolVar(&playPlain, "plain", false, "print events instead of the live monitor")
	playCmd.Flags().StringVarP(&playOut, "out", "o", "", "save the replayed workspace with the recording to this file")
	rootCmd.AddCommand(playCmd)
}

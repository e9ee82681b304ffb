package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/project"
	"github.com/fakeyudi/blockrec/internal/recorder"
	"github.com/fakeyudi/blockrec/internal/session"
	"github.com/fakeyudi/blockrec/internal/workspace"
)

// newRecorder wires a recorder to ws with the configured logger, cap and a
// notifier printing to the command's output.
func newRecorder(cmd *cobra.Command, ws *workspace.Workspace, opts ...recorder.Option) (*recorder.Recorder, error) {
	p, err := printer()
	if err != nil {
		return nil, err
	}
	base := []recorder.Option{
		recorder.WithLogger(logger),
		recorder.WithMaxEvents(cfg.MaxEvents),
		recorder.WithNotifier(notice.NewWriterNotifier(cmd.OutOrStdout(), p)),
	}
	return recorder.New(ws, append(base, opts...)...), nil
}

// readProjectFile parses a project in any rendered form. A broken embedded
// recording is logged and the project is returned without it.
func readProjectFile(path string) (*project.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, err
	}
	p, err := project.Parse(data)
	if errors.Is(err, project.ErrBadRecording) && p != nil {
		logger.Warn("ignoring unreadable recording", "path", path, "err", err)
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// writeProjectFile renders p in the format implied by the file extension.
func writeProjectFile(path string, p *project.Project) error {
	format := project.FormatXML
	switch filepath.Ext(path) {
	case ".json":
		format = project.FormatJSON
	case ".md":
		format = project.FormatMarkdown
	}
	r, err := project.RendererFor(format)
	if err != nil {
		return err
	}
	data, err := r.Render(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// loadTarget returns the project named by args, or the current session
// wrapped in an untitled project.
func loadTarget(args []string) (*project.Project, error) {
	if len(args) > 0 {
		return readProjectFile(args[0])
	}
	store, err := session.NewSessionStore()
	if err != nil {
		return nil, err
	}
	s, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, fmt.Errorf("no recorded session, run 'blockrec record' first")
		}
		return nil, err
	}
	p := project.New()
	p.Board = cfg.DefaultBoard
	p.Recording = s
	return p, nil
}

// outPath resolves a relative output file against the configured output
// directory.
func outPath(name string) string {
	if name == "" || filepath.IsAbs(name) || cfg.OutputDir == "" || cfg.OutputDir == "." {
		return name
	}
	return filepath.Join(cfg.OutputDir, name)
}

func writeOut(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	path = outPath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}

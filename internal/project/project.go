// Package project reads and writes saved projects: the block workspace
// together with its embedded assembly recording.
package project

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/session"
)

const (
	DefaultTitle = "Untitled Project"
	DefaultBoard = "uno"

	// RecordingVersion is the version attribute of the embedded recording.
	RecordingVersion = "1.0"
)

var (
	// ErrNotProject is returned for input that is not a saved project.
	ErrNotProject = errors.New("not a blockrec project")
	// ErrBadRecording is returned alongside a usable project whose embedded
	// recording could not be read. The project is loaded without it.
	ErrBadRecording = errors.New("embedded recording could not be read")
)

// Project is one saved project.
type Project struct {
	Title string
	Board string
	// Workspace is the whole-document snapshot, nil for an empty project.
	Workspace *event.Snapshot
	// Recording is nil when the project carries none.
	Recording *session.Session
}

// New returns an empty project with default title and board.
func New() *Project {
	return &Project{Title: DefaultTitle, Board: DefaultBoard}
}

// HasRecording reports whether saving p embeds a recording: it has events
// or a recording was started.
func (p *Project) HasRecording() bool {
	return p.Recording != nil && !p.Recording.Empty()
}

func (p *Project) title() string {
	if p.Title == "" {
		return DefaultTitle
	}
	return p.Title
}

func (p *Project) board() string {
	if p.Board == "" {
		return DefaultBoard
	}
	return p.Board
}

// jsonProject is the JSON form used by the JSON renderer and inside the
// Markdown report payload.
type jsonProject struct {
	Title     string          `json:"title"`
	Board     string          `json:"board"`
	Workspace *event.Snapshot `json:"workspace"`
	Recording json.RawMessage `json:"recording,omitempty"`
}

func toJSON(p *Project) (*jsonProject, error) {
	j := &jsonProject{Title: p.title(), Board: p.board(), Workspace: p.Workspace}
	if p.HasRecording() {
		data, err := session.Export(p.Recording)
		if err != nil {
			return nil, err
		}
		j.Recording = data
	}
	return j, nil
}

func fromJSON(j *jsonProject) (*Project, error) {
	p := &Project{Title: j.Title, Board: j.Board, Workspace: j.Workspace}
	if len(j.Recording) > 0 && string(j.Recording) != "null" {
		s, err := session.Import(j.Recording)
		if err != nil {
			return p, fmt.Errorf("%w: %w", ErrBadRecording, err)
		}
		p.Recording = s
	}
	return p, nil
}

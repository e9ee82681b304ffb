package project

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/recorder"
)

const (
	reportSentinel = "<!-- blockrec-report-version: 1 -->"
	dataPrefix     = "<!-- blockrec-data: "
	dataSuffix     = " -->"
)

// Renderer serializes a Project to bytes.
type Renderer interface {
	Render(p *Project) ([]byte, error)
}

// JSONRenderer renders a Project as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(p *Project) ([]byte, error) {
	j, err := toJSON(p)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(j, "", "  ")
}

// MarkdownRenderer renders a human-readable report of the project's
// recording with an embedded base64 JSON payload for lossless parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(p *Project) ([]byte, error) {
	j, err := toJSON(p)
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(reportSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, base64.StdEncoding.EncodeToString(jsonBytes), dataSuffix)

	fmt.Fprintf(&sb, "# %s (%s)\n\n", j.Title, j.Board)

	sb.WriteString("## Summary\n\n")
	if !p.HasRecording() {
		sb.WriteString("_No recording._\n")
		return []byte(sb.String()), nil
	}
	s := p.Recording
	fmt.Fprintf(&sb, "- Events: %d\n", s.Len())
	fmt.Fprintf(&sb, "- Duration: %s\n", recorder.FormatDuration(s.Duration()))
	if s.Metadata.StartTime != nil {
		fmt.Fprintf(&sb, "- Started: %s\n", s.Metadata.StartTime.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if s.Metadata.EndTime != nil {
		fmt.Fprintf(&sb, "- Ended: %s\n", s.Metadata.EndTime.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")

	sb.WriteString("## Events\n\n")
	if s.Len() == 0 {
		sb.WriteString("_No events recorded._\n")
		return []byte(sb.String()), nil
	}
	sb.WriteString("| # | Time | Kind | Block | Detail |\n")
	sb.WriteString("|---|------|------|-------|--------|\n")
	for i, e := range s.Events {
		fmt.Fprintf(&sb, "| %d | %.3fs | %s | %s | %s |\n",
			i+1,
			float64(e.Timestamp)/1000,
			e.Kind(),
			cell(e.NodeID),
			cell(Describe(e)),
		)
	}
	return []byte(sb.String()), nil
}

// Describe summarizes what an event does in one line.
func Describe(e event.Event) string {
	switch p := e.Payload.(type) {
	case event.Create:
		return fmt.Sprintf("%s at (%g, %g)", p.NodeType, p.Position.X, p.Position.Y)
	case event.Delete:
		return p.NodeType
	case event.Move:
		var parts []string
		if p.NewCoordinate != nil {
			parts = append(parts, fmt.Sprintf("to (%g, %g)", p.NewCoordinate.X, p.NewCoordinate.Y))
		}
		switch {
		case p.NewParentID != nil && p.NewSlot != nil && *p.NewSlot != "":
			parts = append(parts, fmt.Sprintf("into %s.%s", *p.NewParentID, *p.NewSlot))
		case p.NewParentID != nil:
			parts = append(parts, "after "+*p.NewParentID)
		case p.OldParentID != nil:
			parts = append(parts, "out of "+*p.OldParentID)
		}
		return strings.Join(parts, ", ")
	case event.Change:
		return fmt.Sprintf("%s = %v", p.Name, p.NewValue)
	case event.Invalid:
		return "undecodable"
	}
	return ""
}

// cell keeps table rows intact.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

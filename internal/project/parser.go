package project

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/blockrec/internal/session"
)

// Parser deserializes a rendered project back into structured data.
type Parser interface {
	Parse(data []byte) (*Project, error)
}

// JSONParser parses a JSON-encoded Project. A bare session export is
// accepted as a project that carries only a recording.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Project, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotProject, err)
	}
	if _, ok := top["events"]; ok {
		s, err := session.Import(data)
		if err != nil {
			return nil, err
		}
		proj := New()
		proj.Recording = s
		return proj, nil
	}

	var j jsonProject
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotProject, err)
	}
	return fromJSON(&j)
}

// MarkdownParser parses a Markdown report by extracting the embedded base64
// JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*Project, error) {
	content := string(data)
	if !strings.Contains(content, reportSentinel) {
		return nil, fmt.Errorf("%w: missing version sentinel", ErrNotProject)
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("%w: missing data payload", ErrNotProject)
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("%w: malformed data payload", ErrNotProject)
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("%w: corrupted base64 payload: %v", ErrNotProject, err)
	}
	return (&JSONParser{}).Parse(jsonBytes)
}

// Format names a rendered form.
type Format string

const (
	FormatXML      Format = "xml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// RendererFor returns the renderer for f.
func RendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatXML, "":
		return &XMLRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatMarkdown, "md":
		return &MarkdownRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// Detect picks a parser from the content.
func Detect(data []byte) Parser {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Contains(trimmed, []byte(reportSentinel)):
		return &MarkdownParser{}
	case bytes.HasPrefix(trimmed, []byte("{")):
		return &JSONParser{}
	}
	return &XMLParser{}
}

// Parse decodes data in whichever rendered form it is.
func Parse(data []byte) (*Project, error) {
	return Detect(data).Parse(data)
}

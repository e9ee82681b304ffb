package project

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/session"
)

const encodingBase64 = "base64"

type xmlProject struct {
	XMLName   xml.Name    `xml:"xml"`
	Title     string      `xml:"title,attr,omitempty"`
	Board     string      `xml:"board,attr,omitempty"`
	Workspace *xmlPayload `xml:"workspace"`
	Recording *xmlPayload `xml:"assemblyRecording"`
}

type xmlPayload struct {
	Version  string `xml:"version,attr"`
	Encoding string `xml:"encoding,attr,omitempty"`
	Data     string `xml:",chardata"`
}

func encodePayload(version string, data []byte) *xmlPayload {
	return &xmlPayload{Version: version, Encoding: encodingBase64, Data: base64.StdEncoding.EncodeToString(data)}
}

// decode returns the payload bytes. Payloads without base64 encoding hold
// the JSON text directly.
func (x *xmlPayload) decode() ([]byte, error) {
	text := strings.TrimSpace(x.Data)
	if x.Encoding != encodingBase64 {
		return []byte(text), nil
	}
	return base64.StdEncoding.DecodeString(text)
}

// XMLRenderer writes the project file format.
type XMLRenderer struct{}

func (r *XMLRenderer) Render(p *Project) ([]byte, error) {
	x := xmlProject{Title: p.title(), Board: p.board()}
	if p.Workspace != nil {
		data, err := json.Marshal(p.Workspace)
		if err != nil {
			return nil, fmt.Errorf("marshal workspace: %w", err)
		}
		x.Workspace = encodePayload(strconv.Itoa(p.Workspace.Version), data)
	}
	if p.HasRecording() {
		data, err := session.Export(p.Recording)
		if err != nil {
			return nil, err
		}
		x.Recording = encodePayload(RecordingVersion, data)
	}

	out, err := xml.MarshalIndent(x, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(out, '\n'), nil
}

// XMLParser reads the project file format. A broken embedded recording is
// reported with ErrBadRecording while the rest of the project is returned.
type XMLParser struct{}

func (p *XMLParser) Parse(data []byte) (*Project, error) {
	var x xmlProject
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&x); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotProject, err)
	}

	proj := &Project{Title: x.Title, Board: x.Board}
	if x.Workspace != nil {
		raw, err := x.Workspace.decode()
		if err != nil {
			return nil, fmt.Errorf("%w: workspace payload: %v", ErrNotProject, err)
		}
		var snap event.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("%w: workspace payload: %v", ErrNotProject, err)
		}
		proj.Workspace = &snap
	}

	if x.Recording != nil {
		raw, err := x.Recording.decode()
		if err != nil {
			return proj, fmt.Errorf("%w: %w", ErrBadRecording, err)
		}
		s, err := session.Import(raw)
		if err != nil {
			return proj, fmt.Errorf("%w: %w", ErrBadRecording, err)
		}
		proj.Recording = s
	}
	return proj, nil
}

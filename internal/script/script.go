// Package script drives a workspace the way a user at the editor would,
// from a YAML edit script or from a JSON Lines journal that is appended to
// while recording.
package script

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Op names.
const (
	OpCreate     = "create"
	OpDelete     = "delete"
	OpMove       = "move"
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpSet        = "set"
	OpSelect     = "select"
	OpWait       = "wait"
)

// Op is one user edit. Ref names a block: create binds it to the new block,
// every other op looks it up. A ref that was never bound is used as a raw
// block id.
type Op struct {
	Op     string         `yaml:"op" json:"op"`
	Ref    string         `yaml:"ref,omitempty" json:"ref,omitempty"`
	Type   string         `yaml:"type,omitempty" json:"type,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty" json:"fields,omitempty"`
	Inputs []string       `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	X      float64        `yaml:"x,omitempty" json:"x,omitempty"`
	Y      float64        `yaml:"y,omitempty" json:"y,omitempty"`
	Parent string         `yaml:"parent,omitempty" json:"parent,omitempty"`
	Slot   string         `yaml:"slot,omitempty" json:"slot,omitempty"`
	Field  string         `yaml:"field,omitempty" json:"field,omitempty"`
	Value  any            `yaml:"value,omitempty" json:"value,omitempty"`
	// After is a delay before the op, e.g. "250ms". Journals ignore it.
	After string `yaml:"after,omitempty" json:"after,omitempty"`
}

// Delay parses After.
func (o Op) Delay() (time.Duration, error) {
	if o.After == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(o.After)
	if err != nil {
		return 0, fmt.Errorf("op %s: after: %w", o.Op, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("op %s: after must not be negative", o.Op)
	}
	return d, nil
}

// Validate checks that o names a known op and carries what it needs.
func (o Op) Validate() error {
	switch o.Op {
	case OpCreate:
		if o.Type == "" {
			return fmt.Errorf("create: type is required")
		}
	case OpDelete, OpMove, OpDisconnect, OpSelect:
		if o.Ref == "" {
			return fmt.Errorf("%s: ref is required", o.Op)
		}
	case OpConnect:
		if o.Ref == "" || o.Parent == "" {
			return fmt.Errorf("connect: ref and parent are required")
		}
	case OpSet:
		if o.Ref == "" || o.Field == "" {
			return fmt.Errorf("set: ref and field are required")
		}
	case OpWait:
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	_, err := o.Delay()
	return err
}

// Script is an ordered list of ops.
type Script struct {
	Name string `yaml:"name,omitempty"`
	Ops  []Op   `yaml:"ops"`
}

// Parse decodes a YAML script and validates every op.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	for i, op := range s.Ops {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("parse script: op %d: %w", i+1, err)
		}
	}
	return &s, nil
}

// ParseJournal decodes JSON Lines ops. Blank lines and lines starting with
// '#' are skipped.
func ParseJournal(data []byte) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(bytes.NewReader(data))
	n := 0
	for sc.Scan() {
		n++
		op, ok, err := parseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("journal line %d: %w", n, err)
		}
		if ok {
			ops = append(ops, op)
		}
	}
	return ops, sc.Err()
}

func parseLine(line string) (Op, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Op{}, false, nil
	}
	var op Op
	if err := json.Unmarshal([]byte(line), &op); err != nil {
		return Op{}, false, err
	}
	if err := op.Validate(); err != nil {
		return Op{}, false, err
	}
	return op, true, nil
}

// LoadFile reads a script. Files ending in .jsonl are read as journals.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".jsonl" {
		ops, err := ParseJournal(data)
		if err != nil {
			return nil, err
		}
		return &Script{Name: filepath.Base(path), Ops: ops}, nil
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

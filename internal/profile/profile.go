// Package profile manages the user's persistent blockrec profile.
// The profile is stored at ~/.config/blockrec/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/fakeyudi/blockrec/internal/config"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name         string `json:"name"`
	Locale       string `json:"locale"`
	DefaultBoard string `json:"default_board"`
	DefaultSpeed int    `json:"default_speed"`
}

func profilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'blockrec setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Apply fills settings the config files left at their defaults.
func (p *Profile) Apply(cfg *config.Config, global, project *config.Config) {
	set := func(f func(*config.Config) bool) bool {
		return (global != nil && f(global)) || (project != nil && f(project))
	}
	if p.Locale != "" && !set(func(c *config.Config) bool { return c.Locale != "" }) {
		cfg.Locale = p.Locale
	}
	if p.DefaultBoard != "" && !set(func(c *config.Config) bool { return c.DefaultBoard != "" }) {
		cfg.DefaultBoard = p.DefaultBoard
	}
	if p.DefaultSpeed > 0 && !set(func(c *config.Config) bool { return c.DefaultSpeed > 0 }) {
		cfg.DefaultSpeed = p.DefaultSpeed
	}
}

// RunSetup runs the interactive setup wizard on in/out and returns the
// resulting profile. If existing is non-nil, it is used as the default for
// each prompt (edit mode). locales lists the selectable locales.
func RunSetup(in io.Reader, out io.Writer, existing *Profile, locales []string) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	d := config.Defaults()
	prof := &Profile{Locale: d.Locale, DefaultBoard: d.DefaultBoard, DefaultSpeed: d.DefaultSpeed}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   blockrec  first-time setup    │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error
	prof.Name, err = ask("  Your name (shared project author)", prof.Name)
	if err != nil {
		return nil, err
	}

	locale, err := ask("  Notice language ("+strings.Join(locales, "/")+")", prof.Locale)
	if err != nil {
		return nil, err
	}
	if len(locales) == 0 || slices.Contains(locales, locale) {
		prof.Locale = locale
	}

	prof.DefaultBoard, err = ask("  Default board", prof.DefaultBoard)
	if err != nil {
		return nil, err
	}

	speed, err := ask("  Default playback speed (1/2/4/8)", strconv.Itoa(prof.DefaultSpeed))
	if err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(speed); err == nil && n > 0 {
		prof.DefaultSpeed = n
	}

	fmt.Fprintln(out)
	return prof, nil
}

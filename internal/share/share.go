// Package share stores shared projects behind short ids and serves them
// over HTTP.
package share

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultTitle = "Untitled Project"
	DefaultBoard = "uno"
	DefaultMode  = "block"

	MaxTitleRunes = 100
	MaxDataBytes  = 512 * 1024

	// MinInterval is the minimum time between two saves by one client.
	MinInterval = 10 * time.Second
	// MaxPerHour caps saves by one client within a sliding hour.
	MaxPerHour = 20

	idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
	idLength   = 8
	idAttempts = 10
)

// Boards lists the accepted board names. Anything else is stored as
// DefaultBoard.
var Boards = []string{
	"uno", "nano", "mega", "leonardo", "micro", "pro_mini",
	"esp32", "esp32cam", "esp32s2", "esp32c3", "esp32s3", "esp32c6",
	"r4_minima", "r4_wifi", "pico", "pico_w",
}

var validID = regexp.MustCompile(`^[A-Za-z2-9]{6,12}$`)

var (
	ErrNotFound      = errors.New("not_found")
	ErrInvalidID     = errors.New("invalid_id")
	ErrEmptyData     = errors.New("empty_data")
	ErrDataTooLarge  = errors.New("data_too_large")
	ErrIDGeneration  = errors.New("id_generation_failed")
	ErrInvalidJSON   = errors.New("invalid_json")
	ErrMethod        = errors.New("method_not_allowed")
	ErrCorruptedData = errors.New("corrupted_data")
)

// RateLimitError is returned when a client saves too often. Wait is how
// long until the next save is accepted; it is zero for the hourly cap.
type RateLimitError struct {
	Hourly bool
	Wait   time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Hourly {
		return "rate_limit_hourly"
	}
	return "rate_limit_wait"
}

// Request is a project submitted for sharing.
type Request struct {
	Title string `json:"title"`
	Board string `json:"board"`
	Mode  string `json:"mode"`
	Data  string `json:"data"`
}

// Project is a stored share.
type Project struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Board   string    `json:"board"`
	Mode    string    `json:"mode"`
	Data    string    `json:"data"`
	Created time.Time `json:"created"`
	Views   int       `json:"views"`
}

// Normalize applies defaults and limits to r and rejects unusable data.
func (r Request) Normalize() (Request, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = DefaultTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		title = string([]rune(title)[:MaxTitleRunes])
	}
	board := strings.TrimSpace(r.Board)
	if !slices.Contains(Boards, board) {
		board = DefaultBoard
	}
	mode := strings.TrimSpace(r.Mode)
	if mode != "block" && mode != "text" {
		mode = DefaultMode
	}
	if r.Data == "" {
		return Request{}, ErrEmptyData
	}
	if len(r.Data) > MaxDataBytes {
		return Request{}, fmt.Errorf("%w: %d bytes", ErrDataTooLarge, len(r.Data))
	}
	return Request{Title: html.EscapeString(title), Board: board, Mode: mode, Data: r.Data}, nil
}

// ValidID reports whether id has the shape of a share id.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

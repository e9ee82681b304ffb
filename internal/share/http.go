package share

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	SavePath = "/code_share/save"
	LoadPath = "/code_share/load"
)

// response is the JSON body of every endpoint.
type response struct {
	Success bool     `json:"success"`
	ID      string   `json:"id,omitempty"`
	Project *Project `json:"project,omitempty"`
	Error   string   `json:"error,omitempty"`
	Wait    int      `json:"wait,omitempty"`
}

// Backend is what the handlers serve from.
type Backend interface {
	Save(ctx context.Context, client string, req Request) (string, error)
	Load(ctx context.Context, id string) (*Project, error)
}

// Server serves the share endpoints.
type Server struct {
	backend Backend
	origins []string
	logger  *slog.Logger
	mux     *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithOrigins sets the origins allowed by CORS. The first is sent for any
// other origin.
func WithOrigins(origins ...string) ServerOption {
	return func(s *Server) { s.origins = origins }
}

func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer returns an http.Handler serving b.
func NewServer(b Backend, opts ...ServerOption) *Server {
	s := &Server{
		backend: b,
		origins: []string{"http://localhost", "http://127.0.0.1"},
		logger:  slog.Default(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc(SavePath, s.handleSave)
	s.mux.HandleFunc(LoadPath, s.handleLoad)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) cors(w http.ResponseWriter, r *http.Request, method string) bool {
	origin := r.Header.Get("Origin")
	if !slices.Contains(s.origins, origin) && len(s.origins) > 0 {
		origin = s.origins[0]
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", method+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return false
	case method:
		return true
	}
	writeJSON(w, http.StatusMethodNotAllowed, response{Error: ErrMethod.Error()})
	return false
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !s.cors(w, r, http.MethodPost) {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 2*MaxDataBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: ErrInvalidJSON.Error()})
		return
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: ErrInvalidJSON.Error()})
		return
	}

	id, err := s.backend.Save(r.Context(), ClientKey(r.RemoteAddr), req)
	if err != nil {
		s.writeError(w, "save", err)
		return
	}
	s.logger.Info("project shared", "id", id)
	writeJSON(w, http.StatusOK, response{Success: true, ID: id})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if !s.cors(w, r, http.MethodGet) {
		return
	}
	p, err := s.backend.Load(r.Context(), strings.TrimSpace(r.URL.Query().Get("id")))
	if err != nil {
		s.writeError(w, "load", err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Project: p})
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	var rl *RateLimitError
	switch {
	case errors.As(err, &rl):
		writeJSON(w, http.StatusTooManyRequests, response{Error: rl.Error(), Wait: int(rl.Wait / time.Second)})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Error: ErrNotFound.Error()})
	case errors.Is(err, ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, response{Error: ErrInvalidID.Error()})
	case errors.Is(err, ErrEmptyData):
		writeJSON(w, http.StatusBadRequest, response{Error: ErrEmptyData.Error()})
	case errors.Is(err, ErrDataTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, response{Error: ErrDataTooLarge.Error()})
	case errors.Is(err, ErrCorruptedData):
		s.logger.Error("share "+op, "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: ErrCorruptedData.Error()})
	case errors.Is(err, ErrIDGeneration):
		s.logger.Error("share "+op, "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: ErrIDGeneration.Error()})
	default:
		s.logger.Error("share "+op, "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: "write_failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ClientKey identifies a client for rate limiting without storing its
// address.
func ClientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	sum := sha256.Sum256([]byte(host + "_blockrec_share"))
	return hex.EncodeToString(sum[:])
}

// Client talks to a share server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// Push shares a project and returns its id.
func (c *Client) Push(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+SavePath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	hr.Header.Set("Content-Type", "application/json")
	resp, err := c.do(hr)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Pull fetches a shared project.
func (c *Client) Pull(ctx context.Context, id string) (*Project, error) {
	u := strings.TrimRight(c.BaseURL, "/") + LoadPath + "?id=" + url.QueryEscape(id)
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(hr)
	if err != nil {
		return nil, err
	}
	if resp.Project == nil {
		return nil, fmt.Errorf("share server returned no project")
	}
	return resp.Project, nil
}

func (c *Client) do(hr *http.Request) (*response, error) {
	res, err := c.httpClient().Do(hr)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var resp response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("share server: %s: %w", res.Status, err)
	}
	if !resp.Success {
		return nil, codeError(resp)
	}
	return &resp, nil
}

// codeError maps an error code back to the package's errors.
func codeError(resp response) error {
	for _, sentinel := range []error{
		ErrNotFound, ErrInvalidID, ErrEmptyData, ErrDataTooLarge,
		ErrIDGeneration, ErrInvalidJSON, ErrMethod, ErrCorruptedData,
	} {
		if resp.Error == sentinel.Error() {
			return sentinel
		}
	}
	switch resp.Error {
	case "rate_limit_hourly":
		return &RateLimitError{Hourly: true}
	case "rate_limit_wait":
		return &RateLimitError{Wait: time.Duration(resp.Wait) * time.Second}
	}
	return fmt.Errorf("share server: %s", resp.Error)
}

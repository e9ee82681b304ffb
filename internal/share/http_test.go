package share

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	s, _ := openStore(t)
	srv := httptest.NewServer(NewServer(s,
		WithOrigins("https://editor.example"),
		WithServerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	))
	t.Cleanup(srv.Close)
	return srv, &Client{BaseURL: srv.URL, HTTP: srv.Client()}
}

func TestClientPushPull(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	id, err := c.Push(ctx, Request{Title: "Blink", Board: "uno", Data: "<xml/>"})
	require.NoError(t, err)

	p, err := c.Pull(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "<xml/>", p.Data)
	assert.Equal(t, 1, p.Views)

	_, err = c.Pull(ctx, "ABCDEFGH")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Pull(ctx, "x")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = c.Push(ctx, Request{Data: "again"})
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Positive(t, rl.Wait)
}

func TestServerRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Post(srv.URL+SavePath, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	var body response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, response{Error: "invalid_json"}, body)

	res, err = http.Get(srv.URL + SavePath)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, err = http.Post(srv.URL+SavePath, "application/json", strings.NewReader(`{"title":"t"}`))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	res.Body.Close()
	assert.Equal(t, "empty_data", body.Error)
}

func TestServerCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+LoadPath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://elsewhere.example")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "https://editor.example", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", res.Header.Get("Access-Control-Allow-Methods"))
}

func TestClientKeyHidesAddress(t *testing.T) {
	a := ClientKey("10.0.0.1:5000")
	assert.Equal(t, a, ClientKey("10.0.0.1:6000"), "port is ignored")
	assert.NotEqual(t, a, ClientKey("10.0.0.2:5000"))
	assert.NotContains(t, a, "10.0.0.1")
	assert.Len(t, a, 64)
}

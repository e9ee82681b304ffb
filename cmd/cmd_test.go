package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/share"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

const blinkScript = `
name: blink
ops:
  - op: create
    ref: loop
    type: repeat
    fields: {TIMES: 3}
    inputs: [DO]
    x: 10
    y: 10
  - op: create
    ref: led
    type: led_on
    fields: {PIN: "13"}
    after: 20ms
  - op: connect
    ref: led
    parent: loop
    slot: DO
    after: 20ms
  - op: select
    ref: led
  - op: set
    ref: led
    field: PIN
    value: "12"
`

// sandbox points every state directory at a temp dir so we don't touch real state.
func sandbox(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	return tmp
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func recordBlink(t *testing.T, dir string) string {
	t.Helper()
	script := writeFile(t, filepath.Join(dir, "blink.yaml"), blinkScript)
	proj := filepath.Join(dir, "blink.xml")
	out, err := executeCommand(rootCmd, "record", "--script", script, "--follow", "", "--title", "Blink", "-o", proj)
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Recording stopped (events: 4") {
		t.Errorf("expected stop notice with 4 events, got: %q", out)
	}
	return proj
}

func TestRecordRequiresExactlyOneSource(t *testing.T) {
	sandbox(t)
	_, err := executeCommand(rootCmd, "record", "--script", "", "--follow", "")
	if err == nil || !strings.Contains(err.Error(), "exactly one") {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestRecordThenStatusAndPlay(t *testing.T) {
	dir := sandbox(t)
	proj := recordBlink(t, dir)

	out, err := executeCommand(rootCmd, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"State: Stopped", "Events: 4", "Duration: 00:00:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}

	out, err = executeCommand(rootCmd, "status", proj)
	if err != nil {
		t.Fatalf("status %s: %v", proj, err)
	}
	if !strings.Contains(out, "Project: Blink (uno)") {
		t.Errorf("expected project header, got:\n%s", out)
	}

	replayed := filepath.Join(dir, "replayed.json")
	out, err = executeCommand(rootCmd, "play", "--plain", "--speed", "8", "-o", replayed, proj)
	if err != nil {
		t.Fatalf("play: %v\n%s", err, out)
	}
	for _, want := range []string{"Playback started (speed: 8x)", "CREATE", "repeat at (10, 10)", "PIN = 12", "Playback finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("play output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("no event should be skipped:\n%s", out)
	}
	data, err := os.ReadFile(replayed)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"PIN": "12"`) {
		t.Errorf("replayed workspace should carry the final field value:\n%s", data)
	}
}

func TestPlayRejectsBadSpeed(t *testing.T) {
	dir := sandbox(t)
	proj := recordBlink(t, dir)

	out, err := executeCommand(rootCmd, "play", "--plain", "--speed=-2", "-o", "", proj)
	if err == nil {
		t.Fatal("expected an error for a negative speed")
	}
	if !strings.Contains(out, "Invalid playback speed: -2") {
		t.Errorf("expected invalid speed notice, got: %q", out)
	}
}

func TestPlayWithoutSession(t *testing.T) {
	sandbox(t)
	_, err := executeCommand(rootCmd, "play", "--plain", "--speed", "1", "-o", "")
	if err == nil || !strings.Contains(err.Error(), "no recorded session") {
		t.Fatalf("expected missing session error, got %v", err)
	}
}

func TestExportResetImport(t *testing.T) {
	dir := sandbox(t)
	recordBlink(t, dir)

	exported := filepath.Join(dir, "session.json")
	if out, err := executeCommand(rootCmd, "export", "--format", "session", "--title", "", "-o", exported); err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}

	out, err := executeCommand(rootCmd, "reset", "--yes")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "recording reset") {
		t.Errorf("expected reset notice, got %q", out)
	}
	if _, err := executeCommand(rootCmd, "status"); err == nil {
		t.Fatal("status after reset should report no session")
	}

	out, err = executeCommand(rootCmd, "import", "--into", "", exported)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Recording imported (4 events)") {
		t.Errorf("expected import notice, got %q", out)
	}
	out, _ = executeCommand(rootCmd, "status")
	if !strings.Contains(out, "Events: 4") {
		t.Errorf("imported session should have 4 events:\n%s", out)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	dir := sandbox(t)
	bad := writeFile(t, filepath.Join(dir, "bad.txt"), "this is not a recording")
	out, err := executeCommand(rootCmd, "import", "--into", "", bad)
	if err == nil {
		t.Fatal("expected an error importing garbage")
	}
	if !strings.Contains(out, "Invalid recording data") {
		t.Errorf("expected invalid notice, got %q", out)
	}
}

func TestImportIntoProjectAndResetFile(t *testing.T) {
	dir := sandbox(t)
	proj := recordBlink(t, dir)
	md := filepath.Join(dir, "blink.md")
	if _, err := executeCommand(rootCmd, "export", "--format", "markdown", "--title", "", "-o", md, proj); err != nil {
		t.Fatalf("export markdown: %v", err)
	}

	if _, err := executeCommand(rootCmd, "reset", "--yes", proj); err != nil {
		t.Fatalf("reset file: %v", err)
	}
	data, _ := os.ReadFile(proj)
	if strings.Contains(string(data), "assemblyRecording") {
		t.Fatalf("recording should be stripped:\n%s", data)
	}

	if _, err := executeCommand(rootCmd, "import", "--into", proj, md); err != nil {
		t.Fatalf("import into: %v", err)
	}
	data, _ = os.ReadFile(proj)
	if !strings.Contains(string(data), "assemblyRecording") {
		t.Errorf("recording should be embedded again:\n%s", data)
	}
}

func TestSharePushPull(t *testing.T) {
	dir := sandbox(t)
	proj := recordBlink(t, dir)

	store, err := share.Open(filepath.Join(dir, "share.db"))
	if err != nil {
		t.Fatalf("share.Open: %v", err)
	}
	defer store.Close()
	srv := httptest.NewServer(share.NewServer(store))
	defer srv.Close()

	out, err := executeCommand(rootCmd, "share", "push", "--server", srv.URL, "--title", "", "--board", "nano", proj)
	if err != nil {
		t.Fatalf("share push: %v\n%s", err, out)
	}
	id := strings.TrimSpace(out)
	if !share.ValidID(id) {
		t.Fatalf("push printed %q, want a share id", id)
	}

	pulled := filepath.Join(dir, "pulled.xml")
	out, err = executeCommand(rootCmd, "share", "pull", "--server", srv.URL, "-o", pulled, id)
	if err != nil {
		t.Fatalf("share pull: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Blink (nano, 1 views)") {
		t.Errorf("unexpected pull summary: %q", out)
	}
	data, _ := os.ReadFile(pulled)
	if !strings.Contains(string(data), `board="nano"`) || !strings.Contains(string(data), "assemblyRecording") {
		t.Errorf("pulled project incomplete:\n%s", data)
	}

	if _, err := executeCommand(rootCmd, "share", "pull", "--server", srv.URL, "-o", "", "bad!"); err == nil {
		t.Error("expected invalid id error")
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "json", true)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	l.Debug("hello", "k", 1)
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("expected JSON record, got %q", buf.String())
	}
	if _, err := newLogger(&buf, "xml", false); err == nil {
		t.Error("expected unknown format error")
	}
}

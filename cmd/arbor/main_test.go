package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/vanderheijden86/arbor/pkg/loader"
)

const menuOutline = `title: Menu
items:
  - name: File
    expanded: true
    children:
      - name: Open
        widget:
          kind: control
          action: open
      - name: Recent
        widget:
          kind: icon_label
          icon: folder
        children:
          - name: notes.txt
  - name: Help
`

// newProject creates a project directory with .arbor/ and one outline, and
// makes it the working directory.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".arbor"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "menu.outline.yaml"), menuOutline)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// executeCommand runs a fresh root command and captures stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	old := isTerminal
	isTerminal = func(*os.File) bool { return false }
	defer func() { isTerminal = old }()

	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func expectContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("expected %q to contain %q", s, substr)
	}
}

func TestPrintRaw(t *testing.T) {
	newProject(t)

	out, _, err := executeCommand(t, "print", "--raw", "menu.outline.yaml")
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	expectContains(t, out, "# Menu\n")
	expectContains(t, out, "- File\n")
	expectContains(t, out, "  - **Open** `open`\n")
	expectContains(t, out, "    - notes.txt\n")
}

func TestPrintFindsProjectOutline(t *testing.T) {
	newProject(t)

	out, _, err := executeCommand(t, "print")
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	expectContains(t, out, "- Help")
}

func TestOutlineFromConfig(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "other.outline.yaml"), "items:\n  - name: Elsewhere\n")

	if _, _, err := executeCommand(t, "print"); err == nil || !strings.Contains(err.Error(), "several outlines") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}

	writeFile(t, filepath.Join(dir, ".arbor", "config.yaml"), "outline: other.outline.yaml\nfast_load: false\n")
	out, _, err := executeCommand(t, "print")
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	expectContains(t, out, "- Elsewhere")
}

func TestExplicitConfigResolvesNextToFile(t *testing.T) {
	dir := newProject(t)
	conf := filepath.Join(dir, "conf")
	if err := os.MkdirAll(conf, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(conf, "arbor.yaml"), "outline: menu.outline.yaml\n")
	writeFile(t, filepath.Join(conf, "menu.outline.yaml"), "items:\n  - name: FromConf\n")

	out, _, err := executeCommand(t, "--config", "conf/arbor.yaml", "print", "--raw")
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	expectContains(t, out, "- FromConf")
	if strings.Contains(out, "- File") {
		t.Errorf("outline resolved against the working directory:\n%s", out)
	}
}

func TestNoOutline(t *testing.T) {
	t.Chdir(t.TempDir())
	_, _, err := executeCommand(t, "print")
	if err == nil || !strings.Contains(err.Error(), "no outline given") {
		t.Fatalf("expected missing outline error, got %v", err)
	}
}

func TestExportFormats(t *testing.T) {
	dir := newProject(t)

	out, _, err := executeCommand(t, "export", "--format", "md")
	if err != nil {
		t.Fatalf("md export failed: %v", err)
	}
	expectContains(t, out, "# Menu")

	if _, _, err := executeCommand(t, "export", "-o", "out/menu.svg"); err != nil {
		t.Fatalf("svg export failed: %v", err)
	}
	svg, err := os.ReadFile(filepath.Join(dir, "out", "menu.svg"))
	if err != nil {
		t.Fatal(err)
	}
	expectContains(t, string(svg), "notes.txt")

	if _, _, err := executeCommand(t, "export", "-o", "menu.png"); err != nil {
		t.Fatalf("png export failed: %v", err)
	}
	f, err := os.Open(filepath.Join(dir, "menu.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("invalid png: %v", err)
	}

	_, stderr, err := executeCommand(t, "export", "-o", "copy.outline.json")
	if err != nil {
		t.Fatalf("json export failed: %v", err)
	}
	expectContains(t, stderr, "Exported 5 nodes")
	doc, err := loader.LoadFile(filepath.Join(dir, "copy.outline.json"))
	if err != nil {
		t.Fatalf("exported json does not load: %v", err)
	}
	if doc.Count() != 5 || doc.Title != "Menu" {
		t.Errorf("unexpected exported document: %+v", doc)
	}
}

func TestExportErrors(t *testing.T) {
	newProject(t)

	if _, _, err := executeCommand(t, "export", "--format", "pdf"); err == nil {
		t.Error("expected unsupported format error")
	}
	if _, _, err := executeCommand(t, "export", "--format", "png"); err == nil {
		t.Error("expected png without -o to fail")
	}
}

func TestExportOverwrite(t *testing.T) {
	dir := newProject(t)
	target := filepath.Join(dir, "menu.md")
	writeFile(t, target, "old")

	_, _, err := executeCommand(t, "export", "-o", "menu.md")
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected refusal without --force, got %v", err)
	}

	if _, _, err := executeCommand(t, "export", "-o", "menu.md", "--force"); err != nil {
		t.Fatalf("forced export failed: %v", err)
	}
	data, _ := os.ReadFile(target)
	expectContains(t, string(data), "# Menu")
}

func TestMayWriteAsksOnTerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exists.md")
	writeFile(t, path, "old")

	oldTerm, oldConfirm := isTerminal, confirmOverwrite
	defer func() { isTerminal, confirmOverwrite = oldTerm, oldConfirm }()
	isTerminal = func(*os.File) bool { return true }

	asked := 0
	answer := false
	confirmOverwrite = func(string) (bool, error) { asked++; return answer, nil }

	c := &cli{log: zerolog.Nop()}
	if ok, err := c.mayWrite(path, false); err != nil || ok {
		t.Errorf("expected declined overwrite, got ok=%v err=%v", ok, err)
	}
	answer = true
	if ok, err := c.mayWrite(path, false); err != nil || !ok {
		t.Errorf("expected accepted overwrite, got ok=%v err=%v", ok, err)
	}
	if asked != 2 {
		t.Errorf("expected 2 prompts, got %d", asked)
	}
	if ok, _ := c.mayWrite(filepath.Join(t.TempDir(), "new.md"), false); !ok {
		t.Error("new files need no prompt")
	}
}

func TestStats(t *testing.T) {
	newProject(t)

	out, _, err := executeCommand(t, "stats")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	expectContains(t, out, "Nodes")
	expectContains(t, out, "Kind: control")
	expectContains(t, out, "Hubs")

	out, _, err = executeCommand(t, "stats", "--json")
	if err != nil {
		t.Fatalf("stats --json failed: %v", err)
	}
	var parsed struct {
		Nodes    int `json:"nodes"`
		Leaves   int `json:"leaves"`
		MaxDepth int `json:"max_depth"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if parsed.Nodes != 5 || parsed.Leaves != 3 || parsed.MaxDepth != 3 {
		t.Errorf("unexpected stats: %+v", parsed)
	}
}

func TestCheck(t *testing.T) {
	dir := newProject(t)

	out, _, err := executeCommand(t, "check")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	expectContains(t, out, "ok   ")
	expectContains(t, out, "(5 nodes)")

	writeFile(t, filepath.Join(dir, "odd.outline.yaml"), "items:\n  - name: Odd\n    widget: {kind: icon_label, icon: sparkle}\n")
	out, _, err = executeCommand(t, "check", "odd.outline.yaml")
	if err != nil {
		t.Fatalf("unknown icons must not fail the check: %v", err)
	}
	expectContains(t, out, `note: Odd uses unknown icon "sparkle"`)

	writeFile(t, filepath.Join(dir, "bad.outline.yaml"), "items:\n  - name: X\n    widget:\n      kind: control\n")
	_, _, err = executeCommand(t, "check", "menu.outline.yaml", "bad.outline.yaml")
	if err == nil || !strings.Contains(err.Error(), "has no action") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := newProject(t)

	out, _, err := executeCommand(t, "snapshot", "save", "v1")
	if err != nil {
		t.Fatalf("snapshot save failed: %v", err)
	}
	expectContains(t, out, `Saved 5 nodes as "v1"`)
	if _, err := os.Stat(filepath.Join(dir, ".arbor", "snapshots.db")); err != nil {
		t.Fatalf("expected database in .arbor: %v", err)
	}

	out, _, err = executeCommand(t, "snapshot", "list")
	if err != nil {
		t.Fatalf("snapshot list failed: %v", err)
	}
	expectContains(t, out, "v1")

	if _, _, err := executeCommand(t, "snapshot", "load", "v1", "-o", "restored.outline.yaml"); err != nil {
		t.Fatalf("snapshot load failed: %v", err)
	}
	doc, err := loader.LoadFile(filepath.Join(dir, "restored.outline.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Count() != 5 || !doc.Items[0].Expanded {
		t.Errorf("restored outline lost data: %+v", doc)
	}

	if _, _, err := executeCommand(t, "snapshot", "load", "missing", "-o", "x.outline.yaml"); err == nil {
		t.Error("expected error for unknown snapshot")
	}

	out, _, err = executeCommand(t, "snapshot", "diff", "v1", "menu.outline.yaml")
	if err != nil {
		t.Fatalf("snapshot diff failed: %v", err)
	}
	expectContains(t, out, "No drift detected")

	writeFile(t, filepath.Join(dir, "menu.outline.yaml"), strings.Replace(menuOutline,
		"      - name: Open\n        widget:\n          kind: control\n          action: open\n", "", 1))
	out, _, err = executeCommand(t, "snapshot", "diff", "--strict", "v1", "menu.outline.yaml")
	if err == nil || !strings.Contains(err.Error(), "exit code 1") {
		t.Fatalf("expected strict diff to fail, got %v", err)
	}
	expectContains(t, out, "File/Open")

	if _, _, err := executeCommand(t, "snapshot", "delete", "v1"); err != nil {
		t.Fatalf("snapshot delete failed: %v", err)
	}
	out, _, _ = executeCommand(t, "snapshot", "list")
	expectContains(t, out, "No snapshots yet.")
}

func TestVersion(t *testing.T) {
	t.Chdir(t.TempDir())
	out, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	expectContains(t, out, "arbor version: dev")
}

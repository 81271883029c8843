package bazelenv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zhangyunhao116/bazelenv/internal/pathutil"
)

func TestExecutionModeString(t *testing.T) {
	tests := []struct {
		mode ExecutionMode
		want string
	}{
		{ModeLocal, "local"},
		{ModeSandboxed, "sandboxed"},
		{ModeTest, "test"},
		{ExecutionMode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("ExecutionMode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	ws := newWorkspace(t)
	nested := filepath.Join(ws, "web", "app")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	bare := t.TempDir()

	tests := []struct {
		name    string
		environ []string
		workDir string
		want    ExecutionMode
	}{
		{
			name:    "test srcdir",
			environ: []string{"TEST_SRCDIR=/rf", "RUNFILES_DIR=/rf"},
			workDir: bare,
			want:    ModeTest,
		},
		{
			name:    "test target only",
			environ: []string{"TEST_TARGET=//web:test"},
			workDir: bare,
			want:    ModeTest,
		},
		{
			name:    "test beats sandboxed markers",
			environ: []string{"RUNFILES_MANIFEST_FILE=/rf/MANIFEST", "TEST_SRCDIR=/rf"},
			workDir: ws,
			want:    ModeTest,
		},
		{
			name:    "manifest file",
			environ: []string{"RUNFILES_MANIFEST_FILE=/rf/MANIFEST"},
			workDir: bare,
			want:    ModeSandboxed,
		},
		{
			name:    "runfiles dir",
			environ: []string{"RUNFILES_DIR=/rf"},
			workDir: bare,
			want:    ModeSandboxed,
		},
		{
			name:    "sandboxed beats workspace markers",
			environ: []string{"RUNFILES_DIR=/rf"},
			workDir: ws,
			want:    ModeSandboxed,
		},
		{
			name:    "bazel run",
			environ: []string{"BUILD_WORKSPACE_DIRECTORY=/home/me/ws"},
			workDir: bare,
			want:    ModeLocal,
		},
		{
			name:    "workspace marker in workdir",
			environ: nil,
			workDir: ws,
			want:    ModeLocal,
		},
		{
			name:    "workspace marker in ancestor",
			environ: []string{"HOME=/home/me"},
			workDir: nested,
			want:    ModeLocal,
		},
		{
			name:    "empty markers are unset",
			environ: []string{"TEST_SRCDIR=", "RUNFILES_DIR="},
			workDir: ws,
			want:    ModeLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.environ, tt.workDir)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectDeterministic(t *testing.T) {
	ws := newWorkspace(t)
	inputs := [][]string{
		{"TEST_SRCDIR=/rf"},
		{"RUNFILES_MANIFEST_FILE=/rf/MANIFEST"},
		nil,
	}
	for _, environ := range inputs {
		first, err1 := Detect(environ, ws)
		second, err2 := Detect(environ, ws)
		if first != second || (err1 == nil) != (err2 == nil) {
			t.Errorf("Detect(%v) not deterministic: (%v, %v) then (%v, %v)", environ, first, err1, second, err2)
		}
	}
}

func TestDetectUnrecognized(t *testing.T) {
	dir := t.TempDir()
	if _, _, found := pathutil.FindUpward(dir, WorkspaceMarkers...); found {
		t.Skip("a workspace marker exists above the temp directory")
	}

	_, err := Detect([]string{"PATH=/usr/bin"}, dir)
	if !errors.Is(err, ErrUnrecognizedEnvironment) {
		t.Fatalf("expected ErrUnrecognizedEnvironment, got %v", err)
	}
	var ue *UnrecognizedEnvironmentError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UnrecognizedEnvironmentError, got %T", err)
	}
	if ue.WorkDir != dir {
		t.Errorf("WorkDir = %q, want %q", ue.WorkDir, dir)
	}
	if len(ue.Checked) != 9 {
		t.Errorf("Checked = %v, want the 5 variables and 4 marker files", ue.Checked)
	}
}

func TestDetectEmptyWorkDir(t *testing.T) {
	_, err := Detect(nil, "")
	if !errors.Is(err, ErrUnrecognizedEnvironment) {
		t.Errorf("expected ErrUnrecognizedEnvironment, got %v", err)
	}
}

func TestWorkspaceRoot(t *testing.T) {
	ws := newWorkspace(t)
	nested := filepath.Join(ws, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := workspaceRoot(nil, nested); got != ws {
		t.Errorf("workspaceRoot from marker = %q, want %q", got, ws)
	}
	if got := workspaceRoot([]string{"BUILD_WORKSPACE_DIRECTORY=/home/me/ws/"}, nested); got != "/home/me/ws" {
		t.Errorf("workspaceRoot from bazel run = %q, want /home/me/ws", got)
	}
	if got := workspaceRoot(nil, ""); got != "" {
		t.Errorf("workspaceRoot with no workdir = %q, want empty", got)
	}
}


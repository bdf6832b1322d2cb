package collector

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeRunner struct {
	stdout   string
	stderr   string
	exitCode int
	err      error

	gotCommand string
}

func (f *fakeRunner) Run(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	f.gotCommand = command
	io.WriteString(stdout, f.stdout)
	io.WriteString(stderr, f.stderr)
	return f.exitCode, f.err
}

func TestBuildScriptSubstitutesWindowAndIDs(t *testing.T) {
	script := BuildScript(15, []int{1135, 2050})

	if !strings.Contains(script, "AddMinutes(-15)") {
		t.Errorf("expected window in script, got:\n%s", script)
	}
	if !strings.Contains(script, "@(1135,2050)") {
		t.Errorf("expected event ID set in script, got:\n%s", script)
	}
	if !strings.Contains(script, "Import-Module FailoverClusters") {
		t.Error("script must target the FailoverClusters module")
	}
	if !strings.Contains(script, "ConvertTo-Json") {
		t.Error("script must emit JSON")
	}
}

func TestBuildScriptDefaultEventIDs(t *testing.T) {
	script := BuildScript(5, nil)
	if !strings.Contains(script, "@(1641,1135,1079)") {
		t.Errorf("expected default event IDs, got:\n%s", script)
	}
}

func TestCollectReturnsStdout(t *testing.T) {
	runner := &fakeRunner{stdout: `{"nodes":[]}`}

	out, err := Collect(context.Background(), runner, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"nodes":[]}` {
		t.Errorf("unexpected output: %q", out)
	}
	// The command must ride through the PowerShell wrapper, not raw.
	if !strings.Contains(runner.gotCommand, "powershell") {
		t.Errorf("expected powershell invocation, got %q", runner.gotCommand)
	}
}

func TestCollectNonZeroExitCode(t *testing.T) {
	runner := &fakeRunner{
		exitCode: 1,
		stderr:   "Import-Module : not found\r\nat line 1\nmore context",
	}

	_, err := Collect(context.Background(), runner, 5, nil)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if execErr.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", execErr.ExitCode)
	}
	if execErr.Diagnostic != "Import-Module : not found" {
		t.Errorf("diagnostic must be the first line only, got %q", execErr.Diagnostic)
	}
}

func TestCollectEmptyStderrDiagnostic(t *testing.T) {
	runner := &fakeRunner{exitCode: 2}

	_, err := Collect(context.Background(), runner, 5, nil)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if execErr.Diagnostic != "(no stderr)" {
		t.Errorf("expected placeholder diagnostic, got %q", execErr.Diagnostic)
	}
}

func TestCollectExecutionError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("broken pipe")}

	_, err := Collect(context.Background(), runner, 5, nil)
	if err == nil || !strings.Contains(err.Error(), "collector execution failed") {
		t.Errorf("expected execution failure, got %v", err)
	}
}

func TestCollectDeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	runner := &fakeRunner{err: ctx.Err()}
	_, err := Collect(ctx, runner, 5, nil)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout classification, got %v", err)
	}
}

func TestFirstLine(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "(no stderr)"},
		{"single", "boom", "boom"},
		{"crlf", "first\r\nsecond", "first"},
		{"lf", "first\nsecond\nthird", "first"},
		{"leading whitespace", "\n\n  first  \nsecond", "first"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FirstLine(tc.in); got != tc.want {
				t.Errorf("FirstLine(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

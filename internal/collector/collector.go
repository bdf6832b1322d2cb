// Package collector builds the fixed PowerShell collection routine and runs
// it through an established WinRM session under the invocation deadline.
// Only the routine's output contract matters to the rest of the probe; its
// cmdlet calls are opaque here.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/masterzen/winrm"
)

// DefaultEventIDs are the failover-related event IDs filtered on the
// collector side when the caller does not supply a set of their own.
var DefaultEventIDs = []int{1641, 1135, 1079}

// scriptTemplate queries cluster membership, groups, resources, quorum and
// recent failover events, and emits the whole observation as one compact
// JSON document on stdout. Substitution points: the event ID set and the
// look-back window in minutes.
const scriptTemplate = `Import-Module FailoverClusters;
$nodes = Get-ClusterNode | Select-Object Name, @{N='State';E={$_.State.ToString()}};
$groups = Get-ClusterGroup | Select-Object Name, @{N='State';E={$_.State.ToString()}}, @{N='OwnerNode';E={$_.OwnerNode.Name}};
$resources = Get-ClusterResource | Select-Object Name, @{N='State';E={$_.State.ToString()}}, @{N='OwnerGroup';E={$_.OwnerGroup.Name}};
$quorum = Get-ClusterQuorum;
$events = @(Get-WinEvent -LogName 'Microsoft-Windows-FailoverClustering/Operational' -MaxEvents 50 -EA SilentlyContinue |
  Where-Object { $_.Id -in @(%s) -and $_.TimeCreated -gt (Get-Date).AddMinutes(-%d) } |
  Select-Object Id, @{N='Time';E={$_.TimeCreated.ToString('o')}});
@{
  nodes = @($nodes);
  groups = @($groups);
  resources = @($resources);
  quorum = @{type=[string]$quorum.QuorumType; resource=$quorum.QuorumResource.Name};
  events = $events
} | ConvertTo-Json -Depth 3 -Compress`

// Runner executes a remote command and reports its exit code. Satisfied by
// session.Session.
type Runner interface {
	Run(ctx context.Context, command string, stdout, stderr io.Writer) (int, error)
}

// ExecError is a collector run that completed but exited non-zero on the
// remote side. Diagnostic carries at most the first line of stderr.
type ExecError struct {
	ExitCode   int
	Diagnostic string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("PowerShell exited %d: %s", e.ExitCode, e.Diagnostic)
}

// BuildScript renders the collection routine with the given look-back
// window and event ID set. An empty set falls back to DefaultEventIDs.
func BuildScript(eventMinutes int, eventIDs []int) string {
	if len(eventIDs) == 0 {
		eventIDs = DefaultEventIDs
	}
	ids := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		ids[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf(scriptTemplate, strings.Join(ids, ","), eventMinutes)
}

// Collect runs the collection routine and returns its raw stdout. The
// context deadline is the single hard ceiling: when it expires the call
// unwinds promptly, it does not forcibly terminate the remote process.
func Collect(ctx context.Context, runner Runner, eventMinutes int, eventIDs []int) (string, error) {
	script := BuildScript(eventMinutes, eventIDs)

	var stdout, stderr strings.Builder
	exitCode, err := runner.Run(ctx, winrm.Powershell(script), &stdout, &stderr)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("collector timed out: %w", err)
		}
		return "", fmt.Errorf("collector execution failed: %w", err)
	}
	if exitCode != 0 {
		return "", &ExecError{ExitCode: exitCode, Diagnostic: FirstLine(stderr.String())}
	}
	return stdout.String(), nil
}

// FirstLine normalizes multi-line diagnostic text to its first non-empty
// line, so it can ride inside the single-line plugin output.
func FirstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no stderr)"
	}
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// Package nagios implements the plugin output conventions expected by a
// Nagios/Icinga-compatible supervisor: tiered status codes, a single
// status line with perfdata, and an optional multi-line detail block.
package nagios

import (
	"strconv"
	"strings"
)

// Status is the tiered plugin outcome. The order matters: Raise never
// lowers a status, so health rules can only escalate.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusCritical
	StatusUnknown
)

var statusText = [4]string{"OK", "WARNING", "CRITICAL", "UNKNOWN"}

// String returns the status label used as the first token of the output line.
func (s Status) String() string {
	if s < StatusOK || s > StatusUnknown {
		return "UNKNOWN"
	}
	return statusText[s]
}

// ExitCode returns the process exit code for the status.
func (s Status) ExitCode() int {
	if s < StatusOK || s > StatusUnknown {
		return int(StatusUnknown)
	}
	return int(s)
}

// Raise returns the worse of the two statuses. Health evaluation starts at
// StatusOK and folds Raise over its rules, so a later rule can never undo an
// escalation from an earlier one.
func (s Status) Raise(to Status) Status {
	if to > s {
		return to
	}
	return s
}

// Perfdata is a single perfdata token: label=value[UOM][;warn[;crit[;min[;max]]]].
// Empty threshold fields are kept as empty slots only when a later slot is set.
type Perfdata struct {
	Label string
	Value int64
	UOM   string
	Warn  string
	Crit  string
	Min   string
	Max   string
}

// String renders the token. The label is sanitized so that quotes, equal
// signs and spaces cannot break the perfdata grammar.
func (p Perfdata) String() string {
	var b strings.Builder
	b.WriteString(SanitizeLabel(p.Label))
	b.WriteByte('=')
	b.WriteString(strconv.FormatInt(p.Value, 10))
	b.WriteString(p.UOM)

	thresholds := []string{p.Warn, p.Crit, p.Min, p.Max}
	last := -1
	for i, t := range thresholds {
		if t != "" {
			last = i
		}
	}
	for i := 0; i <= last; i++ {
		b.WriteByte(';')
		b.WriteString(thresholds[i])
	}
	return b.String()
}

var labelReplacer = strings.NewReplacer("'", "", "=", "_", " ", "_")

// SanitizeLabel strips or substitutes characters that are not safe inside a
// perfdata label.
func SanitizeLabel(name string) string {
	return labelReplacer.Replace(name)
}

// Render assembles the final plugin output: one status line of the form
//
//	LEVEL - fragment | fragment | ... | perfdata perfdata ...
//
// followed, when details exist, by a newline and the detail lines joined by
// newlines. Perfdata is omitted entirely when the slice is empty, which is
// the contract for indeterminate outcomes.
func Render(status Status, summary []string, perf []Perfdata, details []string) string {
	var b strings.Builder
	b.WriteString(status.String())
	b.WriteString(" - ")
	b.WriteString(strings.Join(summary, " | "))

	if len(perf) > 0 {
		tokens := make([]string, len(perf))
		for i, p := range perf {
			tokens[i] = p.String()
		}
		b.WriteString(" | ")
		b.WriteString(strings.Join(tokens, " "))
	}

	if len(details) > 0 {
		b.WriteByte('\n')
		b.WriteString(strings.Join(details, "\n"))
	}
	return b.String()
}

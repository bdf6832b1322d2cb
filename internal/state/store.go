// Package state persists the single cross-invocation fact this probe needs:
// the last observed owning node of the monitored group, keyed by
// (host, group). Each invocation reads it at the start of evaluation and
// unconditionally writes the current owner back at the end.
//
// Concurrent invocations against the same host+group pair are possible and
// not mutually excluded; a read-then-write race can miss or duplicate one
// switch detection. Invocation cadence is expected to exceed execution
// latency by a wide margin, so the race is accepted rather than locked away.
package state

import "strings"

// Store reads and writes the previously observed group owner.
//
// A missing entry is not an error: Read returns found=false and evaluation
// treats it as "no prior observation". Write failures degrade future switch
// detection but must never abort the current invocation.
type Store interface {
	Read(host, group string) (owner string, found bool, err error)
	Write(host, group, owner string) error
}

var keyReplacer = strings.NewReplacer(
	".", "_",
	":", "_",
	" ", "_",
	"/", "_",
	"\\", "_",
)

// SafeKey substitutes path separators and whitespace so host and group
// values cannot collide with each other or escape the storage namespace.
func SafeKey(s string) string {
	return keyReplacer.Replace(s)
}

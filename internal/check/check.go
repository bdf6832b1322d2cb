// Package check evaluates a cluster snapshot into a single aggregated
// status plus summary fragments, detail lines and perfdata.
//
// Evaluation is a fold over an ordered rule sequence: status starts at OK
// and each rule may only raise it, never lower it. Only the evaluation
// stage can legitimately produce OK or CRITICAL; transport failures are
// rendered as UNKNOWN before a snapshot ever reaches this package.
package check

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nmslite/check-cluster/internal/cluster"
	"github.com/nmslite/check-cluster/internal/nagios"
	"github.com/nmslite/check-cluster/internal/state"
)

// Config carries the evaluation inputs that do not come from the snapshot.
type Config struct {
	// Host identifies the probed target and, together with Group, keys the
	// persisted edge state.
	Host string
	// Group is the monitored cluster group, matched case-insensitively.
	Group string
	// EventMinutes is the look-back window the collector filtered events on.
	EventMinutes int
}

// Result is the read-only outcome of one evaluation.
type Result struct {
	Status   nagios.Status
	Summary  []string
	Details  []string
	Perfdata []nagios.Perfdata
}

type evaluator struct {
	snap   *cluster.Snapshot
	cfg    Config
	store  state.Store
	logger *slog.Logger

	status  nagios.Status
	summary []string
	details []string

	// counters feeding perfdata
	nodesUp        int
	groupsOnline   int
	resOK          int
	switchDetected int
	eventCount     int
}

// Evaluate runs the rule sequence over snap. It is total: no snapshot shape
// can make it fail. State store faults are logged and swallowed, never
// escalated.
func Evaluate(snap *cluster.Snapshot, cfg Config, store state.Store, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	e := &evaluator{
		snap:   snap,
		cfg:    cfg,
		store:  store,
		logger: logger.With("component", "check"),
		status: nagios.StatusOK,
	}

	group := e.findGroup()
	e.evalNodes()
	e.evalGroup(group)
	e.evalResources()
	e.evalSwitch(group)
	e.evalEvents()
	e.evalQuorum()

	return Result{
		Status:   e.status,
		Summary:  e.summary,
		Details:  e.details,
		Perfdata: e.perfdata(),
	}
}

func (e *evaluator) raise(to nagios.Status) {
	e.status = e.status.Raise(to)
}

func (e *evaluator) summaryf(format string, args ...any) {
	e.summary = append(e.summary, fmt.Sprintf(format, args...))
}

func (e *evaluator) detailf(format string, args ...any) {
	e.details = append(e.details, "  "+fmt.Sprintf(format, args...))
}

// findGroup resolves the monitored group, which both the group rule and the
// switch rule need, and counts Online groups for perfdata on the way.
func (e *evaluator) findGroup() *cluster.Group {
	var group *cluster.Group
	for i := range e.snap.Groups {
		g := &e.snap.Groups[i]
		if strings.EqualFold(g.State, "Online") {
			e.groupsOnline++
		}
		if strings.EqualFold(g.Name, e.cfg.Group) {
			group = g
		}
	}
	return group
}

// evalNodes counts live nodes and escalates on any node that is not "Up".
func (e *evaluator) evalNodes() {
	for _, n := range e.snap.Nodes {
		if strings.EqualFold(n.State, "Up") {
			e.nodesUp++
		} else {
			e.raise(nagios.StatusCritical)
			e.detailf("[CRIT] Nodo %s: %s", n.Name, n.State)
		}
	}
	e.summaryf("Cluster: %d/%d nodi up", e.nodesUp, len(e.snap.Nodes))
}

// evalGroup checks presence and state of the monitored group.
func (e *evaluator) evalGroup(group *cluster.Group) {
	switch {
	case group == nil:
		e.raise(nagios.StatusCritical)
		e.summaryf("SQL %s NOT FOUND", e.cfg.Group)
		e.detailf("[CRIT] Gruppo %s non trovato nel cluster", e.cfg.Group)
	case !strings.EqualFold(group.State, "Online"):
		e.raise(nagios.StatusCritical)
		e.summaryf("SQL %s %s su %s", group.Name, group.State, group.OwnerNode)
		e.detailf("[CRIT] Gruppo %s: %s (owner: %s)", group.Name, group.State, group.OwnerNode)
	default:
		e.summaryf("SQL %s Online su %s", group.Name, group.OwnerNode)
	}
}

// evalResources rolls up the resources owned by the monitored group.
// Resources whose OwnerGroup matches nothing are simply not counted;
// 0/0 is a valid observation and not an escalation.
func (e *evaluator) evalResources() {
	total := 0
	for _, r := range e.snap.Resources {
		if !strings.EqualFold(r.OwnerGroup, e.cfg.Group) {
			continue
		}
		total++
		if strings.EqualFold(r.State, "Online") {
			e.resOK++
		} else {
			e.raise(nagios.StatusCritical)
			e.detailf("[CRIT] Risorsa %s: %s (gruppo %s)", r.Name, r.State, r.OwnerGroup)
		}
	}
	e.summaryf("%d/%d risorse OK", e.resOK, total)
}

// evalSwitch compares the current owner against the persisted one and
// writes the current owner back regardless of the outcome.
func (e *evaluator) evalSwitch(group *cluster.Group) {
	if group == nil || group.OwnerNode == "" {
		return
	}

	prev, found, err := e.store.Read(e.cfg.Host, e.cfg.Group)
	if err != nil {
		e.logger.Warn("state read failed, treating as no prior observation",
			"host", e.cfg.Host, "group", e.cfg.Group, "error", err)
		found = false
	}

	if found && !strings.EqualFold(prev, group.OwnerNode) {
		e.raise(nagios.StatusCritical)
		e.switchDetected = 1
		e.summaryf("Switch: %s -> %s", prev, group.OwnerNode)
		e.detailf("[CRIT] Switch nodo: %s -> %s", prev, group.OwnerNode)
	}

	if err := e.store.Write(e.cfg.Host, e.cfg.Group, group.OwnerNode); err != nil {
		e.logger.Warn("state write failed, next run may re-detect or miss a switch",
			"host", e.cfg.Host, "group", e.cfg.Group, "error", err)
	}
}

// evalEvents escalates on any failover event inside the look-back window.
// Distinct event IDs keep the insertion order of their first occurrence.
func (e *evaluator) evalEvents() {
	e.eventCount = len(e.snap.Events)
	if e.eventCount == 0 {
		return
	}
	e.raise(nagios.StatusCritical)

	var ids []string
	seen := make(map[int]bool)
	for _, ev := range e.snap.Events {
		if !seen[ev.ID] {
			ids = append(ids, fmt.Sprintf("%d", ev.ID))
			seen[ev.ID] = true
		}
	}
	e.summaryf("%d eventi failover", e.eventCount)
	e.detailf("[CRIT] Eventi failover: %d (ID: %s) negli ultimi %d min",
		e.eventCount, strings.Join(ids, ","), e.cfg.EventMinutes)
}

// evalQuorum reports quorum configuration. Informative only.
func (e *evaluator) evalQuorum() {
	q := e.snap.Quorum.Type
	if e.snap.Quorum.Resource != "" {
		q += " (" + e.snap.Quorum.Resource + ")"
	}
	e.summaryf("Quorum: %s", q)
}

func (e *evaluator) perfdata() []nagios.Perfdata {
	return []nagios.Perfdata{
		{Label: "nodes_up", Value: int64(e.nodesUp), Crit: "1", Min: "0", Max: fmt.Sprintf("%d", len(e.snap.Nodes))},
		{Label: "groups_online", Value: int64(e.groupsOnline)},
		{Label: "sql_resources_ok", Value: int64(e.resOK)},
		{Label: "switch_detected", Value: int64(e.switchDetected)},
		{Label: "failover_events", Value: int64(e.eventCount)},
	}
}

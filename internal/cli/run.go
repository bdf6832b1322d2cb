package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nmslite/check-cluster/internal/check"
	"github.com/nmslite/check-cluster/internal/cluster"
	"github.com/nmslite/check-cluster/internal/collector"
	"github.com/nmslite/check-cluster/internal/config"
	"github.com/nmslite/check-cluster/internal/nagios"
	"github.com/nmslite/check-cluster/internal/session"
	"github.com/nmslite/check-cluster/internal/state"
)

// run executes one probe invocation end to end and returns the exit code.
// Any failure before a fully parsed snapshot short-circuits to a single
// UNKNOWN line with no perfdata; only evaluation can reach OK or CRITICAL.
func run(cmd *cobra.Command) int {
	params, err := assembleParams(cmd)
	if err != nil {
		return unknown(err.Error())
	}

	logger := newLogger(params.LogLevel).With("run_id", uuid.NewString())
	logger.Debug("starting probe",
		"host", params.Host,
		"group", params.Group,
		"timeout_s", params.TimeoutSeconds,
	)

	// One hard ceiling for connection retries and remote execution alike.
	ctx, cancel := context.WithTimeout(context.Background(), params.Timeout())
	defer cancel()

	sess, err := session.Connect(ctx, session.Options{
		Host:        params.Host,
		Port:        params.Port,
		Username:    params.Username,
		Password:    params.Password,
		Domain:      params.Domain,
		UseHTTPS:    params.UseHTTPS,
		InsecureTLS: params.InsecureTLS,
		Timeout:     params.Timeout(),
		MaxRetries:  params.Retries,
	}, logger)
	if err != nil {
		return unknown(err.Error())
	}

	raw, err := collector.Collect(ctx, sess, params.EventMinutes, params.EventIDs)
	if err != nil {
		var execErr *collector.ExecError
		if errors.As(err, &execErr) {
			return unknown(session.Scrub(execErr.Error(), params.Password))
		}
		return unknown(session.Scrub(err.Error(), params.Password))
	}

	snap, err := cluster.Parse(raw)
	if err != nil {
		var parseErr *cluster.ParseError
		switch {
		case errors.Is(err, cluster.ErrEmptyResponse):
			return unknown("Empty response from PowerShell")
		case errors.As(err, &parseErr):
			return unknownWithDetail(parseErr.Error(), "Raw output: "+parseErr.Preview)
		default:
			return unknown(err.Error())
		}
	}

	store := openStore(ctx, params, logger)
	if s, ok := store.(*state.SQLiteStore); ok {
		defer s.Close()
	}
	result := check.Evaluate(snap, check.Config{
		Host:         params.Host,
		Group:        params.Group,
		EventMinutes: params.EventMinutes,
	}, store, logger)

	fmt.Println(nagios.Render(result.Status, result.Summary, result.Perfdata, result.Details))
	return result.Status.ExitCode()
}

// openStore selects the edge-state backend. A backend that cannot be opened
// degrades switch detection but never aborts the invocation: evaluation
// proceeds against an empty in-memory store.
func openStore(ctx context.Context, params *config.Params, logger *slog.Logger) state.Store {
	if params.StateBackend == "sqlite" {
		store, err := state.OpenSQLite(ctx, params.StateDB)
		if err != nil {
			logger.Warn("sqlite state backend unavailable, switch detection disabled for this run",
				"path", params.StateDB, "error", err)
			return state.NewMemStore()
		}
		return store
	}
	return state.NewFileStore(params.StateDir)
}

func unknown(msg string) int {
	fmt.Println(nagios.Render(nagios.StatusUnknown, []string{msg}, nil, nil))
	return nagios.StatusUnknown.ExitCode()
}

func unknownWithDetail(msg, detail string) int {
	fmt.Println(nagios.Render(nagios.StatusUnknown, []string{msg}, nil, []string{detail}))
	return nagios.StatusUnknown.ExitCode()
}

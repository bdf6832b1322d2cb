// Package cli wires the probe pipeline behind a cobra command: parameter
// assembly, logging setup, and the connect -> collect -> parse -> evaluate
// -> render sequence with Nagios exit semantics.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nmslite/check-cluster/internal/config"
	"github.com/nmslite/check-cluster/internal/nagios"
)

// Version is set at build time via
// -ldflags "-X github.com/nmslite/check-cluster/internal/cli.Version=...".
var Version = "1.0.0"

var exitCode int

var rootCmd = &cobra.Command{
	Use:   "check_cluster",
	Short: "Nagios/Icinga plugin for Windows Failover Cluster",
	Long: `check_cluster monitors a Windows Failover Cluster via WinRM. It checks
node status, cluster group state, resource health, quorum info, and detects
node switches using a local state slot and Windows failover events.

Runs on the monitoring satellite and connects to the Windows host via WinRM
(Basic or NTLM auth, HTTP/HTTPS).

EXIT CODES: 0=OK  2=CRITICAL  3=UNKNOWN`,
	Example: `  # Basic check:
  check_cluster -H 10.0.1.50 -U administrator -p 'S3cret!' -g AHB-ONE01

  # HTTPS with insecure TLS:
  check_cluster -H 10.0.1.50 -U administrator -p 'S3cret!' -g AHB-ONE01 -S --insecure

  # Custom timeout and SQLite state backend:
  check_cluster -H 10.0.1.50 -U administrator -p 'S3cret!' -g AHB-ONE01 \
    -t 60 --state-backend sqlite --state-db /var/lib/check_cluster/state.db`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Printf("check_cluster %s\n", Version)
			exitCode = nagios.StatusOK.ExitCode()
			return nil
		}
		exitCode = run(cmd)
		return nil
	},
}

// Execute runs the root command and returns the process exit code. Flag
// parse failures surface as UNKNOWN so the supervisor never mistakes a
// usage error for a health observation.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(nagios.Render(nagios.StatusUnknown, []string{err.Error()}, nil, nil))
		return nagios.StatusUnknown.ExitCode()
	}
	return exitCode
}

func init() {
	f := rootCmd.Flags()
	f.StringP("host", "H", "", "Hostname or IP of the Windows host (required)")
	f.IntP("port", "P", 5985, "WinRM port (5985=HTTP, 5986=HTTPS)")
	f.StringP("username", "U", "", "WinRM username (required)")
	f.StringP("password", "p", "", "WinRM password (required)")
	f.String("domain", "", "Windows domain (switches auth from Basic to NTLM)")
	f.BoolP("https", "S", false, "Use HTTPS for WinRM connection")
	f.Bool("insecure", false, "Skip TLS certificate verification")
	f.StringP("group", "g", "", "Name of the SQL cluster group to monitor (required)")
	f.IntP("timeout", "t", 30, "Timeout in seconds")
	f.Int("retries", 2, "Connection attempts to retry before giving up")
	f.Int("event-minutes", 5, "Time window for failover events (minutes)")
	f.IntSlice("event-ids", nil, "Failover event IDs to monitor (default 1641,1135,1079)")
	f.String("state-backend", "file", "State backend for switch detection (file or sqlite)")
	f.String("state-dir", "/tmp", "Directory for node switch state files")
	f.String("state-db", "", "SQLite database path (with --state-backend sqlite)")
	f.StringP("config", "c", "", "YAML file with parameter defaults")
	f.String("log-level", "warn", "Log level for stderr diagnostics (debug, info, warn, error)")
	f.BoolP("version", "V", false, "Show version and exit")
}

// assembleParams layers defaults, config file, environment and flags.
func assembleParams(cmd *cobra.Command) (*config.Params, error) {
	p := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := p.LoadFile(path); err != nil {
			return nil, err
		}
	}
	p.ApplyEnv()
	applyFlags(cmd, &p)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// applyFlags copies only explicitly set flags over the layered defaults.
func applyFlags(cmd *cobra.Command, p *config.Params) {
	f := cmd.Flags()
	if f.Changed("host") {
		p.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		p.Port, _ = f.GetInt("port")
	}
	if f.Changed("username") {
		p.Username, _ = f.GetString("username")
	}
	if f.Changed("password") {
		p.Password, _ = f.GetString("password")
	}
	if f.Changed("domain") {
		p.Domain, _ = f.GetString("domain")
	}
	if f.Changed("https") {
		p.UseHTTPS, _ = f.GetBool("https")
	}
	if f.Changed("insecure") {
		p.InsecureTLS, _ = f.GetBool("insecure")
	}
	if f.Changed("group") {
		p.Group, _ = f.GetString("group")
	}
	if f.Changed("timeout") {
		p.TimeoutSeconds, _ = f.GetInt("timeout")
	}
	if f.Changed("retries") {
		p.Retries, _ = f.GetInt("retries")
	}
	if f.Changed("event-minutes") {
		p.EventMinutes, _ = f.GetInt("event-minutes")
	}
	if f.Changed("event-ids") {
		p.EventIDs, _ = f.GetIntSlice("event-ids")
	}
	if f.Changed("state-backend") {
		p.StateBackend, _ = f.GetString("state-backend")
	}
	if f.Changed("state-dir") {
		p.StateDir, _ = f.GetString("state-dir")
	}
	if f.Changed("state-db") {
		p.StateDB, _ = f.GetString("state-db")
	}
	if f.Changed("log-level") {
		p.LogLevel, _ = f.GetString("log-level")
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	return slog.New(handler)
}

// Package session establishes the WinRM command-execution session against
// the probed Windows host. Connection attempts are retried with exponential
// backoff; once a session exists, execution failures are the caller's to
// classify and are never retried here.
//
// Every error leaving this package has the credential secret scrubbed via
// exact substring replacement. This is a reactive mitigation, not a
// guarantee: a tokenized or URL-encoded secret inside a lower-level error
// would still leak.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/masterzen/winrm"
)

// Options are the connection parameters. Domain is optional; when set, the
// session authenticates with NTLM instead of Basic.
type Options struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Domain      string
	UseHTTPS    bool
	InsecureTLS bool
	Timeout     time.Duration
	MaxRetries  int
}

// Session is an established WinRM session handle.
type Session struct {
	client *winrm.Client
	host   string
	secret string
}

// Connect builds a WinRM client for opts, retrying construction and
// negotiation failures up to MaxRetries times with 2^attempt seconds
// between attempts (1s, 2s, ...), no jitter. The backoff sleeps abort as
// soon as ctx is done, so the overall invocation deadline also bounds the
// retry loop.
func Connect(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session", "host", opts.Host, "port", opts.Port)

	endpoint := winrm.NewEndpoint(
		opts.Host,
		opts.Port,
		opts.UseHTTPS,
		opts.InsecureTLS,
		nil, // CA certificate
		nil, // client certificate
		nil, // client key
		opts.Timeout,
	)

	params := winrm.NewParameters(
		fmt.Sprintf("PT%dS", int(opts.Timeout.Seconds())),
		"en-US",
		153600,
	)

	username := opts.Username
	if opts.Domain != "" {
		params.TransportDecorator = func() winrm.Transporter {
			return &winrm.ClientNTLM{}
		}
		username = fmt.Sprintf("%s\\%s", opts.Domain, opts.Username)
	}

	var client *winrm.Client
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		client, lastErr = winrm.NewClientWithParameters(endpoint, username, opts.Password, params)
		if lastErr == nil {
			break
		}
		logger.Debug("connection attempt failed",
			"attempt", attempt+1, "error", Scrub(lastErr.Error(), opts.Password))
		if attempt < opts.MaxRetries {
			if err := sleep(ctx, backoff(attempt)); err != nil {
				lastErr = err
				break
			}
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("WinRM connection failed: %s", Scrub(lastErr.Error(), opts.Password))
	}

	return &Session{client: client, host: opts.Host, secret: opts.Password}, nil
}

// Run executes command through the session, streaming output to stdout and
// stderr. The returned exit code is the remote process's; a non-nil error
// means the execution itself failed or the context expired.
func (s *Session) Run(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	exitCode, err := s.client.RunWithContext(ctx, command, stdout, stderr)
	if err != nil {
		return exitCode, fmt.Errorf("WinRM execution failed: %s", Scrub(err.Error(), s.secret))
	}
	return exitCode, nil
}

// Host returns the target the session is bound to.
func (s *Session) Host() string {
	return s.host
}

// Scrub replaces every occurrence of secret in msg. Empty secrets are left
// alone so the probe does not mangle messages when no password is in play.
func Scrub(msg, secret string) string {
	if secret == "" {
		return msg
	}
	return strings.ReplaceAll(msg, secret, "********")
}

// backoff returns the sleep before the attempt after attempt: 1s, 2s, 4s...
func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

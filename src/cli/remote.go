package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"backup-console/src/config"
	"backup-console/src/dispatch"
	"backup-console/src/incusapi"
	"backup-console/src/jobs"
	"backup-console/src/keys"
	"backup-console/src/logs"
	"backup-console/src/metrics"
	"backup-console/src/notify"
	"backup-console/src/panel"
	"backup-console/src/pbsapi"
	"backup-console/src/target"
	"backup-console/src/version"
)

// ServerVersioner reports the version of the remote server.
type ServerVersioner interface {
	ServerVersion(ctx context.Context) (string, error)
}

// Remote groups the server operations a command may use. Nil fields are not
// offered by the selected remote.
type Remote struct {
	Server ServerVersioner
	Keys   keys.Lister
	Jobs   jobs.Lister
	Exec   dispatch.Executor
	Media  panel.MediaRemover
	Close  func() error
}

type remoteOpenerFunc func(*config.Config) (*Remote, error)

var openRemoteFn remoteOpenerFunc = openRemote

// SetRemoteOpenerForTest allows tests to replace the server connection.
// The returned function restores the previous opener.
func SetRemoteOpenerForTest(fn func(*config.Config) (*Remote, error)) func() {
	prev := openRemoteFn
	openRemoteFn = fn
	return func() {
		openRemoteFn = prev
	}
}

func openRemote(cfg *config.Config) (*Remote, error) {
	tgt, err := target.Parse(cfg.Remote)
	if err != nil {
		return nil, err
	}
	switch tgt.Scheme {
	case "api":
		c, err := pbsapi.New(pbsapi.Options{
			BaseURL:   tgt.Value,
			Node:      cfg.Node,
			Token:     cfg.APIToken,
			Retries:   cfg.ListingRetries,
			Timeout:   cfg.Timeout,
			Insecure:  cfg.Insecure,
			UserAgent: "backup-console/" + version.Version,
		})
		if err != nil {
			return nil, err
		}
		return &Remote{Server: c, Keys: c, Jobs: c, Exec: c, Media: c}, nil
	case "incus":
		c, err := incusapi.ConnectLocal(cfg.IncusSocket)
		if err != nil {
			return nil, err
		}
		b := incusapi.NewBackend(c, tgt.Project)
		return &Remote{Server: b, Jobs: b, Exec: b}, nil
	}
	return nil, fmt.Errorf("unsupported remote scheme %q", tgt.Scheme)
}

// session is the per-command state built from config: the remote plus the
// notification and metrics sinks.
type session struct {
	cfg      *config.Config
	remote   *Remote
	notifier notify.Notifier
	metrics  *metrics.Metrics
	closers  []func() error
}

func newSession(cmd *cobra.Command) (*session, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path, configOverrides(cmd))
	if err != nil {
		return nil, err
	}
	if err := logs.Init(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	remote, err := openRemoteFn(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, remote: remote, metrics: metrics.New()}
	if remote.Close != nil {
		s.closers = append(s.closers, remote.Close)
	}

	notifiers := notify.Multi{notify.NewWriter(cmd.OutOrStdout())}
	if cfg.AMQPURL != "" {
		a, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		notifiers = append(notifiers, a)
		s.closers = append(s.closers, a.Close)
	}
	s.notifier = notifiers
	return s, nil
}

// Close flushes metrics to the configured textfile and releases connections.
func (s *session) Close() error {
	var errs []error
	if s.cfg.MetricsTextfile != "" {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// catalog loads the key catalog of the remote.
func (s *session) catalog(ctx context.Context) (*keys.Catalog, error) {
	if s.remote.Keys == nil {
		return nil, fmt.Errorf("remote %s does not list encryption keys", s.cfg.Remote)
	}
	c := keys.NewCatalog(s.remote.Keys, s.metrics)
	if _, err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *session) listJobs(ctx context.Context) ([]jobs.JobRecord, error) {
	if s.remote.Jobs == nil {
		return nil, fmt.Errorf("remote %s does not list backup jobs", s.cfg.Remote)
	}
	return s.remote.Jobs.ListJobs(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withSession runs fn with a session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(context.Context, *session) error) (err error) {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(commandContext(cmd), s)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ISearcher/Rest4WebApi/api"
	"github.com/ISearcher/Rest4WebApi/config"
	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/observability"
	"github.com/ISearcher/Rest4WebApi/version"
)

const serviceName = "webapictl"

// GlobalOptions are shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	EnvFile    string
}

// session is one connected invocation.
type session struct {
	cfg      *config.Config
	conn     *api.Connection
	log      *logger.Logger
	shutdown []func(context.Context) error
}

func (s *session) Close(ctx context.Context) {
	s.conn.Close()
	for _, fn := range s.shutdown {
		if err := fn(ctx); err != nil {
			s.log.WithError(err).Warn("telemetry shutdown failed")
		}
	}
}

func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:           serviceName + " [command]",
		Short:         "WebApi command line client",
		Long:          "Manage client versions, device tasks and update packages on a WebApi backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to the config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "Path to a .env file")

	cmd.AddCommand(NewVersionsCommand(opts))
	cmd.AddCommand(NewTasksCommand(opts))
	cmd.AddCommand(NewUpdatesCommand(opts))
	cmd.AddCommand(NewPingCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// connect loads the configuration, sets up logging and telemetry and
// builds the resource clients.
func (o *GlobalOptions) connect(ctx context.Context) (*session, error) {
	var loadOpts []config.LoaderOption
	if o.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.ConfigFile))
	}
	if o.EnvFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(o.EnvFile))
	}
	cfg, err := config.Load(serviceName, loadOpts...)
	if err != nil {
		return nil, err
	}

	build := version.Get()
	if cfg.Base.Version == "" {
		cfg.Base.Version = build.Short()
	}

	// stdout carries command output.
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	log := logger.New(&cfg.Logging, cfg.Base.Name)
	logger.SetGlobalLogger(log)

	s := &session{cfg: cfg, log: log}
	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.TracerConfig())
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		s.shutdown = append(s.shutdown, tp.Shutdown)
		mp, err := observability.InitMeter(ctx, cfg.MeterConfig())
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		s.shutdown = append(s.shutdown, mp.Shutdown)
	}

	clientCfg := cfg.WebAPI.ClientConfig()
	clientCfg.Logger = log
	clientCfg.Headers = map[string]string{"User-Agent": build.UserAgent(serviceName)}
	conn, err := api.Connect(clientCfg)
	if err != nil {
		for _, fn := range s.shutdown {
			_ = fn(ctx)
		}
		return nil, err
	}
	s.conn = conn
	return s, nil
}

// run connects, calls fn and tears the session down.
func (o *GlobalOptions) run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := o.connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close(context.WithoutCancel(ctx))
	return fn(ctx, s)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var errUnhealthy = errors.New("backend is down")

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tailship/tailship/pkg/agent"
	"github.com/tailship/tailship/pkg/csconfig"
	"github.com/tailship/tailship/pkg/logging"
	"github.com/tailship/tailship/pkg/metrics"
	"github.com/tailship/tailship/pkg/trace"
)

type cliMonitor struct {
	root *cliRoot
}

func newCLIMonitor(root *cliRoot) *cliMonitor {
	return &cliMonitor{root: root}
}

func (cli *cliMonitor) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "monitor",
		Short:             "Follow the configured logs in the foreground",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.root.loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cli.run(ctx, cfg)
		},
	}

	return cmd
}

func (cli *cliMonitor) run(ctx context.Context, cfg *csconfig.Config) error {
	if err := logging.SetupStandardLogger(cfg.Common, *cfg.Common.LogLevel, cfg.Common.ForceColorLogs); err != nil {
		return err
	}

	if cfg.Common.LogMedia != "stdout" {
		log.AddHook(stderrHook{w: os.Stderr})
	}

	if err := os.MkdirAll(cfg.Common.TraceDir, 0o700); err != nil {
		log.Warningf("crash reports will go to %s: %s", os.TempDir(), err)
	} else {
		trace.Init(cfg.Common.TraceDir)
	}

	if cfg.Common.PidFile != "" {
		lock, err := lockPidFile(cfg.Common.PidFile)
		if err != nil {
			return err
		}
		defer lock.release()
	}

	if err := metrics.RegisterMetrics(cfg.Agent.MetricsLevel); err != nil {
		return err
	}

	if cfg.Agent.PrometheusListen != "" {
		srv := servePrometheus(cfg.Agent.PrometheusListen)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.FilePath != "" {
		log.Infof("loaded configuration from %s", cfg.FilePath)
	}

	return agent.New(cfg, logging.SubLogger("agent", 0)).Run(ctx)
}

func servePrometheus(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("serving metrics on %s", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %s", err)
		}
	}()

	return srv
}

// Package agent wires the configured logs to their followers and
// transports, and checkpoints the read positions while they run.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"github.com/tailship/tailship/pkg/csconfig"
	"github.com/tailship/tailship/pkg/follower"
	"github.com/tailship/tailship/pkg/logging"
	"github.com/tailship/tailship/pkg/metrics"
	"github.com/tailship/tailship/pkg/multilog"
	"github.com/tailship/tailship/pkg/statestore"
	"github.com/tailship/tailship/pkg/transport"
	"github.com/tailship/tailship/pkg/types"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

type Agent struct {
	config *csconfig.Config
	logger *log.Entry
	store  *statestore.Store

	pool      *transport.Pool
	followers []*follower.Follower
	multilogs []*multilog.FollowMultilog
	scheduler gocron.Scheduler

	stopOnce sync.Once
}

func New(config *csconfig.Config, logger *log.Entry) *Agent {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	// debug echoes every entry, which is only visible at debug level
	transportLogger := logger.WithField("component", "transport")
	if config.Transport != nil && config.Transport.Debug {
		transportLogger = logging.SubLogger("transport", log.DebugLevel)
	}

	return &Agent{
		config: config,
		logger: logger,
		store:  statestore.New(),
		pool:   transport.NewPool(transportLogger),
	}
}

func (a *Agent) stateFile() string {
	if a.config.Agent.StateFile == nil {
		return ""
	}

	return *a.config.Agent.StateFile
}

// Start loads the saved positions, starts every follower and schedules the
// state checkpoints. It does not block.
func (a *Agent) Start() error {
	metrics.AgentInfo.Set(1)

	states := a.store.Load(a.stateFile())

	if err := a.startFollowers(states); err != nil {
		return err
	}

	a.logger.Infof("following %d logs and %d multilogs", len(a.followers), len(a.multilogs))

	scheduler, err := gocron.NewScheduler(gocron.WithLogger(logging.GoCronLoggerAdapter{Logger: a.logger}))
	if err != nil {
		return fmt.Errorf("while creating scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(a.config.Tuning.SaveInterval),
		gocron.NewTask(a.SaveState),
		gocron.WithName("save state"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("while scheduling state checkpoints: %w", err)
	}

	scheduler.Start()
	a.scheduler = scheduler

	return nil
}

// Run starts the agent and stops it when ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		a.Stop()
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutting down")
	a.Stop()

	return nil
}

// Stop closes the followers, then the transports, and writes a last
// checkpoint. Calling it more than once is harmless.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() {
		if a.scheduler != nil {
			if err := a.scheduler.Shutdown(); err != nil {
				a.logger.Warningf("while stopping scheduler: %s", err)
			}
		}

		for _, f := range a.followers {
			f.Close()
		}

		for _, m := range a.multilogs {
			m.Close()
		}

		a.pool.CloseAll()

		if err := a.SaveState(); err != nil {
			a.logger.Errorf("final state checkpoint failed: %s", err)
		}
	})
}

// Providers returns the followers whose state is persisted, multilog
// children included.
func (a *Agent) Providers() []types.StateProvider {
	providers := make([]types.StateProvider, 0, len(a.followers))

	for _, f := range a.followers {
		providers = append(providers, f)
	}

	for _, m := range a.multilogs {
		for _, f := range m.Followers() {
			providers = append(providers, f)
		}
	}

	return providers
}

// SaveState writes a checkpoint. A failure is reported but leaves the
// previous checkpoint in place.
func (a *Agent) SaveState() error {
	if err := a.store.Save(a.stateFile(), a.Providers()); err != nil {
		metrics.StateSaves.WithLabelValues(resultError).Inc()
		a.logger.Warningf("could not save state: %s", err)

		return err
	}

	metrics.StateSaves.WithLabelValues(resultOK).Inc()

	return nil
}

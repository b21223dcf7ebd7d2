package install

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/types"
)

// NotifyFunc is called once per newly available version of a target
type NotifyFunc func(res *CheckResult)

// Scheduler periodically checks the client and launcher for updates.
// With auto-update enabled, client updates are installed as they appear.
type Scheduler struct {
	manager    *Manager
	spec       string
	channel    types.Channel
	autoUpdate bool
	notify     NotifyFunc
	log        *logrus.Entry

	mu           sync.Mutex
	lastNotified map[types.Target]string
}

// NewScheduler creates a scheduler running on a cron spec such as "@every 6h"
func NewScheduler(m *Manager, spec string, ch types.Channel, autoUpdate bool, notify NotifyFunc, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		manager:      m,
		spec:         spec,
		channel:      ch,
		autoUpdate:   autoUpdate,
		notify:       notify,
		log:          logging.OrDiscard(log),
		lastNotified: make(map[types.Target]string),
	}
}

// Run checks once immediately, then on every tick of the schedule.
// It blocks until ctx is cancelled and waits for a running tick to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	cronLog := cron.PrintfLogger(s.log)
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(s.spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", s.spec, err)
	}

	s.Tick(ctx)

	c.Start()
	s.log.WithField("schedule", s.spec).Info("Update checks scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Tick runs one round of checks
func (s *Scheduler) Tick(ctx context.Context) {
	if res := s.check(ctx, types.TargetClient, s.channel); res != nil && s.autoUpdate {
		s.install(ctx, res)
	}
	s.check(ctx, types.TargetLauncher, types.ChannelLauncherSelf)
}

func (s *Scheduler) check(ctx context.Context, target types.Target, ch types.Channel) *CheckResult {
	log := s.log.WithFields(logrus.Fields{"target": target, "channel": ch})

	res, err := s.manager.Check(ctx, target, ch)
	if err != nil {
		if errors.Is(err, ErrJobInProgress) {
			log.Debug("Skipping check while an update runs")
		} else {
			log.WithError(err).Warn("Update check failed")
		}
		return nil
	}
	if !res.Available {
		return nil
	}

	s.mu.Lock()
	version := res.Remote.String()
	already := s.lastNotified[target] == version
	s.lastNotified[target] = version
	s.mu.Unlock()

	if !already && s.notify != nil {
		s.notify(res)
	}
	return res
}

func (s *Scheduler) install(ctx context.Context, res *CheckResult) {
	log := s.log.WithField("version", res.Remote.String())

	job, err := s.manager.Start(ctx, res.Target, res.Channel, StartOptions{})
	if err != nil {
		log.WithError(err).Warn("Automatic update not started")
		return
	}
	if err := job.Wait(ctx); err != nil {
		log.WithError(err).Error("Automatic update failed")
		return
	}
	log.Info("Automatic update installed")
}

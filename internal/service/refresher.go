package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher periodically rewrites the currency-list cache entry so the first
// request after a TTL expiry does not pay the upstream round trip.
type Refresher struct {
	dashboard *Dashboard
	cron      *cron.Cron
	spec      string
	timeout   time.Duration
	log       *logrus.Entry
}

// NewRefresher creates a refresher with the given cron spec. An empty spec
// defaults to an hourly refresh, aligned with the currency-list TTL.
func NewRefresher(d *Dashboard, spec string, log *logrus.Logger) *Refresher {
	if spec == "" {
		spec = "@hourly"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Refresher{
		dashboard: d,
		cron:      cron.New(),
		spec:      spec,
		timeout:   30 * time.Second,
		log:       log.WithField("component", "refresher"),
	}
}

// Start schedules the refresh job and begins running it.
func (r *Refresher) Start() error {
	_, err := r.cron.AddFunc(r.spec, r.refresh)
	if err != nil {
		return err
	}
	r.cron.Start()
	r.log.WithField("spec", r.spec).Info("currency list refresher started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info("currency list refresher stopped")
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.dashboard.RefreshCurrencyList(ctx); err != nil {
		r.log.WithError(err).Warn("currency list refresh failed")
		return
	}
	r.log.Debug("currency list refreshed")
}

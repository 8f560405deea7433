// Package probe periodically checks that the social-graph API answers the
// channel catalog call and reports the result as a gauge. The pipeline has
// no retries, so operators watch this to tell upstream outages apart from
// genuinely empty results.
package probe

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/castscope/castscope/internal/metrics"
	"github.com/castscope/castscope/internal/models"
)

// Catalog is the single upstream call the probe exercises
type Catalog interface {
	AllChannels(ctx context.Context) ([]models.Channel, error)
}

// Service schedules the availability probe
type Service struct {
	catalog  Catalog
	schedule string
	cron     *cron.Cron
	timeout  time.Duration
}

// NewService creates a probe running on the given cron schedule
// (six-field, with seconds)
func NewService(catalog Catalog, schedule string, timeout time.Duration) *Service {
	return &Service{
		catalog:  catalog,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		timeout:  timeout,
	}
}

// Start registers and starts the probe schedule
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	logrus.Infof("Upstream probe started with schedule %q", s.schedule)
	return nil
}

// Stop stops the probe
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Upstream probe stopped")
	}
}

func (s *Service) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.catalog.AllChannels(ctx); err != nil {
		logrus.Warnf("Upstream probe failed: %v", err)
		metrics.UpstreamUp.WithLabelValues("farcaster").Set(0)
		return
	}
	metrics.UpstreamUp.WithLabelValues("farcaster").Set(1)
}

// Package poller drives background realtime collection for metrics and MQTT
// while a session is available.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/levenlabs/go-lflag"

	"github.com/luxbridge/luxbridge/pkg/log"
	"github.com/luxbridge/luxbridge/pkg/metrics"
	"github.com/luxbridge/luxbridge/pkg/monitor"
	"github.com/luxbridge/luxbridge/pkg/publish"
)

// Poller periodically snapshots realtime data. It never logs in on its own:
// with no valid session or no selected station it just records the session
// as down and waits for the next tick.
type Poller struct {
	monitor   monitor.API
	collector *metrics.Collector
	publisher *publish.Publisher

	interval  time.Duration
	scheduler *gocron.Scheduler
}

// Configured sets up the Poller based on flags. A zero interval disables it.
func Configured(m monitor.API, c *metrics.Collector, p *publish.Publisher) *Poller {
	interval := lflag.Duration("poll-interval", 0, "How often to poll realtime data in the background, 0 disables")

	pl := &Poller{
		monitor:   m,
		collector: c,
		publisher: p,
	}

	lflag.Do(func() {
		pl.interval = *interval
	})

	return pl
}

// Start schedules background collection. No-op when disabled.
func (p *Poller) Start() error {
	if p.interval <= 0 {
		log.Ctx(context.Background()).Info("background polling disabled")
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(p.interval).WaitForSchedule().Do(p.collect); err != nil {
		return fmt.Errorf("failed to schedule polling: %w", err)
	}
	s.StartAsync()
	p.scheduler = s

	log.Ctx(context.Background()).Info("background polling started", slog.Duration("interval", p.interval))
	return nil
}

// Stop halts the scheduler. Safe when polling never started.
func (p *Poller) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

func (p *Poller) collect() {
	ctx := context.Background()

	if !p.monitor.SessionValid() || p.monitor.SessionStatus().SerialNum == "" {
		p.collector.SetSessionValid(false)
		return
	}
	p.collector.SetSessionValid(true)

	rt, err := p.monitor.GetRealtime(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to poll realtime data", slog.Any("error", err))
		p.collector.IncrementPollFailures()
		return
	}
	p.collector.SetRealtime(rt)

	if !p.publisher.Enabled() {
		return
	}
	b, err := json.Marshal(rt)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to marshal realtime snapshot", slog.Any("error", err))
		return
	}
	p.publisher.Publish(ctx, b)
}

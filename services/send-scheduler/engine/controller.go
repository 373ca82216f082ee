package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/spimforce/campaign-sender/internal/events"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/metrics"
)

type runStampStore interface {
	AcquireRunStamp(ctx context.Context, now time.Time, window time.Duration) (bool, error)
	TouchRunStamp(ctx context.Context, now time.Time) error
}

type scanRunner interface {
	Scan(ctx context.Context, today time.Time) (events.ScanSummary, error)
}

type updateNotifier interface {
	CampaignsUpdated(ctx context.Context, res events.ScanSummary) error
}

// Controller is the top-level driver: a periodic tick and an explicit force
// path both funnel into one guarded tryRun. Two guards protect a run: an
// in-process flag (concurrent triggers are dropped, never queued) and the
// shared run stamp in the database, which throttles runs across processes.
// The force path skips the throttle but still respects the in-process flag.
type Controller struct {
	store    runStampStore
	scanner  scanRunner
	notifier updateNotifier
	window   time.Duration
	cron     *cron.Cron
	running  atomic.Bool
	now      func() time.Time
}

func NewController(st runStampStore, sc scanRunner, nt updateNotifier, window time.Duration) *Controller {
	if window <= 0 {
		window = time.Hour
	}
	return &Controller{
		store:    st,
		scanner:  sc,
		notifier: nt,
		window:   window,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start schedules the periodic tick and attempts a first run immediately,
// the same "on mount" attempt a fresh process makes.
func (c *Controller) Start(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		tick = 10 * time.Minute
	}
	if _, err := c.cron.AddFunc(fmt.Sprintf("@every %s", tick), func() {
		c.TryRun(ctx)
	}); err != nil {
		return err
	}
	c.cron.Start()
	go c.TryRun(ctx)
	return nil
}

// Stop halts the periodic tick and waits for an in-flight tick to finish.
func (c *Controller) Stop() {
	<-c.cron.Stop().Done()
}

// TryRun is the throttled entry point used by the tick and process start.
func (c *Controller) TryRun(ctx context.Context) {
	c.tryRun(ctx, false)
}

// ForceRun bypasses the shared throttle window. Used for the explicit
// "send now" command.
func (c *Controller) ForceRun(ctx context.Context) {
	c.tryRun(ctx, true)
}

func (c *Controller) tryRun(ctx context.Context, force bool) {
	if !c.running.CompareAndSwap(false, true) {
		metrics.SchedulerRunsTotal.WithLabelValues(metrics.OutcomeBusy).Inc()
		logx.L().Debugw("scheduler_run_dropped", "reason", "already_running", "force", force)
		return
	}
	defer c.running.Store(false)

	now := c.now()
	if force {
		// Claim the slot unconditionally so other processes back off while
		// this run is in flight.
		if err := c.store.TouchRunStamp(ctx, now); err != nil {
			logx.L().Warnw("run_stamp_touch_failed", "error", err)
		}
	} else {
		ok, err := c.store.AcquireRunStamp(ctx, now, c.window)
		if err != nil {
			metrics.SchedulerRunsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			logx.L().Errorw("run_stamp_acquire_failed", "error", err)
			return
		}
		if !ok {
			metrics.SchedulerRunsTotal.WithLabelValues(metrics.OutcomeThrottled).Inc()
			logx.L().Debugw("scheduler_run_dropped", "reason", "throttled")
			return
		}
	}

	start := time.Now()
	res, err := c.scanner.Scan(ctx, now)
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SchedulerRunsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		logx.L().Errorw("scan_failed", "force", force, "error", err)
	} else {
		metrics.SchedulerRunsTotal.WithLabelValues(metrics.OutcomeRan).Inc()
		logx.L().Infow("scan_complete", "force", force,
			"examined", res.Examined, "sent", res.Sent, "failed", res.Failed)
		if res.Sent > 0 && c.notifier != nil {
			if nerr := c.notifier.CampaignsUpdated(ctx, res); nerr != nil {
				logx.L().Warnw("update_notify_failed", "error", nerr)
			}
		}
	}

	// Refresh the stamp to completion time: the throttle window is measured
	// from end-of-run, and a failed pass must not wedge future runs.
	if err := c.store.TouchRunStamp(ctx, c.now()); err != nil {
		logx.L().Warnw("run_stamp_refresh_failed", "error", err)
	}
}

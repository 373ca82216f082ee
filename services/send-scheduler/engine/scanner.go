package engine

import (
	"context"
	"time"

	"github.com/spimforce/campaign-sender/internal/campaign"
	"github.com/spimforce/campaign-sender/internal/events"
	"github.com/spimforce/campaign-sender/internal/store"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/metrics"
)

type scannerStore interface {
	GetCampaigns(ctx context.Context) ([]campaign.Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, upd store.CampaignUpdate) error
}

type stepSender interface {
	Send(ctx context.Context, c *campaign.Campaign, step int) error
}

// Scanner walks all campaigns once and sends whatever is due today. At most
// one step goes out per campaign per pass, and one campaign's failure never
// stops the others.
type Scanner struct {
	store scannerStore
	exec  stepSender
}

func NewScanner(st scannerStore, exec stepSender) *Scanner {
	return &Scanner{store: st, exec: exec}
}

// Scan processes every active campaign against today (time component
// ignored). Returns an error only when the campaign list itself cannot be
// loaded; per-campaign failures are counted in the result.
func (s *Scanner) Scan(ctx context.Context, today time.Time) (events.ScanSummary, error) {
	today = dateOnly(today)

	campaigns, err := s.store.GetCampaigns(ctx)
	if err != nil {
		return events.ScanSummary{}, err
	}

	var res events.ScanSummary
	for i := range campaigns {
		c := &campaigns[i]
		if !c.StartCampaign {
			continue
		}
		// Replied and bounced campaigns stay in the list but the sequence
		// has stopped for them.
		if st := c.State(); st == campaign.StateReplied || st == campaign.StateBounced {
			continue
		}
		res.Examined++

		for n := 1; n <= campaign.StepCount; n++ {
			d := c.StepDate(n)
			if d == nil {
				continue
			}
			due := dateOnly(*d)
			if due.After(today) || c.StepSent(n) {
				continue
			}

			if err := s.exec.Send(ctx, c, n); err != nil {
				logx.L().Errorw("campaign_send_failed",
					"campaign_id", c.ID, "step", n, "error", err)
				metrics.SendFailures.Inc()
				res.Failed++
			} else {
				metrics.EmailsSent.Inc()
				res.Sent++
				if due.Before(today) {
					s.rewriteSchedule(ctx, c, n, today)
				}
			}
			// One send per campaign per pass, even with several steps
			// overdue.
			break
		}
	}
	return res, nil
}

// rewriteSchedule handles a backlog catch-up: the just-sent step moves to
// today and every later step is re-chained at BackfillDays intervals from
// it. Same-day sends never reach here.
func (s *Scanner) rewriteSchedule(ctx context.Context, c *campaign.Campaign, step int, today time.Time) {
	dates := map[int]time.Time{step: today}
	prev := today
	for m := step + 1; m <= campaign.StepCount; m++ {
		prev = prev.AddDate(0, 0, campaign.BackfillDays)
		dates[m] = prev
	}
	if err := s.store.UpdateCampaign(ctx, c.ID, store.CampaignUpdate{StepDates: dates}); err != nil {
		// The email already went out; a stale schedule is recoverable on a
		// later pass, so log and move on.
		logx.L().Errorw("schedule_rewrite_failed",
			"campaign_id", c.ID, "step", step, "error", err)
		return
	}
	for n, d := range dates {
		d2 := d
		c.StepDates[n-1] = &d2
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

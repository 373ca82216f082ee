package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spimforce/campaign-sender/internal/bridge"
	"github.com/spimforce/campaign-sender/internal/campaign"
	"github.com/spimforce/campaign-sender/internal/render"
	"github.com/spimforce/campaign-sender/internal/store"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/metrics"
)

// threadLookbackDays is how far back the bridge searches for a prior sent
// message to reply to.
const threadLookbackDays = 60

// ErrTemplateNotFound means the campaign references a template id that no
// longer exists. Fatal for that send; the campaign is not advanced.
var ErrTemplateNotFound = errors.New("template not found")

type executorStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	GetTemplate(ctx context.Context, id int64) (*campaign.Template, error)
	UpdateCampaign(ctx context.Context, id int64, upd store.CampaignUpdate) error
}

type mailBridge interface {
	CreateDraft(ctx context.Context, req bridge.DraftRequest) error
	FindLastSent(ctx context.Context, recipient, subject string, daysBack int) (string, error)
}

type attachmentMaterializer interface {
	Materialize(ctx context.Context, refs []campaign.AttachmentRef) []bridge.Attachment
}

// Executor performs one send of one numbered step within one campaign:
// render, locate thread, materialize attachments, dispatch, persist.
type Executor struct {
	store  executorStore
	bridge mailBridge
	attach attachmentMaterializer
	now    func() time.Time
}

func NewExecutor(st executorStore, br mailBridge, at attachmentMaterializer) *Executor {
	return &Executor{store: st, bridge: br, attach: at, now: time.Now}
}

// Send executes step for c. A step that was already sent is a silent no-op,
// which is what makes a racing duplicate scan harmless. On success the
// campaign's emails_sent is persisted as step and c is updated in place.
func (e *Executor) Send(ctx context.Context, c *campaign.Campaign, step int) error {
	if step < 1 || step > campaign.StepCount {
		return fmt.Errorf("campaign %d: step %d out of range", c.ID, step)
	}
	if c.StepSent(step) {
		return nil
	}

	manager, signature, err := e.loadSettings(ctx)
	if err != nil {
		return fmt.Errorf("campaign %d: load settings: %w", c.ID, err)
	}

	tpl, err := e.store.GetTemplate(ctx, c.TemplateID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("campaign %d: template %d: %w", c.ID, c.TemplateID, ErrTemplateNotFound)
	}
	if err != nil {
		return fmt.Errorf("campaign %d: load template %d: %w", c.ID, c.TemplateID, err)
	}
	slot := tpl.Slot(step)

	year := e.now().Year()
	vars := render.Vars{
		render.VarFirstName:    c.Contact.FirstName,
		render.VarYear:         strconv.Itoa(year),
		render.VarNextYear:     strconv.Itoa(year + 1),
		render.VarOrganization: c.Contact.Organization,
	}
	subject := render.Render(slot.Subject, vars)

	vars[render.VarAccountManager] = manager.Name
	body := render.WithSignature(render.Render(slot.Body, vars), signature)

	// The thread lookup must use the rendered subject: the bridge matches
	// against what actually went out, not the template text. A failed
	// lookup degrades to a fresh (non-reply) message.
	threadRef, err := e.bridge.FindLastSent(ctx, c.Contact.Email, subject, threadLookbackDays)
	if err != nil && !errors.Is(err, bridge.ErrNoThread) {
		logx.L().Warnw("thread_lookup_failed",
			"campaign_id", c.ID, "recipient", c.Contact.Email, "error", err)
		metrics.ThreadLookupFailures.Inc()
		threadRef = ""
	}

	attachments := e.attach.Materialize(ctx, slot.Attachments)

	if err := e.bridge.CreateDraft(ctx, bridge.DraftRequest{
		To:              c.Contact.Email,
		Subject:         subject,
		Body:            body,
		Attachments:     attachments,
		ThreadReference: threadRef,
	}); err != nil {
		return fmt.Errorf("campaign %d step %d: dispatch: %w", c.ID, step, err)
	}

	sent := step
	if err := e.store.UpdateCampaign(ctx, c.ID, store.CampaignUpdate{EmailsSent: &sent}); err != nil {
		return fmt.Errorf("campaign %d step %d: persist emails_sent: %w", c.ID, step, err)
	}
	c.EmailsSent = step

	logx.L().Infow("campaign_email_sent",
		"campaign_id", c.ID, "step", step, "recipient", c.Contact.Email,
		"reply", threadRef != "", "attachments", len(attachments))
	return nil
}

// loadSettings fetches the account manager and signature records. A missing
// record renders as empty values; a failing read fails the send.
func (e *Executor) loadSettings(ctx context.Context) (campaign.AccountManager, string, error) {
	var manager campaign.AccountManager
	raw, err := e.store.GetSetting(ctx, campaign.SettingAccountManager)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return manager, "", err
	default:
		if err := json.Unmarshal([]byte(raw), &manager); err != nil {
			return manager, "", fmt.Errorf("bad %s setting: %w", campaign.SettingAccountManager, err)
		}
	}

	raw, err = e.store.GetSetting(ctx, campaign.SettingEmailSignature)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return manager, "", nil
	case err != nil:
		return manager, "", err
	}
	// The record is usually {"signature": "..."}, but older rows store the
	// string directly, sometimes quote-wrapped with escaped newlines.
	var sig campaign.SignatureSetting
	if err := json.Unmarshal([]byte(raw), &sig); err == nil && sig.Signature != "" {
		return manager, render.CleanSignature(sig.Signature), nil
	}
	return manager, render.CleanSignature(raw), nil
}

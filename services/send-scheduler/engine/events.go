package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/spimforce/campaign-sender/internal/events"
)

type jsonPublisher interface {
	PublishJSON(ctx context.Context, body []byte) error
}

// Notifier publishes update notices onto the bus.
type Notifier struct {
	Pub jsonPublisher
}

func NewNotifier(pub jsonPublisher) *Notifier { return &Notifier{Pub: pub} }

func (n *Notifier) CampaignsUpdated(ctx context.Context, res events.ScanSummary) error {
	payload, err := json.Marshal(events.UpdateNotice{
		RunID:       uuid.NewString(),
		Summary:     res,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.Pub.PublishJSON(ctx, payload)
}

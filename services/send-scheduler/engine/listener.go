package engine

import (
	"context"
	"encoding/json"

	"github.com/spimforce/campaign-sender/internal/events"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/rmq"
)

// Listener consumes force-send commands from the bus and feeds them to the
// controller's force path.
type Listener struct {
	Cons *rmq.Consumer
	Ctrl *Controller
}

func NewListener(cons *rmq.Consumer, ctrl *Controller) *Listener {
	return &Listener{Cons: cons, Ctrl: ctrl}
}

func (l *Listener) Run(ctx context.Context) error {
	msgs, err := l.Cons.Consume()
	if err != nil {
		return err
	}
	logx.L().Infow("force_listener_started", "queue", l.Cons.Queue)

	for {
		select {
		case <-ctx.Done():
			logx.L().Infow("force_listener_stopping")
			return ctx.Err()

		case d, ok := <-msgs:
			if !ok {
				logx.L().Warnw("consumer_channel_closed")
				return nil
			}

			var cmd events.ForceCommand
			if err := json.Unmarshal(d.Body, &cmd); err != nil {
				logx.L().Warnw("force_command_unmarshal_error", "error", err)
				_ = d.Ack(false)
				continue
			}

			logx.L().Infow("force_send_received",
				"request_id", cmd.RequestID, "requested_by", cmd.RequestedBy)
			l.Ctrl.ForceRun(ctx)
			_ = d.Ack(false)
		}
	}
}

package campaign

import "fmt"

// State is the derived lifecycle state of a campaign. The persisted row keeps
// the raw flag/counter fields; State collapses them into one value so callers
// never reason about flag combinations directly.
type State string

const (
	StateNotStarted State = "not_started"
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateReplied    State = "replied"
	StateBounced    State = "bounced"
)

// State derives the lifecycle state. Reply and bounce flags win over
// progression: a replied campaign is "replied" no matter how many steps went
// out, because the sequence stops there.
func (c *Campaign) State() State {
	switch {
	case c.EmailIncorrect:
		return StateBounced
	case c.HasReplied:
		return StateReplied
	case !c.StartCampaign:
		return StateNotStarted
	case c.EmailsSent >= StepCount:
		return StateCompleted
	case c.EmailsSent == 0:
		return StatePending
	default:
		return StateInProgress
	}
}

// Validate rejects rows whose raw fields encode an impossible combination.
func (c *Campaign) Validate() error {
	if c.EmailsSent < 0 || c.EmailsSent > StepCount {
		return fmt.Errorf("campaign %d: emails_sent %d out of range 0..%d", c.ID, c.EmailsSent, StepCount)
	}
	if c.HasReplied && c.EmailsSent == 0 {
		return fmt.Errorf("campaign %d: has_replied set but no email was ever sent", c.ID)
	}
	return nil
}

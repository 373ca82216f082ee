package campaign

import (
	"testing"
	"time"
)

func TestState(t *testing.T) {
	cases := []struct {
		name string
		c    Campaign
		want State
	}{
		{"fresh row", Campaign{}, StateNotStarted},
		{"started nothing sent", Campaign{StartCampaign: true}, StatePending},
		{"mid sequence", Campaign{StartCampaign: true, EmailsSent: 2}, StateInProgress},
		{"all steps out", Campaign{StartCampaign: true, EmailsSent: StepCount}, StateCompleted},
		{"replied", Campaign{StartCampaign: true, EmailsSent: 3, HasReplied: true}, StateReplied},
		{"bounced", Campaign{StartCampaign: true, EmailsSent: 1, EmailIncorrect: true}, StateBounced},
		{"bounce wins over reply", Campaign{StartCampaign: true, EmailsSent: 1, HasReplied: true, EmailIncorrect: true}, StateBounced},
		{"reply wins over completion", Campaign{StartCampaign: true, EmailsSent: StepCount, HasReplied: true}, StateReplied},
		{"flags apply even when paused", Campaign{EmailsSent: 1, HasReplied: true}, StateReplied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.State(); got != tc.want {
				t.Fatalf("state = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	ok := Campaign{StartCampaign: true, EmailsSent: 2, HasReplied: true}
	if err := ok.Validate(); err != nil {
		t.Fatal(err)
	}

	over := Campaign{EmailsSent: StepCount + 1}
	if err := over.Validate(); err == nil {
		t.Fatal("emails_sent beyond the last step must be rejected")
	}

	neg := Campaign{EmailsSent: -1}
	if err := neg.Validate(); err == nil {
		t.Fatal("negative emails_sent must be rejected")
	}

	ghost := Campaign{HasReplied: true}
	if err := ghost.Validate(); err == nil {
		t.Fatal("a reply with no emails sent must be rejected")
	}
}

func TestStepAccessors(t *testing.T) {
	d := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	c := Campaign{EmailsSent: 2, StepDates: [StepCount]*time.Time{nil, &d}}

	if c.StepDate(1) != nil {
		t.Fatal("step 1 has no date")
	}
	if got := c.StepDate(2); got == nil || !got.Equal(d) {
		t.Fatalf("step 2 date = %v", got)
	}
	if c.StepDate(0) != nil || c.StepDate(StepCount+1) != nil {
		t.Fatal("out-of-range steps must report no date")
	}

	if !c.StepSent(1) || !c.StepSent(2) {
		t.Fatal("steps 1 and 2 went out")
	}
	if c.StepSent(3) {
		t.Fatal("step 3 is still pending")
	}
}

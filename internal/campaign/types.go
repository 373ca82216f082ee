package campaign

import "time"

// StepCount is the fixed number of emails in a campaign sequence.
const StepCount = 5

// BackfillDays separates rescheduled steps after a backlog catch-up.
const BackfillDays = 3

type Contact struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
}

// Campaign tracks one contact's progression through the 5-step sequence.
// StepDates[i] holds the scheduled date for step i+1; nil means unscheduled.
type Campaign struct {
	ID             int64
	ContactID      int64
	TemplateID     int64
	StartCampaign  bool
	EmailsSent     int
	HasReplied     bool
	EmailIncorrect bool
	StepDates      [StepCount]*time.Time
	Contact        Contact
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StepDate returns the scheduled date for step n (1-based), nil if unset.
func (c *Campaign) StepDate(n int) *time.Time {
	if n < 1 || n > StepCount {
		return nil
	}
	return c.StepDates[n-1]
}

// StepSent reports whether step n has already been sent.
func (c *Campaign) StepSent(n int) bool {
	return c.EmailsSent >= n
}

type AttachmentRef struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// TemplateSlot is the content for one step of the sequence.
type TemplateSlot struct {
	Subject     string          `json:"subject"`
	Body        string          `json:"body"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

type Template struct {
	ID    int64
	Name  string
	Slots [StepCount]TemplateSlot
}

// Slot returns the content pack for step n (1-based).
func (t *Template) Slot(n int) TemplateSlot {
	if n < 1 || n > StepCount {
		return TemplateSlot{}
	}
	return t.Slots[n-1]
}

// AccountManager is the settings record behind the account-manager variable.
type AccountManager struct {
	Name string `json:"name"`
}

// SignatureSetting is the raw email_signature settings record. The stored
// value may be quote-wrapped and escape-encoded; render.CleanSignature
// normalizes it.
type SignatureSetting struct {
	Signature string `json:"signature"`
}

const (
	SettingAccountManager = "account_manager"
	SettingEmailSignature = "email_signature"
)

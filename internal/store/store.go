package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spimforce/campaign-sender/internal/campaign"
)

// ErrNotFound is returned when a keyed lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// DateLayout is the storage format for step schedule dates (date only, no
// time component).
const DateLayout = "2006-01-02"

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

// CampaignUpdate carries a partial update. Nil fields are left untouched so
// writers never clobber columns they did not mean to change.
type CampaignUpdate struct {
	EmailsSent *int
	StepDates  map[int]time.Time // step number (1-based) -> new scheduled date
}

func (u CampaignUpdate) empty() bool {
	return u.EmailsSent == nil && len(u.StepDates) == 0
}

const campaignColumns = `
	c.id, c.contact_id, c.template_id, c.start_campaign, c.emails_sent,
	c.has_replied, c.email_incorrect,
	c.email_1_date, c.email_2_date, c.email_3_date, c.email_4_date, c.email_5_date,
	c.created_at, c.updated_at,
	ct.id, ct.first_name, ct.last_name, ct.email, ct.organization`

func scanCampaign(row interface{ Scan(...any) error }) (campaign.Campaign, error) {
	var (
		c     campaign.Campaign
		dates [campaign.StepCount]sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.ContactID, &c.TemplateID, &c.StartCampaign, &c.EmailsSent,
		&c.HasReplied, &c.EmailIncorrect,
		&dates[0], &dates[1], &dates[2], &dates[3], &dates[4],
		&c.CreatedAt, &c.UpdatedAt,
		&c.Contact.ID, &c.Contact.FirstName, &c.Contact.LastName,
		&c.Contact.Email, &c.Contact.Organization,
	)
	if err != nil {
		return campaign.Campaign{}, err
	}
	for i, d := range dates {
		if !d.Valid || d.String == "" {
			continue
		}
		t, err := time.Parse(DateLayout, d.String)
		if err != nil {
			return campaign.Campaign{}, fmt.Errorf("campaign %d: bad email_%d_date %q: %w", c.ID, i+1, d.String, err)
		}
		t2 := t
		c.StepDates[i] = &t2
	}
	return c, nil
}

// GetCampaigns returns every campaign joined with its contact, in id order.
func (s *Store) GetCampaigns(ctx context.Context) ([]campaign.Campaign, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c
		JOIN contacts ct ON ct.id = c.contact_id
		ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []campaign.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCampaign(ctx context.Context, id int64) (campaign.Campaign, error) {
	c, err := scanCampaign(s.DB.QueryRowContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c
		JOIN contacts ct ON ct.id = c.contact_id
		WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Campaign{}, ErrNotFound
	}
	return c, err
}

// ListCampaigns pages through campaigns for the admin surface, newest first.
func (s *Store) ListCampaigns(ctx context.Context, limit, offset int) ([]campaign.Campaign, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c
		JOIN contacts ct ON ct.id = c.contact_id
		ORDER BY c.id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]campaign.Campaign, 0, limit)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCampaign applies a partial update to one campaign row. Only the
// fields present in upd are written.
func (s *Store) UpdateCampaign(ctx context.Context, id int64, upd CampaignUpdate) error {
	if upd.empty() {
		return nil
	}
	sets := make([]string, 0, campaign.StepCount+2)
	args := make([]any, 0, campaign.StepCount+3)
	if upd.EmailsSent != nil {
		sets = append(sets, "emails_sent = ?")
		args = append(args, *upd.EmailsSent)
	}
	for n := 1; n <= campaign.StepCount; n++ {
		d, ok := upd.StepDates[n]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("email_%d_date = ?", n))
		args = append(args, d.Format(DateLayout))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := s.DB.ExecContext(ctx,
		"UPDATE campaigns SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTemplate loads a template and its five slots. ErrNotFound when the id
// does not exist.
func (s *Store) GetTemplate(ctx context.Context, id int64) (*campaign.Template, error) {
	t := &campaign.Template{ID: id}
	err := s.DB.QueryRowContext(ctx,
		`SELECT name FROM templates WHERE id = ?`, id).Scan(&t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT slot, subject, body, attachments
		FROM template_slots
		WHERE template_id = ?
		ORDER BY slot`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			slot        int
			subject     string
			body        string
			attachments sql.NullString
		)
		if err := rows.Scan(&slot, &subject, &body, &attachments); err != nil {
			return nil, err
		}
		if slot < 1 || slot > campaign.StepCount {
			continue
		}
		ts := campaign.TemplateSlot{Subject: subject, Body: body}
		if attachments.Valid && attachments.String != "" {
			if err := json.Unmarshal([]byte(attachments.String), &ts.Attachments); err != nil {
				return nil, fmt.Errorf("template %d slot %d: bad attachments json: %w", id, slot, err)
			}
		}
		t.Slots[slot-1] = ts
	}
	return t, rows.Err()
}

// GetSetting returns the raw JSON value stored under key. ErrNotFound when
// the key is absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

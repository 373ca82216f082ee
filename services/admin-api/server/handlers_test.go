package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spimforce/campaign-sender/internal/campaign"
	"github.com/spimforce/campaign-sender/internal/events"
	"github.com/spimforce/campaign-sender/internal/store"
)

type fakeStore struct {
	campaigns []campaign.Campaign
	lastRun   *time.Time
	listLimit int
	listOff   int
}

func (f *fakeStore) ListCampaigns(_ context.Context, limit, offset int) ([]campaign.Campaign, error) {
	f.listLimit, f.listOff = limit, offset
	return f.campaigns, nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id int64) (campaign.Campaign, error) {
	for _, c := range f.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return campaign.Campaign{}, store.ErrNotFound
}

func (f *fakeStore) LastRunAt(_ context.Context) (*time.Time, error) {
	return f.lastRun, nil
}

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, body)
	return nil
}

type errTest string

func (e errTest) Error() string { return string(e) }

func sampleCampaign() campaign.Campaign {
	d1 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)
	return campaign.Campaign{
		ID:            7,
		TemplateID:    3,
		StartCampaign: true,
		EmailsSent:    1,
		StepDates:     [campaign.StepCount]*time.Time{&d1, &d2},
		Contact: campaign.Contact{
			FirstName:    "Ana",
			LastName:     "García",
			Email:        "ana@acme.example",
			Organization: "Acme",
		},
	}
}

func TestListCampaigns_OK(t *testing.T) {
	fs := &fakeStore{campaigns: []campaign.Campaign{sampleCampaign()}}
	srv := NewHTTPServer(":0", NewHandlers(fs, &fakePublisher{}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns?limit=5&offset=10", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", rr.Code, rr.Body.String())
	}
	if fs.listLimit != 5 || fs.listOff != 10 {
		t.Fatalf("pagination not passed through: limit=%d offset=%d", fs.listLimit, fs.listOff)
	}
	var items []campaignListItem
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}
	got := items[0]
	if got.ContactName != "Ana García" || got.ContactEmail != "ana@acme.example" {
		t.Fatalf("contact fields: %+v", got)
	}
	if got.State != string(campaign.StateInProgress) {
		t.Fatalf("state=%s", got.State)
	}
	if got.NextDate != "2024-01-13" {
		t.Fatalf("next_date=%s, want the first unsent step", got.NextDate)
	}
}

func TestGetCampaign_OK(t *testing.T) {
	fs := &fakeStore{campaigns: []campaign.Campaign{sampleCampaign()}}
	srv := NewHTTPServer(":0", NewHandlers(fs, &fakePublisher{}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/7", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", rr.Code, rr.Body.String())
	}
	var resp campaignDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TemplateID != 3 || len(resp.Steps) != campaign.StepCount {
		t.Fatalf("details: %+v", resp)
	}
	if !resp.Steps[0].Sent || resp.Steps[0].Date != "2024-01-10" {
		t.Fatalf("step 1: %+v", resp.Steps[0])
	}
	if resp.Steps[1].Sent || resp.Steps[1].Date != "2024-01-13" {
		t.Fatalf("step 2: %+v", resp.Steps[1])
	}
	if resp.Steps[4].Date != "" {
		t.Fatalf("unscheduled step must have no date: %+v", resp.Steps[4])
	}
}

func TestGetCampaign_NotFound(t *testing.T) {
	srv := NewHTTPServer(":0", NewHandlers(&fakeStore{}, &fakePublisher{}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/99", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetCampaign_BadID(t *testing.T) {
	srv := NewHTTPServer(":0", NewHandlers(&fakeStore{}, &fakePublisher{}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/abc", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestForceSend_Accepted(t *testing.T) {
	fp := &fakePublisher{}
	srv := NewHTTPServer(":0", NewHandlers(&fakeStore{}, fp))

	rr := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"requested_by":"ops@spim.example"}`)
	req := httptest.NewRequest(http.MethodPost, "/send/force", body)
	req.Header.Set("Content-Type", "application/json")
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status=%d, body=%s", rr.Code, rr.Body.String())
	}
	var resp forceSendResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RequestID == "" {
		t.Fatal("missing request_id")
	}
	if len(fp.payloads) != 1 {
		t.Fatalf("published %d commands", len(fp.payloads))
	}
	var cmd events.ForceCommand
	if err := json.Unmarshal(fp.payloads[0], &cmd); err != nil {
		t.Fatal(err)
	}
	if cmd.RequestID != resp.RequestID || cmd.RequestedBy != "ops@spim.example" {
		t.Fatalf("command: %+v", cmd)
	}
}

func TestForceSend_EmptyBodyAllowed(t *testing.T) {
	fp := &fakePublisher{}
	srv := NewHTTPServer(":0", NewHandlers(&fakeStore{}, fp))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/send/force", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status=%d, body=%s", rr.Code, rr.Body.String())
	}
}

func TestForceSend_QueueDown(t *testing.T) {
	fp := &fakePublisher{err: errTest("broker unreachable")}
	srv := NewHTTPServer(":0", NewHandlers(&fakeStore{}, fp))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/send/force", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestSchedulerStatus(t *testing.T) {
	t.Run("never ran", func(t *testing.T) {
		srv := NewHTTPServer(":0", NewHandlers(&fakeStore{}, &fakePublisher{}))

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scheduler", nil)
		srv.Handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status=%d", rr.Code)
		}
		var resp map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp["last_run_at"] != nil {
			t.Fatalf("want null last_run_at, got %v", resp["last_run_at"])
		}
	})

	t.Run("has run", func(t *testing.T) {
		last := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
		srv := NewHTTPServer(":0", NewHandlers(&fakeStore{lastRun: &last}, &fakePublisher{}))

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scheduler", nil)
		srv.Handler.ServeHTTP(rr, req)

		var resp map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp["last_run_at"] != "2024-05-01T09:30:00Z" {
			t.Fatalf("last_run_at=%v", resp["last_run_at"])
		}
	})
}

func TestDocsEndpoints(t *testing.T) {
	srv := NewHTTPServer(":0", NewHandlers(&fakeStore{}, &fakePublisher{}))

	t.Run("html", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/docs", nil)

		srv.Handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "SwaggerUIBundle") {
			t.Fatalf("swagger bundle not rendered: %s", rr.Body.String())
		}
	})

	t.Run("openapi", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/docs/admin-api/openapi.yaml", nil)

		srv.Handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "yaml") {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if !strings.Contains(rr.Body.String(), "openapi: 3.0.3") {
			t.Fatalf("unexpected body: %s", rr.Body.String())
		}
	})
}

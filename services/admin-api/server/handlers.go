package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spimforce/campaign-sender/internal/campaign"
	"github.com/spimforce/campaign-sender/internal/events"
	"github.com/spimforce/campaign-sender/internal/store"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/metrics"
)

type storeAPI interface {
	ListCampaigns(ctx context.Context, limit, offset int) ([]campaign.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (campaign.Campaign, error)
	LastRunAt(ctx context.Context) (*time.Time, error)
}

type publisherAPI interface {
	PublishJSON(ctx context.Context, body []byte) error
}

type Handlers struct {
	Store storeAPI
	Pub   publisherAPI
}

func NewHandlers(s storeAPI, pub publisherAPI) *Handlers {
	return &Handlers{Store: s, Pub: pub}
}

type stepView struct {
	Step string `json:"step"`
	Date string `json:"date,omitempty"`
	Sent bool   `json:"sent"`
}

type campaignListItem struct {
	ID           int64  `json:"id"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Organization string `json:"organization,omitempty"`
	State        string `json:"state"`
	EmailsSent   int    `json:"emails_sent"`
	NextDate     string `json:"next_date,omitempty"`
}

type campaignDetails struct {
	campaignListItem
	TemplateID int64      `json:"template_id"`
	Steps      []stepView `json:"steps"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type forceSendReq struct {
	RequestedBy string `json:"requested_by"`
}

type forceSendResp struct {
	RequestID string `json:"request_id"`
}

func listItem(c *campaign.Campaign) campaignListItem {
	item := campaignListItem{
		ID:           c.ID,
		ContactName:  c.Contact.FirstName + " " + c.Contact.LastName,
		ContactEmail: c.Contact.Email,
		Organization: c.Contact.Organization,
		State:        string(c.State()),
		EmailsSent:   c.EmailsSent,
	}
	if next := c.EmailsSent + 1; next <= campaign.StepCount {
		if d := c.StepDate(next); d != nil {
			item.NextDate = d.Format(store.DateLayout)
		}
	}
	return item
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handlers) ListCampaigns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Store.ListCampaigns(ctx, limit, offset)
	if err != nil {
		logx.L().Errorw("list_campaigns_error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list error"})
		return
	}

	out := make([]campaignListItem, 0, len(rows))
	for i := range rows {
		out = append(out, listItem(&rows[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	camp, err := h.Store.GetCampaign(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return
	}
	if err != nil {
		logx.L().Errorw("get_campaign_error", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup error"})
		return
	}

	resp := campaignDetails{
		campaignListItem: listItem(&camp),
		TemplateID:       camp.TemplateID,
		Steps:            make([]stepView, 0, campaign.StepCount),
		CreatedAt:        camp.CreatedAt,
		UpdatedAt:        camp.UpdatedAt,
	}
	for n := 1; n <= campaign.StepCount; n++ {
		sv := stepView{Step: strconv.Itoa(n), Sent: camp.StepSent(n)}
		if d := camp.StepDate(n); d != nil {
			sv.Date = d.Format(store.DateLayout)
		}
		resp.Steps = append(resp.Steps, sv)
	}
	c.JSON(http.StatusOK, resp)
}

// ForceSend publishes a force-send command to the scheduler. The scheduler
// side bypasses its throttle window for these.
func (h *Handlers) ForceSend(c *gin.Context) {
	var req forceSendReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	cmd := events.ForceCommand{
		RequestID:   uuid.NewString(),
		RequestedBy: req.RequestedBy,
		RequestedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		logx.L().Errorw("force_command_marshal_error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "publish error"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.Pub.PublishJSON(ctx, payload); err != nil {
		logx.L().Errorw("force_command_publish_error", "request_id", cmd.RequestID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "queue unavailable"})
		return
	}
	metrics.ForceSendsPublished.Inc()

	c.JSON(http.StatusAccepted, forceSendResp{RequestID: cmd.RequestID})
}

func (h *Handlers) SchedulerStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	last, err := h.Store.LastRunAt(ctx)
	if err != nil {
		logx.L().Errorw("scheduler_status_error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status error"})
		return
	}
	resp := gin.H{"last_run_at": nil}
	if last != nil {
		resp["last_run_at"] = last.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

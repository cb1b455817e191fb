package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pokerjest/animatch/internal/event"
	"github.com/pokerjest/animatch/internal/matcher"
	"github.com/pokerjest/animatch/internal/parser"
	"github.com/rs/zerolog/log"
)

// BatchStarter starts a background batch; matcher.Runner implements it.
type BatchStarter interface {
	Start(ctx context.Context, maxItems int) (<-chan matcher.Result, error)
}

// TitleCounter reports the size of the local title index.
type TitleCounter interface {
	CountTitles(ctx context.Context) (int64, error)
}

type Handler struct {
	ctx      context.Context
	runner   BatchStarter
	titles   TitleCounter
	bus      event.Bus
	tracker  *StatusTracker
	maxItems int
}

// NewHandler wires the HTTP surface. ctx bounds batches started over HTTP,
// which outlive the request that triggered them.
func NewHandler(ctx context.Context, runner BatchStarter, titles TitleCounter, bus event.Bus, maxItems int) *Handler {
	return &Handler{
		ctx:      ctx,
		runner:   runner,
		titles:   titles,
		bus:      bus,
		tracker:  NewStatusTracker(bus),
		maxItems: maxItems,
	}
}

// HealthHandler GET /healthz
func (h *Handler) HealthHandler(c *gin.Context) {
	n, err := h.titles.CountTitles(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("health check: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "titles": n})
}

type parseResponse struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Title   string `json:"title,omitempty"`
	Episode int    `json:"episode"`
	Rule    string `json:"rule,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Code    int    `json:"code"`
}

// ParseHandler GET /api/parse?name=
func (h *Handler) ParseHandler(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	cand := parser.ParseReleaseName(name)
	resp := parseResponse{
		Name:    name,
		OK:      cand.OK(),
		Title:   cand.Title,
		Episode: cand.Episode,
		Rule:    cand.Rule,
		Code:    int(cand.Failure),
	}
	if !resp.OK {
		resp.Reason = parser.ReasonExtractionFailed.String()
		resp.Code = int(parser.ReasonExtractionFailed)
	}
	c.JSON(http.StatusOK, resp)
}

// RunBatchHandler POST /api/batch/run[?max=N]
func (h *Handler) RunBatchHandler(c *gin.Context) {
	var req struct {
		Max int `form:"max"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max must be an integer"})
		return
	}
	maxItems := h.maxItems
	if req.Max > 0 {
		maxItems = req.Max
	}

	results, err := h.runner.Start(h.ctx, maxItems)
	if errors.Is(err, matcher.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	go func() {
		res := <-results
		if res.Err != nil {
			log.Error().Err(res.Err).Msg("batch triggered over HTTP failed")
		}
		h.tracker.RecordError(res.Err)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "max": maxItems})
}

// BatchStatusHandler GET /api/batch/status
func (h *Handler) BatchStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Snapshot())
}

package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	"github.com/BruksfildServices01/hospital-scheduler/internal/dto"
	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/hospital-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

const (
	defaultFeedbackLimit = 10
	maxFeedbackLimit     = 50
)

type FeedbackStore interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) error
	ListRecentFeedback(ctx context.Context, limit int) ([]dto.FeedbackDTO, error)
}

var _ FeedbackStore = (*repository.FeedbackGormRepository)(nil)

type FeedbackHandler struct {
	store  FeedbackStore
	audit  *audit.Dispatcher
	logger *zap.Logger
}

func NewFeedbackHandler(store FeedbackStore, audit *audit.Dispatcher, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{store: store, audit: audit, logger: logger}
}

type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		httperr.BadRequest(c, "invalid_request", "Feedback text is required.")
		return
	}

	userID, _ := currentUser(c)

	f := models.Feedback{
		UserID:  userID,
		Rating:  req.Rating,
		Comment: comment,
	}
	if err := h.store.CreateFeedback(c.Request.Context(), &f); err != nil {
		writeError(c, h.logger, err, "failed_to_save_feedback")
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   &userID,
		Action:   "feedback_submitted",
		Entity:   "feedback",
		EntityID: strconv.FormatUint(uint64(f.ID), 10),
		Metadata: map[string]any{"rating": f.Rating},
	})

	httpresp.Created(c, f)
}

// ListRecent answers the newest feedback, 10 by default and at most 50.
func (h *FeedbackHandler) ListRecent(c *gin.Context) {
	limit := defaultFeedbackLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httperr.BadRequest(c, "invalid_limit", "limit must be a positive number.")
			return
		}
		limit = min(n, maxFeedbackLimit)
	}

	list, err := h.store.ListRecentFeedback(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_list_feedback")
		return
	}

	httpresp.List(c, list)
}

package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/admin-dashboard/internal/handler"
	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/service/appointment"
	"github.com/jwalitptl/admin-dashboard/internal/service/dashboard"
	apperrors "github.com/jwalitptl/admin-dashboard/pkg/errors"
)

type Dashboard interface {
	Overview() dashboard.Overview
	Pending(query string) []dashboard.Row
	Doctors() []model.Doctor
	RefreshAll(ctx context.Context) error
}

type Actions interface {
	PerformAction(ctx context.Context, id model.ID, outcome model.Outcome) (*appointment.Result, error)
}

// ActionRequest must carry "confirmed": true. Staff confirm every accept and
// cancel before it runs.
type ActionRequest struct {
	Confirmed bool `json:"confirmed" binding:"required"`
}

type Handler struct {
	dash    Dashboard
	actions Actions
}

func NewHandler(dash Dashboard, actions Actions) *Handler {
	return &Handler{dash: dash, actions: actions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	d := r.Group("/dashboard")
	{
		d.GET("", h.GetOverview)
		d.GET("/appointments", h.ListPending)
		d.POST("/appointments/:id/:outcome", h.Act)
		d.POST("/refresh", h.Refresh)
		d.GET("/doctors", h.ListDoctors)
	}
}

func (h *Handler) GetOverview(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.dash.Overview()))
}

func (h *Handler) ListPending(c *gin.Context) {
	rows := h.dash.Pending(c.Query("q"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"appointments": rows,
		"count":        len(rows),
	}))
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors := h.dash.Doctors()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"doctors": doctors,
		"count":   len(doctors),
	}))
}

func (h *Handler) Refresh(c *gin.Context) {
	if err := h.dash.RefreshAll(c.Request.Context()); err != nil {
		_ = c.Error(apperrors.Upstream("failed to refresh dashboard", err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.dash.Overview()))
}

// Act accepts or cancels the appointment named in the path.
func (h *Handler) Act(c *gin.Context) {
	outcome, err := model.ParseOutcome(c.Param("outcome"))
	if err != nil {
		_ = c.Error(apperrors.NotFound("action", err))
		return
	}

	id := model.ID(strings.TrimSpace(c.Param("id")))
	if id.IsZero() {
		_ = c.Error(apperrors.BadRequest("invalid appointment ID", nil))
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirmed {
		_ = c.Error(apperrors.BadRequest("confirmation required", err))
		return
	}

	res, err := h.actions.PerformAction(c.Request.Context(), id, outcome)
	if err != nil {
		if errors.Is(err, dashboard.ErrNotPending) {
			_ = c.Error(apperrors.Conflict("appointment is not pending", err))
			return
		}
		_ = c.Error(apperrors.Internal(err))
		return
	}

	if !res.Succeeded {
		c.JSON(http.StatusBadGateway, handler.NewFailureResponse(res.Popup.Message, res))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(res))
}

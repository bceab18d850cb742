// Package handlers adapts reconciliation results to the station's local HTTP
// surface. It holds no business logic: every decision is made by
// station/core and translated here to a status code and an envelope.
package handlers

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	v1 "koinonia.church/koinonia/membership/v1"
	"koinonia.church/koinonia/station/core"
	"koinonia.church/koinonia/station/model"
	"koinonia.church/koinonia/station/store"
	"koinonia.church/koinonia/web/common"
)

type Handler struct {
	Client *v1.MembershipClient
	Engine *core.Reconciler
	Sync   *core.SyncService
	Store  *store.Store
	Oracle core.Oracle

	// busy serializes check-in attempts for this surface; the engine holds
	// no internal mutex.
	busy atomic.Bool
}

func Register(r *gin.RouterGroup, h *Handler) {
	r.GET("/events", h.ActiveEvents)
	r.GET("/session", h.Session)
	r.GET("/events/:id/permission", h.Permission)
	r.POST("/events/:id/sync", h.SyncRoster)
	r.GET("/events/:id/status", h.Status)
	r.GET("/events/:id/pending", h.ListPending)
	r.POST("/checkin", h.CheckIn)
}

func (h *Handler) ActiveEvents(c *gin.Context) {
	events, err := h.Client.Events.Active(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, common.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(events))
}

// Session resolves which event this surface scans for. A single active event
// is picked automatically; several need ?eventId=.
func (h *Handler) Session(c *gin.Context) {
	events, err := h.Client.Events.Active(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, common.NewErrorResponse(err.Error()))
		return
	}

	selected, err := core.SelectEvent(events, c.Query("eventId"))
	switch {
	case errors.Is(err, core.ErrNoActiveEvent):
		c.JSON(http.StatusNotFound, common.NewCodedErrorResponse("NO_ACTIVE_EVENT", err.Error()))
		return
	case errors.Is(err, core.ErrEventChoiceRequired):
		c.JSON(http.StatusConflict, common.NewCodedErrorResponse("EVENT_CHOICE_REQUIRED", err.Error()))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(selected))
}

func (h *Handler) Permission(c *gin.Context) {
	ok, err := h.Client.Volunteers.CheckPermission(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, common.NewErrorResponse(err.Error()))
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, common.NewErrorResponse("volunteer is not allowed to run check-in for this event"))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"hasPermission": true}))
}

func (h *Handler) SyncRoster(c *gin.Context) {
	count, err := h.Sync.Sync(c.Request.Context(), c.Param("id"))
	if err != nil {
		// previous roster is untouched; the surface may simply retry
		c.JSON(http.StatusBadGateway, common.NewCodedErrorResponse("SYNC_FAILED", err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"rosterCount": count}))
}

func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("id")

	rosterCount, err := h.Store.RosterCount(ctx, eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	pendingCount, err := h.Store.PendingCount(ctx, eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"rosterCount":  rosterCount,
		"pendingCount": pendingCount,
		"online":       h.Oracle.Online(ctx),
	}))
}

func (h *Handler) ListPending(c *gin.Context) {
	rows, err := h.Store.ListPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(rows))
}

type CheckInDTO struct {
	EventID    string `json:"eventId" binding:"required"`
	Method     string `json:"method" binding:"required,oneof=QR FELLOWSHIP_NUMBER MANUAL"`
	Identifier string `json:"identifier" binding:"required"`
}

func (h *Handler) CheckIn(c *gin.Context) {
	var dto CheckInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	if !h.busy.CompareAndSwap(false, true) {
		c.JSON(http.StatusTooManyRequests, common.NewCodedErrorResponse("ATTEMPT_IN_FLIGHT", "a check-in attempt is already in flight"))
		return
	}
	defer h.busy.Store(false)

	result, err := h.Engine.CheckIn(c.Request.Context(), core.Attempt{
		Identifier: dto.Identifier,
		Method:     model.Method(dto.Method),
		EventID:    dto.EventID,
	})
	if err != nil {
		h.renderCheckInError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(result))
}

func (h *Handler) renderCheckInError(c *gin.Context, err error) {
	var rejected *core.RejectedError
	if errors.As(err, &rejected) {
		code := "REJECTED"
		if rejected.Pending {
			code = "ALREADY_QUEUED"
		}
		c.JSON(http.StatusConflict, common.NewCodedErrorResponse(code, rejected.Reason))
		return
	}

	var failure *core.FailureError
	if errors.As(err, &failure) {
		status := http.StatusNotFound
		if failure.Code == core.FailureRosterNotSynced {
			status = http.StatusPreconditionFailed
		}
		c.JSON(status, common.NewCodedErrorResponse(string(failure.Code), failure.Reason))
		return
	}

	c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
}

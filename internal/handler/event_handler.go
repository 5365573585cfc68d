package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dojocal/scheduler-api/internal/dto"
	"github.com/dojocal/scheduler-api/internal/editor"
	"github.com/dojocal/scheduler-api/internal/models"
	appErrors "github.com/dojocal/scheduler-api/pkg/errors"
	"github.com/dojocal/scheduler-api/pkg/response"
)

type eventService interface {
	NewDraft(ctx context.Context, claims *models.JWTClaims, req dto.NewDraftRequest) (*dto.DraftPayload, error)
	EditDraft(ctx context.Context, claims *models.JWTClaims, id string) (*dto.DraftPayload, error)
	SwitchKind(ctx context.Context, claims *models.JWTClaims, req dto.SwitchKindRequest) (*dto.DraftPayload, error)
	Validate(ctx context.Context, claims *models.JWTClaims, req dto.EditorRequest) (*editor.Result, error)
	Save(ctx context.Context, claims *models.JWTClaims, req dto.EditorRequest) (*models.Event, bool, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Event, error)
	List(ctx context.Context, claims *models.JWTClaims, query dto.ListEventsQuery) (*dto.ListEventsResponse, error)
	Cancel(ctx context.Context, claims *models.JWTClaims, id string) (*models.Event, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
	ExportICS(ctx context.Context, claims *models.JWTClaims, id string) ([]byte, string, error)
}

// EventHandler exposes the event editor and calendar endpoints.
type EventHandler struct {
	service eventService
}

// NewEventHandler builds a new handler.
func NewEventHandler(service eventService) *EventHandler {
	return &EventHandler{service: service}
}

// NewDraft godoc
// @Summary Seed a draft for a calendar selection
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.NewDraftRequest true "Selected slot"
// @Success 200 {object} response.Envelope
// @Router /events/drafts [post]
func (h *EventHandler) NewDraft(c *gin.Context) {
	var req dto.NewDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid draft payload"))
		return
	}
	draft, err := h.service.NewDraft(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, draft)
}

// EditDraft godoc
// @Summary Seed a draft from a stored event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/draft [get]
func (h *EventHandler) EditDraft(c *gin.Context) {
	draft, err := h.service.EditDraft(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, draft)
}

// SwitchKind godoc
// @Summary Re-shape a draft for another event kind
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.SwitchKindRequest true "Draft and target kind"
// @Success 200 {object} response.Envelope
// @Router /events/drafts/kind [post]
func (h *EventHandler) SwitchKind(c *gin.Context) {
	var req dto.SwitchKindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid kind switch payload"))
		return
	}
	draft, err := h.service.SwitchKind(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, draft)
}

// Validate godoc
// @Summary Validate a draft without saving
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.EditorRequest true "Editor state"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /events/validate [post]
func (h *EventHandler) Validate(c *gin.Context) {
	var req dto.EditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid editor payload"))
		return
	}
	result, err := h.service.Validate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.OK() {
		response.Error(c, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "event is invalid"), result.Errors.Strings()))
		return
	}
	response.OK(c, dto.EditorResponse{Event: result.Event})
}

// Save godoc
// @Summary Validate and save an event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.EditorRequest true "Editor state"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /events [put]
func (h *EventHandler) Save(c *gin.Context) {
	var req dto.EditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid editor payload"))
		return
	}
	ev, created, err := h.service.Save(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, ev)
		return
	}
	response.OK(c, ev)
}

// List godoc
// @Summary List events in a window
// @Tags Events
// @Produce json
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Param type query []string false "Event types"
// @Param owner query string false "Owner username"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var query dto.ListEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid list query"))
		return
	}
	resp, err := h.service.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Get godoc
// @Summary Get an event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	ev, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ev)
}

// ExportICS godoc
// @Summary Download an event as iCalendar
// @Tags Events
// @Produce text/calendar
// @Param id path string true "Event ID"
// @Success 200 {string} string "iCalendar document"
// @Router /events/{id}/ics [get]
func (h *EventHandler) ExportICS(c *gin.Context) {
	body, filename, err := h.service.ExportICS(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Calendar(c, filename, body)
}

// Cancel godoc
// @Summary Cancel an event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/cancel [post]
func (h *EventHandler) Cancel(c *gin.Context) {
	ev, err := h.service.Cancel(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ev)
}

// Delete godoc
// @Summary Delete an event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

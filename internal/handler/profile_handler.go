package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dojocal/scheduler-api/internal/cohort"
	"github.com/dojocal/scheduler-api/internal/dto"
	"github.com/dojocal/scheduler-api/internal/models"
	appErrors "github.com/dojocal/scheduler-api/pkg/errors"
	"github.com/dojocal/scheduler-api/pkg/response"
)

type profileService interface {
	Profile(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
	UpdateTimezone(ctx context.Context, claims *models.JWTClaims, req dto.UpdateTimezoneRequest) (*models.User, error)
}

// ProfileHandler exposes the acting user's scheduler settings and the
// reference data the editor needs.
type ProfileHandler struct {
	service profileService
	catalog *cohort.Catalog
}

// NewProfileHandler builds a new handler.
func NewProfileHandler(service profileService, catalog *cohort.Catalog) *ProfileHandler {
	if catalog == nil {
		catalog = cohort.Default()
	}
	return &ProfileHandler{service: service, catalog: catalog}
}

// Me godoc
// @Summary Current user's scheduler profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// UpdateTimezone godoc
// @Summary Change the timezone used by the editor
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body dto.UpdateTimezoneRequest true "IANA zone or DEFAULT"
// @Success 200 {object} response.Envelope
// @Router /users/me/timezone [put]
func (h *ProfileHandler) UpdateTimezone(c *gin.Context) {
	var req dto.UpdateTimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid timezone payload"))
		return
	}
	user, err := h.service.UpdateTimezone(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Cohorts godoc
// @Summary Ordered cohort catalog
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cohorts [get]
func (h *ProfileHandler) Cohorts(c *gin.Context) {
	response.OK(c, gin.H{"cohorts": h.catalog.Labels()})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obetrack/obe-api/internal/service"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/response"
)

// RosterHandler exposes the admin roster endpoints.
type RosterHandler struct {
	rosters *service.RosterService
}

// NewRosterHandler creates a new handler.
func NewRosterHandler(rosters *service.RosterService) *RosterHandler {
	return &RosterHandler{rosters: rosters}
}

// Get godoc
// @Summary Get the roster for a session and program
// @Tags Rosters
// @Produce json
// @Param session query string true "Academic session"
// @Param program query string true "Program name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rosters [get]
func (h *RosterHandler) Get(c *gin.Context) {
	roster, err := h.rosters.Get(c.Request.Context(), c.Query("session"), c.Query("program"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Upsert godoc
// @Summary Replace the roster for a session and program
// @Tags Rosters
// @Accept json
// @Produce json
// @Param payload body service.UpsertRosterRequest true "Roster payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rosters [put]
func (h *RosterHandler) Upsert(c *gin.Context) {
	var req service.UpsertRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster payload"))
		return
	}

	roster, err := h.rosters.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Move godoc
// @Summary Move students between program rosters
// @Description All-or-nothing: either every listed student moves or none do
// @Tags Rosters
// @Accept json
// @Produce json
// @Param payload body service.MoveStudentsRequest true "Move payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rosters/move [post]
func (h *RosterHandler) Move(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.MoveStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}

	if err := h.rosters.Move(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

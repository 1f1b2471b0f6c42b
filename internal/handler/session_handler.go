package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inpatient-room-catalog/internal/service"
	"inpatient-room-catalog/pkg/utils"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

type selectBuildingRequest struct {
	BuildingID string `json:"building_id" binding:"required"`
}

type selectClassRequest struct {
	Class string `json:"class" binding:"required"`
}

type selectRoomRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

// Create starts a new selection session
func (h *SessionHandler) Create(c *gin.Context) {
	utils.CreatedResponse(c, h.sessionService.Create())
}

// Get returns the session's current selection
func (h *SessionHandler) Get(c *gin.Context) {
	h.respond(c)(h.sessionService.Get(c.Param("id")))
}

// Delete ends a session
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessionService.Delete(c.Param("id")); err != nil {
		utils.ErrorFromApp(c, err)
		return
	}

	utils.MessageResponse(c, "Session ended")
}

// SelectBuilding picks a building for the session
func (h *SessionHandler) SelectBuilding(c *gin.Context) {
	var req selectBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "building_id is required")
		return
	}

	h.respond(c)(h.sessionService.SelectBuilding(c.Param("id"), req.BuildingID))
}

// SelectClass picks a class of the selected building
func (h *SessionHandler) SelectClass(c *gin.Context) {
	var req selectClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "class is required")
		return
	}

	h.respond(c)(h.sessionService.SelectClass(c.Param("id"), req.Class))
}

// SelectRoom picks a room of the selected class
func (h *SessionHandler) SelectRoom(c *gin.Context) {
	var req selectRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "room_id is required")
		return
	}

	h.respond(c)(h.sessionService.SelectRoom(c.Param("id"), req.RoomID))
}

// Back moves the session one step up
func (h *SessionHandler) Back(c *gin.Context) {
	h.respond(c)(h.sessionService.Back(c.Param("id")))
}

// Reset returns the session to building selection
func (h *SessionHandler) Reset(c *gin.Context) {
	h.respond(c)(h.sessionService.Reset(c.Param("id")))
}

// Rooms lists the rooms of the session's selected class
func (h *SessionHandler) Rooms(c *gin.Context) {
	listing, err := h.sessionService.Rooms(c.Param("id"))
	if err != nil {
		utils.ErrorFromApp(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

func (h *SessionHandler) respond(c *gin.Context) func(service.SessionView, error) {
	return func(view service.SessionView, err error) {
		if err != nil {
			utils.ErrorFromApp(c, err)
			return
		}
		utils.SuccessResponse(c, view)
	}
}

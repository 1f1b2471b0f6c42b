package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inpatient-room-catalog/internal/service"
	"inpatient-room-catalog/pkg/utils"
)

// CatalogRefresher queues an out-of-cycle catalog fetch
type CatalogRefresher interface {
	TriggerCatalogRefresh() bool
}

type AdminHandler struct {
	catalogService   *service.CatalogService
	ambiguityService *service.AmbiguityService
	refresher        CatalogRefresher
}

func NewAdminHandler(
	catalogService *service.CatalogService,
	ambiguityService *service.AmbiguityService,
	refresher CatalogRefresher,
) *AdminHandler {
	return &AdminHandler{
		catalogService:   catalogService,
		ambiguityService: ambiguityService,
		refresher:        refresher,
	}
}

// GetFeeds reports the health of each upstream feed
func (h *AdminHandler) GetFeeds(c *gin.Context) {
	gen := h.catalogService.Current()

	utils.SuccessResponse(c, gin.H{
		"feeds":      h.catalogService.FeedStatuses(),
		"generation": gen.Seq,
		"built_at":   gen.BuiltAt,
		"fallback":   gen.Fallback,
		"buildings":  len(gen.Buildings),
		"rooms":      len(gen.Rooms),
	})
}

// ListAmbiguities returns recent multi-match cases for review
func (h *AdminHandler) ListAmbiguities(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.ambiguityService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		utils.ErrorFromApp(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"ambiguities": records,
		"count":       len(records),
	})
}

// Refresh queues a catalog refetch on the poller
func (h *AdminHandler) Refresh(c *gin.Context) {
	queued := h.refresher.TriggerCatalogRefresh()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"queued": queued,
		},
	})
}

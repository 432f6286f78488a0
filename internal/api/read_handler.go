package api

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"alcyxob/coach-engine/internal/service"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ReadHandler exposes the snapshot, the change history, and the raw
// version chains.
type ReadHandler struct {
	readService service.ReadService
}

func NewReadHandler(readService service.ReadService) *ReadHandler {
	return &ReadHandler{readService: readService}
}

func (h *ReadHandler) GetSnapshot(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	snapshot, err := h.readService.GetSnapshot(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No snapshot for this user yet.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve snapshot.")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *ReadHandler) DeleteSnapshot(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	if err := h.readService.DeleteSnapshot(c.Request.Context(), userID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete snapshot.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func limitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		return 0
	}
	return limit
}

func (h *ReadHandler) GetChanges(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	changes, err := h.readService.GetChanges(c.Request.Context(), userID, limitQuery(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve change history.")
		return
	}
	if changes == nil {
		changes = []domain.ChangeEvent{}
	}
	c.JSON(http.StatusOK, changes)
}

func (h *ReadHandler) GetPlanVersions(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	planType := domain.PlanType(c.Param("planType"))
	versions, err := h.readService.GetPlanVersions(c.Request.Context(), userID, planType, limitQuery(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve versions.")
		return
	}
	if versions == nil {
		versions = []domain.PlanVersion{}
	}
	c.JSON(http.StatusOK, versions)
}

package api

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CoachHandler exposes the write-side operations: patch intents,
// whole-plan saves, and weight/workout logging.
type CoachHandler struct {
	coachService service.CoachService
}

func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- DTOs ---

type SwapExerciseRequest struct {
	Day  string `json:"day" binding:"required"`
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type SetDaysPerWeekRequest struct {
	DaysPerWeek int `json:"daysPerWeek" binding:"required"`
}

type SetCaloriesRequest struct {
	Kcal int `json:"kcal" binding:"required"`
}

type SaveTrainingPlanRequest struct {
	Source string               `json:"source"`
	Days   []domain.TrainingDay `json:"days" binding:"required"`
}

type SaveNutritionPlanRequest struct {
	Source       string              `json:"source"`
	DailyTargets domain.MacroTargets `json:"dailyTargets" binding:"required"`
	Meals        []domain.Meal       `json:"meals"`
}

type SaveGoalRequest struct {
	Source         string   `json:"source"`
	Title          string   `json:"title" binding:"required"`
	TargetWeightKg *float64 `json:"targetWeightKg"`
	TargetDate     *string  `json:"targetDate"`
	Notes          string   `json:"notes"`
}

type LogWeightRequest struct {
	Date string  `json:"date" binding:"required"`
	Kg   float64 `json:"kg" binding:"required"`
}

type LogWorkoutRequest struct {
	Date  string `json:"date" binding:"required"`
	Notes string `json:"notes"`
}

// respondMaterialized maps a materialization outcome to a response, using
// the reason summary as the user-facing confirmation message.
func respondMaterialized(c *gin.Context, result *service.MaterializeResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoCurrentPlan):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to apply change.")
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Patch intents ---

func (h *CoachHandler) SwapExercise(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req SwapExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	result, err := h.coachService.SwapExercise(c.Request.Context(), userID, req.Day, req.From, req.To)
	respondMaterialized(c, result, err)
}

func (h *CoachHandler) SetDaysPerWeek(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req SetDaysPerWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	result, err := h.coachService.SetDaysPerWeek(c.Request.Context(), userID, req.DaysPerWeek)
	respondMaterialized(c, result, err)
}

func (h *CoachHandler) SetCalories(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req SetCaloriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	result, err := h.coachService.SetCalories(c.Request.Context(), userID, req.Kcal)
	respondMaterialized(c, result, err)
}

// --- Whole-plan saves ---

func (h *CoachHandler) SaveTrainingPlan(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req SaveTrainingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	result, err := h.coachService.SaveTrainingPlan(c.Request.Context(), userID, domain.VersionSource(req.Source), req.Days)
	respondMaterialized(c, result, err)
}

func (h *CoachHandler) SaveNutritionPlan(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req SaveNutritionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	result, err := h.coachService.SaveNutritionPlan(c.Request.Context(), userID, domain.VersionSource(req.Source), req.DailyTargets, req.Meals)
	respondMaterialized(c, result, err)
}

func (h *CoachHandler) SaveGoal(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req SaveGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	goal := domain.GoalPayload{
		Title:          req.Title,
		TargetWeightKg: req.TargetWeightKg,
		TargetDate:     req.TargetDate,
		Notes:          req.Notes,
	}
	result, err := h.coachService.SaveGoal(c.Request.Context(), userID, domain.VersionSource(req.Source), goal)
	respondMaterialized(c, result, err)
}

// --- Logging ---

func respondLogged(c *gin.Context, err error) {
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to record entry.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CoachHandler) LogWeight(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req LogWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	respondLogged(c, h.coachService.LogWeight(c.Request.Context(), userID, req.Date, req.Kg))
}

func (h *CoachHandler) DeleteWeight(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	respondLogged(c, h.coachService.DeleteWeight(c.Request.Context(), userID, c.Param("date")))
}

func (h *CoachHandler) LogWorkout(c *gin.Context) {
	userID, ok := getUserIDFromPath(c)
	if !ok {
		return
	}
	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	respondLogged(c, h.coachService.LogWorkout(c.Request.Context(), userID, req.Date, req.Notes))
}

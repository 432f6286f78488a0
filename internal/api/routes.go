package api

import (
	"alcyxob/coach-engine/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	coachService service.CoachService,
	readService service.ReadService,
) {
	coachHandler := NewCoachHandler(coachService)
	readHandler := NewReadHandler(readService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		users := apiV1.Group("/users/:userId")
		{
			// --- Patch intents against the current plan ---
			users.POST("/plan/swap-exercise", coachHandler.SwapExercise)
			users.POST("/plan/days-per-week", coachHandler.SetDaysPerWeek)
			users.POST("/nutrition/calories", coachHandler.SetCalories)

			// --- Whole-plan saves (agent/rules callers) ---
			users.POST("/plan", coachHandler.SaveTrainingPlan)
			users.POST("/nutrition", coachHandler.SaveNutritionPlan)
			users.POST("/goal", coachHandler.SaveGoal)

			// --- Source-of-truth logging ---
			users.POST("/weight", coachHandler.LogWeight)
			users.DELETE("/weight/:date", coachHandler.DeleteWeight)
			users.POST("/workouts", coachHandler.LogWorkout)

			// --- Read side ---
			users.GET("/snapshot", readHandler.GetSnapshot)
			users.DELETE("/snapshot", readHandler.DeleteSnapshot)
			users.GET("/changes", readHandler.GetChanges)
			users.GET("/versions/:planType", readHandler.GetPlanVersions)
		}
	}
}

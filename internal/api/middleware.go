package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// abortWithError sends a JSON error response and stops the handler chain.
func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// getUserIDFromPath parses the :userId path segment. Authentication and
// authorization happen upstream of this service; the id is trusted here.
func getUserIDFromPath(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleet-maintenance-backend/internal/model"
)

// GetEquipment handles the GET /api/equipment request. Optional ?status= and
// ?category= query parameters narrow the listing.
func GetEquipment(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Model(&model.Equipment{})
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}

		var equipment []model.Equipment
		if err := q.Order("id").Find(&equipment).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve equipment"})
			return
		}
		c.JSON(http.StatusOK, equipment)
	}
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleet-maintenance-backend/internal/model"
)

// GetEquipmentPredictions handles GET /api/equipment/:equipment_id/predictions.
// Results come back newest first; ?limit= caps the history depth.
func GetEquipmentPredictions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		equipmentID := c.Param("equipment_id")

		var exists int64
		if err := db.Model(&model.Equipment{}).Where("id = ?", equipmentID).Count(&exists).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up equipment"})
			return
		}
		if exists == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "equipment not found"})
			return
		}

		limit := 30
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		var predictions []model.Prediction
		if err := db.Where("equipment_id = ?", equipmentID).
			Order("run_date DESC").
			Limit(limit).
			Find(&predictions).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve predictions"})
			return
		}
		c.JSON(http.StatusOK, predictions)
	}
}

// GetLatestPredictions handles GET /api/predictions/latest: the full output
// of the most recent run day, optionally filtered by ?priority=.
func GetLatestPredictions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var latest model.Prediction
		if err := db.Order("run_date DESC").First(&latest).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusOK, []model.Prediction{})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve predictions"})
			}
			return
		}

		q := db.Where("run_date = ?", latest.RunDate)
		if priority := c.Query("priority"); priority != "" {
			if !model.PriorityTier(priority).Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority tier"})
				return
			}
			q = q.Where("priority = ?", priority)
		}

		var predictions []model.Prediction
		if err := q.Order("risk_score DESC").Find(&predictions).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve predictions"})
			return
		}
		c.JSON(http.StatusOK, predictions)
	}
}

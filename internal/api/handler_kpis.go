package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleet-maintenance-backend/internal/model"
)

// GetKPIs handles GET /api/kpis: the catalogue as of the most recent
// measurement date, optionally filtered by ?category=.
func GetKPIs(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var latest model.KPIMetric
		if err := db.Order("measurement_date DESC").First(&latest).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusOK, []model.KPIMetric{})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve KPIs"})
			}
			return
		}

		q := db.Where("measurement_date = ?", latest.MeasurementDate)
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}

		var kpis []model.KPIMetric
		if err := q.Order("name").Find(&kpis).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve KPIs"})
			return
		}
		c.JSON(http.StatusOK, kpis)
	}
}

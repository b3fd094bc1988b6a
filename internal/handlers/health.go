package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "inventario-backend",
	})
}

// HealthHandler exposes the extended health check with a database probe.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// ExtendedHealthCheck returns detailed health status including the database
func (h *HealthHandler) ExtendedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "healthy",
		"service": "inventario-backend",
		"checks":  gin.H{},
	}
	checks := health["checks"].(gin.H)

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		health["status"] = "degraded"
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	c.JSON(http.StatusOK, health)
}

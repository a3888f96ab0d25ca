package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/roster/internal/app/models/dto"
)

// Health is the liveness probe. It does not touch the database.
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "healthy"})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brigade_tracker/internal/services"
)

type SubPlotController struct {
	subplots *services.SubPlotService
}

func NewSubPlotController(subplots *services.SubPlotService) *SubPlotController {
	return &SubPlotController{subplots: subplots}
}

func (pc *SubPlotController) ListSubPlotsBySite(c *gin.Context) {
	subplots, err := pc.subplots.ListBySite(c.Request.Context(), idParam(c, "site_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subplots})
}

func (pc *SubPlotController) GetSubPlot(c *gin.Context) {
	sp, err := pc.subplots.Get(c.Request.Context(), idParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subplot": sp})
}

func (pc *SubPlotController) UpdateSubPlot(c *gin.Context) {
	var input services.SubPlotUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "sub-plot update", err)
		return
	}

	sp, err := pc.subplots.Update(c.Request.Context(), idParam(c, "id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subplot": sp})
}

func (pc *SubPlotController) DeleteSubPlot(c *gin.Context) {
	if err := pc.subplots.Delete(c.Request.Context(), idParam(c, "id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sub-plot deleted"})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brigade_tracker/internal/services"
)

type RegionController struct {
	regions *services.RegionService
}

func NewRegionController(regions *services.RegionService) *RegionController {
	return &RegionController{regions: regions}
}

func (rc *RegionController) ListRegions(c *gin.Context) {
	regions, err := rc.regions.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": regions})
}

func (rc *RegionController) GetRegion(c *gin.Context) {
	region, err := rc.regions.Get(c.Request.Context(), idParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"region": region})
}

func (rc *RegionController) GetRegionByCode(c *gin.Context) {
	region, err := rc.regions.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"region": region})
}

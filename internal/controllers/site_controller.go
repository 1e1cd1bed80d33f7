package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade_tracker/internal/middleware"
	"brigade_tracker/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SiteController struct {
	sites *services.SiteService
}

func NewSiteController(sites *services.SiteService) *SiteController {
	return &SiteController{sites: sites}
}

// GenerateSites creates a batch of pending sites with their sub-plots.
func (sc *SiteController) GenerateSites(c *gin.Context) {
	var input struct {
		Count int `json:"count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "generation input", err)
		return
	}

	res, err := sc.sites.Generate(c.Request.Context(), input.Count)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"requested": res.Requested,
		"created":   len(res.Created),
		"failed":    res.Failed,
		"sites":     res.Created,
	}
	if res.Err != nil {
		body["errors"] = res.Err.Error()
	}
	c.JSON(http.StatusCreated, body)
}

func (sc *SiteController) ApproveSite(c *gin.Context) {
	var input struct {
		RegionID string `json:"region_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "approval input", err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	site, err := sc.sites.Approve(c.Request.Context(), idParam(c, "id"), uuid.MustParse(input.RegionID), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": site})
}

func (sc *SiteController) RejectSite(c *gin.Context) {
	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "rejection input", err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	site, err := sc.sites.Reject(c.Request.Context(), idParam(c, "id"), input.Reason, principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": site})
}

func (sc *SiteController) DeleteSite(c *gin.Context) {
	if err := sc.sites.Delete(c.Request.Context(), idParam(c, "id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Site deleted"})
}

func (sc *SiteController) GetSite(c *gin.Context) {
	site, err := sc.sites.Get(c.Request.Context(), idParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": site})
}

func (sc *SiteController) ListSites(c *gin.Context) {
	sites, err := sc.sites.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sites})
}

func (sc *SiteController) ListSitesByState(c *gin.Context) {
	sites, err := sc.sites.ListByState(c.Request.Context(), c.Param("state"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sites})
}

func (sc *SiteController) ListSitesByRegion(c *gin.Context) {
	sites, err := sc.sites.ListByRegion(c.Request.Context(), idParam(c, "region_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sites})
}

// ListAvailableSites lists approved sites that still need a brigade.
func (sc *SiteController) ListAvailableSites(c *gin.Context) {
	sites, err := sc.sites.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sites})
}

func (sc *SiteController) SiteStats(c *gin.Context) {
	stats, err := sc.sites.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (sc *SiteController) SiteGeoJSON(c *gin.Context) {
	fc, err := sc.sites.GeoJSON(c.Request.Context(), idParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// ExportSites downloads the inventory as XLSX; ?state= narrows it.
func (sc *SiteController) ExportSites(c *gin.Context) {
	var buf bytes.Buffer
	state := c.Query("state")
	if err := sc.sites.Export(c.Request.Context(), &buf, state); err != nil {
		respondError(c, err)
		return
	}

	name := "sites.xlsx"
	if state != "" {
		name = fmt.Sprintf("sites-%s.xlsx", state)
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

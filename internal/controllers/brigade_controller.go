package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade_tracker/internal/middleware"
	"brigade_tracker/internal/services"
)

type BrigadeController struct {
	brigades *services.BrigadeService
}

func NewBrigadeController(brigades *services.BrigadeService) *BrigadeController {
	return &BrigadeController{brigades: brigades}
}

// CreateBrigade opens a brigade in formation; the caller becomes its creator.
func (bc *BrigadeController) CreateBrigade(c *gin.Context) {
	var input struct {
		Name      string     `json:"name" binding:"required"`
		SiteID    string     `json:"site_id" binding:"required,uuid"`
		StartDate *calendarDate `json:"start_date"`
		EndDate   *calendarDate `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "brigade input", err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	brigade, err := bc.brigades.Create(c.Request.Context(), services.CreateBrigadeInput{
		Name:      input.Name,
		SiteID:    uuid.MustParse(input.SiteID),
		StartDate: input.StartDate.ptr(),
		EndDate:   input.EndDate.ptr(),
		CreatorID: principal.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"brigade": brigade})
}

func (bc *BrigadeController) UpdateBrigade(c *gin.Context) {
	var input struct {
		ID        *uuid.UUID    `json:"id"`
		SiteID    *uuid.UUID    `json:"site_id"`
		CreatorID *string       `json:"creator_id"`
		CreatedAt *time.Time    `json:"created_at"`
		Name      *string       `json:"name"`
		StartDate *calendarDate `json:"start_date"`
		EndDate   *calendarDate `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "brigade update", err)
		return
	}

	brigade, err := bc.brigades.Update(c.Request.Context(), idParam(c, "id"), services.BrigadeUpdate{
		ID:        input.ID,
		SiteID:    input.SiteID,
		CreatorID: input.CreatorID,
		CreatedAt: input.CreatedAt,
		Name:      input.Name,
		StartDate: input.StartDate.ptr(),
		EndDate:   input.EndDate.ptr(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brigade": brigade})
}

func (bc *BrigadeController) ChangeBrigadeState(c *gin.Context) {
	var input struct {
		State string `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "state input", err)
		return
	}

	brigade, err := bc.brigades.ChangeState(c.Request.Context(), idParam(c, "id"), input.State)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brigade": brigade})
}

func (bc *BrigadeController) DeleteBrigade(c *gin.Context) {
	if err := bc.brigades.Delete(c.Request.Context(), idParam(c, "id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Brigade deleted"})
}

// GetBrigade returns the brigade with its site, region and members.
func (bc *BrigadeController) GetBrigade(c *gin.Context) {
	brigade, err := bc.brigades.GetWithMembers(c.Request.Context(), idParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brigade": brigade})
}

func (bc *BrigadeController) ListBrigades(c *gin.Context) {
	brigades, err := bc.brigades.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": brigades})
}

func (bc *BrigadeController) ListBrigadesByState(c *gin.Context) {
	brigades, err := bc.brigades.ListByState(c.Request.Context(), c.Param("state"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": brigades})
}

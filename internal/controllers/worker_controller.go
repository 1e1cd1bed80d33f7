package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade_tracker/internal/middleware"
	"brigade_tracker/internal/models"
	"brigade_tracker/internal/services"
)

type WorkerController struct {
	workers *services.WorkerService
}

func NewWorkerController(workers *services.WorkerService) *WorkerController {
	return &WorkerController{workers: workers}
}

// loadOwnWorker loads the worker behind a path id. Field workers may only
// reach their own record; the response is written when it returns false.
func loadOwnWorker(c *gin.Context, workers *services.WorkerService, param string) (*models.Worker, bool) {
	worker, err := workers.Get(c.Request.Context(), idParam(c, param))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	principal, _ := middleware.CurrentPrincipal(c)
	if principal.Role == middleware.RoleFieldWorker && !strings.EqualFold(principal.Email, worker.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only act on your own worker account"})
		return nil, false
	}
	return worker, true
}

// InviteWorker sends a registration invitation to an email address.
func (wc *WorkerController) InviteWorker(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invitation input", err)
		return
	}
	principal, _ := middleware.CurrentPrincipal(c)

	invite, _, err := wc.workers.InviteRegistration(c.Request.Context(), input.Email, principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": invite})
}

// RegisterWorker is public: the invitation token authorises it.
func (wc *WorkerController) RegisterWorker(c *gin.Context) {
	var input struct {
		Token       string   `json:"token" binding:"required"`
		NationalID  string   `json:"national_id" binding:"required,national_id"`
		Name        string   `json:"name" binding:"required"`
		Email       string   `json:"email" binding:"required,email"`
		Phone       *string  `json:"phone" binding:"omitempty,mobile_co"`
		RegionID    string   `json:"region_id" binding:"required,uuid"`
		Credentials []string `json:"credentials"`
		Experience  []string `json:"experience"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "registration input", err)
		return
	}

	worker, err := wc.workers.Register(c.Request.Context(), services.RegisterInput{
		InviteToken: input.Token,
		NationalID:  input.NationalID,
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		RegionID:    uuid.MustParse(input.RegionID),
		Credentials: input.Credentials,
		Experience:  input.Experience,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"worker": worker})
}

func (wc *WorkerController) GetWorker(c *gin.Context) {
	worker, ok := loadOwnWorker(c, wc.workers, "id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"worker": worker})
}

func (wc *WorkerController) UpdateWorker(c *gin.Context) {
	if _, ok := loadOwnWorker(c, wc.workers, "id"); !ok {
		return
	}
	var input services.WorkerUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "worker update", err)
		return
	}

	worker, err := wc.workers.Update(c.Request.Context(), idParam(c, "id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"worker": worker})
}

func (wc *WorkerController) SuspendWorker(c *gin.Context) {
	worker, err := wc.workers.Suspend(c.Request.Context(), idParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"worker": worker})
}

func (wc *WorkerController) ActivateWorker(c *gin.Context) {
	worker, err := wc.workers.Activate(c.Request.Context(), idParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"worker": worker})
}

func (wc *WorkerController) DeleteWorker(c *gin.Context) {
	if err := wc.workers.Delete(c.Request.Context(), idParam(c, "id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Worker deleted"})
}

// ListWorkers returns active workers.
func (wc *WorkerController) ListWorkers(c *gin.Context) {
	workers, err := wc.workers.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": workers})
}

func (wc *WorkerController) ListWorkersByRegion(c *gin.Context) {
	workers, err := wc.workers.ListByRegion(c.Request.Context(), idParam(c, "region_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": workers})
}

// ListAvailableWorkers accepts an optional ?region_id= filter.
func (wc *WorkerController) ListAvailableWorkers(c *gin.Context) {
	var regionID *uuid.UUID
	if raw := c.Query("region_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid region_id"})
			return
		}
		regionID = &id
	}

	workers, err := wc.workers.ListAvailable(c.Request.Context(), regionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": workers})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"brigade_tracker/internal/services"
)

type AssignmentController struct {
	assignments *services.AssignmentService
	workers     *services.WorkerService
}

func NewAssignmentController(assignments *services.AssignmentService, workers *services.WorkerService) *AssignmentController {
	return &AssignmentController{assignments: assignments, workers: workers}
}

func (ac *AssignmentController) InviteToBrigade(c *gin.Context) {
	var input struct {
		BrigadeID string `json:"brigade_id" binding:"required,uuid"`
		WorkerID  string `json:"worker_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invitation input", err)
		return
	}

	assignment, err := ac.assignments.Invite(c.Request.Context(), uuid.MustParse(input.BrigadeID), uuid.MustParse(input.WorkerID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

// RespondToInvitation lets the invited worker accept or reject.
func (ac *AssignmentController) RespondToInvitation(c *gin.Context) {
	worker, ok := loadOwnWorker(c, ac.workers, "worker_id")
	if !ok {
		return
	}
	var input struct {
		Accepted *bool  `json:"accepted" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "response input", err)
		return
	}

	assignment, err := ac.assignments.Respond(c.Request.Context(), idParam(c, "brigade_id"), worker.ID, *input.Accepted, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

func (ac *AssignmentController) Unassign(c *gin.Context) {
	err := ac.assignments.Unassign(c.Request.Context(), idParam(c, "brigade_id"), idParam(c, "worker_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Worker removed from brigade"})
}

func (ac *AssignmentController) ListByBrigade(c *gin.Context) {
	list, err := ac.assignments.ListByBrigade(c.Request.Context(), idParam(c, "brigade_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (ac *AssignmentController) ListByWorker(c *gin.Context) {
	worker, ok := loadOwnWorker(c, ac.workers, "worker_id")
	if !ok {
		return
	}
	list, err := ac.assignments.ListByWorker(c.Request.Context(), worker.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (ac *AssignmentController) ListPending(c *gin.Context) {
	worker, ok := loadOwnWorker(c, ac.workers, "worker_id")
	if !ok {
		return
	}
	list, err := ac.assignments.ListPendingByWorker(c.Request.Context(), worker.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

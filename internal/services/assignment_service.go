package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"brigade_tracker/internal/apperr"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/models"
	"brigade_tracker/internal/notify"
)

type AssignmentService struct {
	base
	notifier notify.Notifier
	notified func(error)
}

// Invite creates a pending assignment and tells the worker about it.
func (s *AssignmentService) Invite(ctx context.Context, brigadeID, workerID uuid.UUID) (*models.Assignment, error) {
	var brigade models.Brigade
	if err := s.db.WithContext(ctx).First(&brigade, "id = ?", brigadeID).Error; err != nil {
		return nil, apperr.FromStore(err, "brigade")
	}
	var worker models.Worker
	if err := s.db.WithContext(ctx).First(&worker, "id = ?", workerID).Error; err != nil {
		return nil, apperr.FromStore(err, "worker")
	}

	if worker.State != models.WorkerActive {
		return nil, apperr.New(apperr.ErrInvalidState, "worker %s is %s", worker.Email, worker.State)
	}
	if brigade.State == models.BrigadeCompleted || brigade.State == models.BrigadeCancelled {
		return nil, apperr.New(apperr.ErrInvalidState, "brigade %s is %s and takes no new members", brigade.Name, brigade.State)
	}

	assignment := models.Assignment{
		BrigadeID: brigadeID,
		WorkerID:  workerID,
		State:     models.InvitationPending,
		InvitedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.ErrConflict, err, "worker is already invited to this brigade")
		}
		return nil, apperr.FromStore(err, "assignment")
	}

	s.publishAssignment("invited", assignment)
	notify.Dispatch(s.notifier, worker.Email, map[string]interface{}{
		"type":         notify.TypeBrigadeInvitation,
		"brigade_id":   brigade.ID.String(),
		"brigade_name": brigade.Name,
	}, s.notified)
	return &assignment, nil
}

// Respond records the worker's answer to a pending invitation.
func (s *AssignmentService) Respond(ctx context.Context, brigadeID, workerID uuid.UUID, accepted bool, reason string) (*models.Assignment, error) {
	reason = strings.TrimSpace(reason)
	if !accepted && reason == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "a reason is required to reject an invitation")
	}

	state := models.InvitationAccepted
	var rejection interface{}
	if !accepted {
		state = models.InvitationRejected
		rejection = reason
	}

	res := s.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("brigade_id = ? AND worker_id = ? AND state = ?", brigadeID, workerID, models.InvitationPending).
		Updates(map[string]interface{}{
			"state":            state,
			"responded_at":     s.now(),
			"rejection_reason": rejection,
		})
	if res.Error != nil {
		return nil, apperr.FromStore(res.Error, "assignment")
	}

	assignment, err := s.Get(ctx, brigadeID, workerID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.ErrInvalidState, "invitation was already answered (%s)", assignment.State)
	}

	s.publishAssignment("responded", *assignment)
	return assignment, nil
}

// Unassign deletes the assignment whatever its state.
func (s *AssignmentService) Unassign(ctx context.Context, brigadeID, workerID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("brigade_id = ? AND worker_id = ?", brigadeID, workerID).
		Delete(&models.Assignment{})
	if res.Error != nil {
		return apperr.FromStore(res.Error, "assignment")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrNotFound, "assignment not found")
	}

	s.publishAssignment("unassigned", models.Assignment{BrigadeID: brigadeID, WorkerID: workerID})
	return nil
}

func (s *AssignmentService) Get(ctx context.Context, brigadeID, workerID uuid.UUID) (*models.Assignment, error) {
	var a models.Assignment
	err := s.db.WithContext(ctx).
		Where("brigade_id = ? AND worker_id = ?", brigadeID, workerID).
		First(&a).Error
	if err != nil {
		return nil, apperr.FromStore(err, "assignment")
	}
	return &a, nil
}

func (s *AssignmentService) ListByBrigade(ctx context.Context, brigadeID uuid.UUID) ([]models.Assignment, error) {
	var out []models.Assignment
	err := s.db.WithContext(ctx).Preload("Worker").
		Where("brigade_id = ?", brigadeID).
		Order("invited_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.FromStore(err, "assignments")
	}
	return out, nil
}

// ListByWorker returns the worker's assignments, newest invitation first,
// with brigade, site and region loaded.
func (s *AssignmentService) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]models.Assignment, error) {
	return s.listByWorker(s.db.WithContext(ctx).Where("worker_id = ?", workerID))
}

func (s *AssignmentService) ListPendingByWorker(ctx context.Context, workerID uuid.UUID) ([]models.Assignment, error) {
	return s.listByWorker(s.db.WithContext(ctx).
		Where("worker_id = ? AND state = ?", workerID, models.InvitationPending))
}

func (s *AssignmentService) listByWorker(q *gorm.DB) ([]models.Assignment, error) {
	var out []models.Assignment
	if err := q.Preload("Brigade.Site.Region").Order("invited_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.FromStore(err, "assignments")
	}
	return out, nil
}

func (s *AssignmentService) publishAssignment(typ string, a models.Assignment) {
	worker := a.WorkerID
	s.events.Publish(events.Event{
		Topic:     events.TopicAssignments,
		Type:      typ,
		EntityID:  a.BrigadeID,
		RelatedID: &worker,
		State:     string(a.State),
		At:        s.now(),
	})
}

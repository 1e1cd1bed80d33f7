package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"brigade_tracker/internal/apperr"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/models"
)

type BrigadeService struct {
	base
	strict bool
}

type CreateBrigadeInput struct {
	Name      string
	SiteID    uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	CreatorID string
}

// BrigadeUpdate is a partial update. Identity fields are refused when they
// differ from the stored row.
type BrigadeUpdate struct {
	ID        *uuid.UUID `json:"id"`
	SiteID    *uuid.UUID `json:"site_id"`
	CreatorID *string    `json:"creator_id"`
	CreatedAt *time.Time `json:"created_at"`
	Name      *string    `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func checkDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.New(apperr.ErrInvalidArgument, "end_date must not be before start_date")
	}
	return nil
}

// Create opens a brigade in formation on an approved site that has none.
func (s *BrigadeService) Create(ctx context.Context, in CreateBrigadeInput) (*models.Brigade, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "name is required")
	}
	if strings.TrimSpace(in.CreatorID) == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "creator is required")
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	var site models.Site
	if err := s.db.WithContext(ctx).First(&site, "id = ?", in.SiteID).Error; err != nil {
		return nil, apperr.FromStore(err, "site")
	}
	if site.State != models.SiteApproved {
		return nil, apperr.New(apperr.ErrInvalidState, "site %s is %s, only approved sites can get a brigade", site.Code, site.State)
	}

	brigade := models.Brigade{
		Name:      name,
		SiteID:    in.SiteID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		CreatorID: in.CreatorID,
		State:     models.BrigadeFormation,
	}
	if err := s.db.WithContext(ctx).Create(&brigade).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.ErrInvalidState, "site %s already has a brigade", site.Code)
		}
		return nil, apperr.FromStore(err, "brigade")
	}

	s.publish(events.TopicBrigades, "created", brigade.ID, string(brigade.State))
	return &brigade, nil
}

// ChangeState sets the brigade state. Any move is allowed unless strict
// transitions are on.
func (s *BrigadeService) ChangeState(ctx context.Context, id uuid.UUID, state string) (*models.Brigade, error) {
	next := models.BrigadeState(state)
	if !next.Valid() {
		return nil, apperr.New(apperr.ErrInvalidArgument, "unknown brigade state %q", state)
	}

	brigade, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.strict && brigade.State != next && !models.CanTransition(brigade.State, next) {
		return nil, apperr.New(apperr.ErrInvalidState, "brigade cannot move from %s to %s", brigade.State, next)
	}

	res := s.db.WithContext(ctx).Model(&models.Brigade{}).
		Where("id = ? AND state = ?", id, brigade.State).
		Update("state", next)
	if res.Error != nil {
		return nil, apperr.FromStore(res.Error, "brigade")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.ErrInvalidState, "brigade state changed concurrently")
	}

	s.publish(events.TopicBrigades, "state_changed", id, string(next))
	return s.Get(ctx, id)
}

func (s *BrigadeService) Update(ctx context.Context, id uuid.UUID, in BrigadeUpdate) (*models.Brigade, error) {
	brigade, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case in.ID != nil && *in.ID != brigade.ID:
		return nil, apperr.New(apperr.ErrInvalidArgument, "id cannot be changed")
	case in.SiteID != nil && *in.SiteID != brigade.SiteID:
		return nil, apperr.New(apperr.ErrInvalidArgument, "site_id cannot be changed")
	case in.CreatorID != nil && *in.CreatorID != brigade.CreatorID:
		return nil, apperr.New(apperr.ErrInvalidArgument, "creator_id cannot be changed")
	case in.CreatedAt != nil && !in.CreatedAt.Equal(brigade.CreatedAt):
		return nil, apperr.New(apperr.ErrInvalidArgument, "created_at cannot be changed")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.New(apperr.ErrInvalidArgument, "name cannot be empty")
		}
		brigade.Name = name
	}
	if in.StartDate != nil {
		brigade.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		brigade.EndDate = in.EndDate
	}
	if err := checkDates(brigade.StartDate, brigade.EndDate); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.Brigade{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       brigade.Name,
			"start_date": brigade.StartDate,
			"end_date":   brigade.EndDate,
		}).Error
	if err != nil {
		return nil, apperr.FromStore(err, "brigade")
	}
	return s.Get(ctx, id)
}

// Delete removes a cancelled brigade and its assignments.
func (s *BrigadeService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var brigade models.Brigade
		if err := tx.Select("id", "state").First(&brigade, "id = ?", id).Error; err != nil {
			return err
		}
		if brigade.State != models.BrigadeCancelled {
			return apperr.New(apperr.ErrInvalidState, "only cancelled brigades can be deleted, this one is %s", brigade.State)
		}

		if err := tx.Where("brigade_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND state = ?", id, models.BrigadeCancelled).Delete(&models.Brigade{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.ErrInvalidState, "brigade state changed concurrently")
		}
		return nil
	})
	if err != nil {
		return apperr.FromStore(err, "brigade")
	}

	s.publish(events.TopicBrigades, "deleted", id, "")
	return nil
}

// Get returns the brigade with its site.
func (s *BrigadeService) Get(ctx context.Context, id uuid.UUID) (*models.Brigade, error) {
	var brigade models.Brigade
	if err := s.db.WithContext(ctx).Preload("Site").First(&brigade, "id = ?", id).Error; err != nil {
		return nil, apperr.FromStore(err, "brigade")
	}
	return &brigade, nil
}

// GetWithMembers returns the brigade, its site and region, and every
// assignment with its worker.
func (s *BrigadeService) GetWithMembers(ctx context.Context, id uuid.UUID) (*models.Brigade, error) {
	var brigade models.Brigade
	err := s.db.WithContext(ctx).
		Preload("Site.Region").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("invited_at ASC") }).
		Preload("Assignments.Worker").
		First(&brigade, "id = ?", id).Error
	if err != nil {
		return nil, apperr.FromStore(err, "brigade")
	}
	return &brigade, nil
}

func (s *BrigadeService) List(ctx context.Context) ([]models.Brigade, error) {
	var brigades []models.Brigade
	err := s.db.WithContext(ctx).Preload("Site.Region").Order("created_at DESC").Find(&brigades).Error
	if err != nil {
		return nil, apperr.FromStore(err, "brigades")
	}
	return brigades, nil
}

func (s *BrigadeService) ListByState(ctx context.Context, state string) ([]models.Brigade, error) {
	st := models.BrigadeState(state)
	if !st.Valid() {
		return nil, apperr.New(apperr.ErrInvalidArgument, "unknown brigade state %q", state)
	}
	var brigades []models.Brigade
	err := s.db.WithContext(ctx).Preload("Site.Region").
		Where("state = ?", st).
		Order("created_at DESC").
		Find(&brigades).Error
	if err != nil {
		return nil, apperr.FromStore(err, "brigades")
	}
	return brigades, nil
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"brigade_tracker/internal/apperr"
	"brigade_tracker/internal/models"
)

type SubPlotService struct {
	base
}

// SubPlotUpdate is a partial update. ID, SiteID and CreatedAt are accepted
// only so that a client echoing them back unchanged is not refused.
type SubPlotUpdate struct {
	ID        *uuid.UUID        `json:"id"`
	SiteID    *uuid.UUID        `json:"site_id"`
	CreatedAt *time.Time        `json:"created_at"`
	Code      *string           `json:"code"`
	Latitude  *float64          `json:"latitude"`
	Longitude *float64          `json:"longitude"`
	Direction *models.Direction `json:"direction"`
}

func (s *SubPlotService) ListBySite(ctx context.Context, siteID uuid.UUID) ([]models.SubPlot, error) {
	var subplots []models.SubPlot
	err := s.db.WithContext(ctx).Where("site_id = ?", siteID).Order("direction ASC").Find(&subplots).Error
	if err != nil {
		return nil, apperr.FromStore(err, "subplots")
	}
	return subplots, nil
}

func (s *SubPlotService) Get(ctx context.Context, id uuid.UUID) (*models.SubPlot, error) {
	var sp models.SubPlot
	if err := s.db.WithContext(ctx).First(&sp, "id = ?", id).Error; err != nil {
		return nil, apperr.FromStore(err, "subplot")
	}
	return &sp, nil
}

func (s *SubPlotService) Update(ctx context.Context, id uuid.UUID, in SubPlotUpdate) (*models.SubPlot, error) {
	sp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.ID != nil && *in.ID != sp.ID {
		return nil, apperr.New(apperr.ErrInvalidArgument, "id cannot be changed")
	}
	if in.SiteID != nil && *in.SiteID != sp.SiteID {
		return nil, apperr.New(apperr.ErrInvalidArgument, "site_id cannot be changed")
	}
	if in.CreatedAt != nil && !in.CreatedAt.Equal(sp.CreatedAt) {
		return nil, apperr.New(apperr.ErrInvalidArgument, "created_at cannot be changed")
	}

	if in.Code != nil {
		if *in.Code == "" {
			return nil, apperr.New(apperr.ErrInvalidArgument, "code cannot be empty")
		}
		sp.Code = *in.Code
	}
	if in.Latitude != nil {
		if *in.Latitude < -90 || *in.Latitude > 90 {
			return nil, apperr.New(apperr.ErrInvalidArgument, "latitude must be between -90 and 90")
		}
		sp.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		if *in.Longitude < -180 || *in.Longitude > 180 {
			return nil, apperr.New(apperr.ErrInvalidArgument, "longitude must be between -180 and 180")
		}
		sp.Longitude = *in.Longitude
	}
	if in.Direction != nil {
		if !in.Direction.Valid() {
			return nil, apperr.New(apperr.ErrInvalidArgument, "unknown direction %q", *in.Direction)
		}
		sp.Direction = *in.Direction
	}

	if err := s.db.WithContext(ctx).Save(sp).Error; err != nil {
		return nil, apperr.FromStore(err, "subplot")
	}
	return sp, nil
}

func (s *SubPlotService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SubPlot{})
	if res.Error != nil {
		return apperr.FromStore(res.Error, "subplot")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.ErrNotFound, "subplot not found")
	}
	return nil
}

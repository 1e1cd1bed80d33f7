package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gorm.io/gorm"

	"brigade_tracker/internal/apperr"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/export"
	"brigade_tracker/internal/geo"
	"brigade_tracker/internal/models"
)

// codeRetries is how many fresh codes a candidate gets after a collision.
const codeRetries = 3

// siteGenerator is the part of geo.Generator the site service draws from.
type siteGenerator interface {
	Generate(count int) ([]geo.Candidate, error)
	Code() string
}

type SiteService struct {
	base
	gen siteGenerator
}

// GenerateResult reports a batch generation. Err combines the failures of
// individual candidates and is nil when every site was created.
type GenerateResult struct {
	Requested int           `json:"requested"`
	Created   []models.Site `json:"created"`
	Failed    int           `json:"failed"`
	Err       error         `json:"-"`
}

// Generate creates count pending sites, each with its five sub-plots. Every
// site is stored in its own transaction so one failure does not undo the rest.
func (s *SiteService) Generate(ctx context.Context, count int) (*GenerateResult, error) {
	candidates, err := s.gen.Generate(count)
	if err != nil {
		return nil, err
	}

	res := &GenerateResult{Requested: count, Created: make([]models.Site, 0, len(candidates))}
	var errs *multierror.Error
	for _, cand := range candidates {
		site, err := s.createWithSubPlots(ctx, cand)
		if err != nil {
			errs = multierror.Append(errs, err)
			res.Failed++
			continue
		}
		res.Created = append(res.Created, *site)
	}
	res.Err = errs.ErrorOrNil()

	if len(res.Created) == 0 && errs != nil {
		first := errs.Errors[0]
		var appErr *apperr.Error
		if errors.As(first, &appErr) {
			return res, apperr.Wrap(appErr.Kind, res.Err, "no site could be generated")
		}
		return res, apperr.Wrap(apperr.ErrUnavailable, res.Err, "no site could be generated")
	}
	if res.Err != nil {
		logrus.WithError(res.Err).WithFields(logrus.Fields{
			"requested": count,
			"created":   len(res.Created),
		}).Warn("Generate: batch partially failed")
	}
	return res, nil
}

func (s *SiteService) createWithSubPlots(ctx context.Context, cand geo.Candidate) (*models.Site, error) {
	code := cand.Code
	for attempt := 0; ; attempt++ {
		site := models.Site{
			Code:      code,
			Latitude:  cand.Latitude,
			Longitude: cand.Longitude,
			State:     models.SitePending,
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&site).Error; err != nil {
				return err
			}
			subplots := geo.Derive(site.ID, site.Latitude, site.Longitude)
			if err := tx.Create(&subplots).Error; err != nil {
				return err
			}
			site.SubPlots = subplots
			return nil
		})
		if err == nil {
			s.publish(events.TopicSites, "generated", site.ID, string(site.State))
			return &site, nil
		}
		if !apperr.IsUniqueViolation(err) {
			return nil, apperr.FromStore(err, "site "+code)
		}
		if attempt == codeRetries {
			return nil, apperr.Wrap(apperr.ErrConflict, err, "site code %s still collides after %d retries", code, codeRetries)
		}
		logrus.WithField("code", code).Warn("createWithSubPlots: site code collision, drawing a new one")
		code = s.gen.Code()
	}
}

// Approve moves a pending site to approved and binds it to a region.
func (s *SiteService) Approve(ctx context.Context, siteID, regionID uuid.UUID, approverID string) (*models.Site, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "approver is required")
	}
	if err := s.db.WithContext(ctx).First(&models.Region{}, "id = ?", regionID).Error; err != nil {
		return nil, apperr.FromStore(err, "region")
	}

	res := s.db.WithContext(ctx).Model(&models.Site{}).
		Where("id = ? AND state = ?", siteID, models.SitePending).
		Updates(map[string]interface{}{
			"state":            models.SiteApproved,
			"region_id":        regionID,
			"approver_id":      approverID,
			"rejection_reason": nil,
		})
	if res.Error != nil {
		return nil, apperr.FromStore(res.Error, "site")
	}
	if res.RowsAffected == 0 {
		return nil, s.notPending(ctx, siteID, "approve")
	}

	s.publish(events.TopicSites, "approved", siteID, string(models.SiteApproved))
	return s.Get(ctx, siteID)
}

// Reject moves a pending site to rejected. The region stays unset.
func (s *SiteService) Reject(ctx context.Context, siteID uuid.UUID, reason, approverID string) (*models.Site, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "rejection reason is required")
	}
	if strings.TrimSpace(approverID) == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "approver is required")
	}

	res := s.db.WithContext(ctx).Model(&models.Site{}).
		Where("id = ? AND state = ?", siteID, models.SitePending).
		Updates(map[string]interface{}{
			"state":            models.SiteRejected,
			"approver_id":      approverID,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return nil, apperr.FromStore(res.Error, "site")
	}
	if res.RowsAffected == 0 {
		return nil, s.notPending(ctx, siteID, "reject")
	}

	s.publish(events.TopicSites, "rejected", siteID, string(models.SiteRejected))
	return s.Get(ctx, siteID)
}

// notPending explains why a guarded update touched no row.
func (s *SiteService) notPending(ctx context.Context, siteID uuid.UUID, action string) error {
	var site models.Site
	if err := s.db.WithContext(ctx).Select("id", "state").First(&site, "id = ?", siteID).Error; err != nil {
		return apperr.FromStore(err, "site")
	}
	return apperr.New(apperr.ErrInvalidState, "cannot %s a site in state %s", action, site.State)
}

// Delete removes a site and its sub-plots. Sites with a brigade stay.
func (s *SiteService) Delete(ctx context.Context, siteID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var site models.Site
		if err := tx.Select("id").First(&site, "id = ?", siteID).Error; err != nil {
			return err
		}

		var brigades int64
		if err := tx.Model(&models.Brigade{}).Where("site_id = ?", siteID).Count(&brigades).Error; err != nil {
			return err
		}
		if brigades > 0 {
			return apperr.New(apperr.ErrInvalidState, "site has a brigade and cannot be deleted")
		}

		if err := tx.Where("site_id = ?", siteID).Delete(&models.SubPlot{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND NOT EXISTS (SELECT 1 FROM brigades WHERE brigades.site_id = sites.id)", siteID).
			Delete(&models.Site{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.ErrInvalidState, "site has a brigade and cannot be deleted")
		}
		return nil
	})
	if err != nil {
		return apperr.FromStore(err, "site")
	}

	s.publish(events.TopicSites, "deleted", siteID, "")
	return nil
}

func (s *SiteService) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Region").Preload("Brigade")
}

// Get returns a site with its region, brigade and sub-plots.
func (s *SiteService) Get(ctx context.Context, siteID uuid.UUID) (*models.Site, error) {
	var site models.Site
	err := s.withRelations(ctx).
		Preload("SubPlots", func(db *gorm.DB) *gorm.DB { return db.Order("direction ASC") }).
		First(&site, "id = ?", siteID).Error
	if err != nil {
		return nil, apperr.FromStore(err, "site")
	}
	return &site, nil
}

func (s *SiteService) List(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	if err := s.withRelations(ctx).Order("created_at DESC").Find(&sites).Error; err != nil {
		return nil, apperr.FromStore(err, "sites")
	}
	return sites, nil
}

func (s *SiteService) ListByState(ctx context.Context, state string) ([]models.Site, error) {
	st := models.SiteState(state)
	if !st.Valid() {
		return nil, apperr.New(apperr.ErrInvalidArgument, "unknown site state %q", state)
	}
	var sites []models.Site
	err := s.withRelations(ctx).Where("state = ?", st).Order("created_at DESC").Find(&sites).Error
	if err != nil {
		return nil, apperr.FromStore(err, "sites")
	}
	return sites, nil
}

// ListByRegion returns the approved sites of one region.
func (s *SiteService) ListByRegion(ctx context.Context, regionID uuid.UUID) ([]models.Site, error) {
	var sites []models.Site
	err := s.withRelations(ctx).
		Where("region_id = ? AND state = ?", regionID, models.SiteApproved).
		Order("created_at DESC").
		Find(&sites).Error
	if err != nil {
		return nil, apperr.FromStore(err, "sites")
	}
	return sites, nil
}

// ListAvailable returns approved sites that have no brigade yet.
func (s *SiteService) ListAvailable(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	err := s.db.WithContext(ctx).Preload("Region").
		Where("state = ? AND NOT EXISTS (SELECT 1 FROM brigades WHERE brigades.site_id = sites.id)", models.SiteApproved).
		Order("created_at DESC").
		Find(&sites).Error
	if err != nil {
		return nil, apperr.FromStore(err, "sites")
	}
	return sites, nil
}

// Stats counts sites per state in one grouped query.
func (s *SiteService) Stats(ctx context.Context) (*models.SiteStats, error) {
	var rows []struct {
		State models.SiteState
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.Site{}).
		Select("state, count(*) AS count").
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.FromStore(err, "site stats")
	}

	stats := &models.SiteStats{}
	for _, r := range rows {
		switch r.State {
		case models.SitePending:
			stats.Pending = r.Count
		case models.SiteApproved:
			stats.Approved = r.Count
		case models.SiteRejected:
			stats.Rejected = r.Count
		}
		stats.Total += r.Count
	}
	return stats, nil
}

// GeoJSON renders the site and its sub-plots as a feature collection.
func (s *SiteService) GeoJSON(ctx context.Context, siteID uuid.UUID) (*geojson.FeatureCollection, error) {
	site, err := s.Get(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return geo.FeatureCollection(*site, site.SubPlots), nil
}

// ListForExport loads sites with region and sub-plots, optionally filtered by
// state (empty means all).
func (s *SiteService) ListForExport(ctx context.Context, state string) ([]models.Site, error) {
	q := s.db.WithContext(ctx).Preload("Region").
		Preload("SubPlots", func(db *gorm.DB) *gorm.DB { return db.Order("direction ASC") })
	if state != "" {
		st := models.SiteState(state)
		if !st.Valid() {
			return nil, apperr.New(apperr.ErrInvalidArgument, "unknown site state %q", state)
		}
		q = q.Where("state = ?", st)
	}
	var sites []models.Site
	if err := q.Order("code ASC").Find(&sites).Error; err != nil {
		return nil, apperr.FromStore(err, "sites")
	}
	return sites, nil
}

// Export writes the sites (all, or those in state) as an XLSX workbook.
func (s *SiteService) Export(ctx context.Context, w io.Writer, state string) error {
	sites, err := s.ListForExport(ctx, state)
	if err != nil {
		return err
	}
	return export.Write(w, sites)
}

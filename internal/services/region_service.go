package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"brigade_tracker/internal/apperr"
	"brigade_tracker/internal/models"
)

// Departments is the seed list, keyed by DANE department code.
var Departments = []models.Region{
	{Code: "05", Name: "Antioquia"},
	{Code: "08", Name: "Atlántico"},
	{Code: "11", Name: "Bogotá D.C."},
	{Code: "13", Name: "Bolívar"},
	{Code: "15", Name: "Boyacá"},
	{Code: "17", Name: "Caldas"},
	{Code: "18", Name: "Caquetá"},
	{Code: "19", Name: "Cauca"},
	{Code: "20", Name: "Cesar"},
	{Code: "23", Name: "Córdoba"},
	{Code: "25", Name: "Cundinamarca"},
	{Code: "27", Name: "Chocó"},
	{Code: "41", Name: "Huila"},
	{Code: "44", Name: "La Guajira"},
	{Code: "47", Name: "Magdalena"},
	{Code: "50", Name: "Meta"},
	{Code: "52", Name: "Nariño"},
	{Code: "54", Name: "Norte de Santander"},
	{Code: "63", Name: "Quindío"},
	{Code: "66", Name: "Risaralda"},
	{Code: "68", Name: "Santander"},
	{Code: "70", Name: "Sucre"},
	{Code: "73", Name: "Tolima"},
	{Code: "76", Name: "Valle del Cauca"},
	{Code: "81", Name: "Arauca"},
	{Code: "85", Name: "Casanare"},
	{Code: "86", Name: "Putumayo"},
	{Code: "88", Name: "San Andrés y Providencia"},
	{Code: "91", Name: "Amazonas"},
	{Code: "94", Name: "Guainía"},
	{Code: "95", Name: "Guaviare"},
	{Code: "97", Name: "Vaupés"},
	{Code: "99", Name: "Vichada"},
}

type RegionService struct {
	base
}

func (s *RegionService) List(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&regions).Error; err != nil {
		return nil, apperr.FromStore(err, "regions")
	}
	return regions, nil
}

func (s *RegionService) Get(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	var region models.Region
	if err := s.db.WithContext(ctx).First(&region, "id = ?", id).Error; err != nil {
		return nil, apperr.FromStore(err, "region")
	}
	return &region, nil
}

func (s *RegionService) GetByCode(ctx context.Context, code string) (*models.Region, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "region code is required")
	}
	var region models.Region
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&region).Error; err != nil {
		return nil, apperr.FromStore(err, "region "+code)
	}
	return &region, nil
}

// Seed inserts the departments that are not stored yet and returns how many
// were added. Running it again is a no-op.
func (s *RegionService) Seed(ctx context.Context) (int64, error) {
	rows := make([]models.Region, len(Departments))
	copy(rows, Departments)

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, apperr.FromStore(res.Error, "regions")
	}
	return res.RowsAffected, nil
}

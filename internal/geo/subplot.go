package geo

import (
	"fmt"

	"github.com/google/uuid"

	"brigade_tracker/internal/models"
)

// SubPlotDelta is the angular offset between the center and each cardinal
// sub-plot, about 100 m at the equator.
const SubPlotDelta = 0.0009

// Derive expands a site center into its five sub-plots.
func Derive(siteID uuid.UUID, lat, lon float64) []models.SubPlot {
	out := make([]models.SubPlot, 0, len(models.Directions))
	for _, dir := range models.Directions {
		dLat, dLon := offset(dir)
		out = append(out, models.SubPlot{
			SiteID:    siteID,
			Code:      SubPlotCode(siteID, dir),
			Latitude:  Round6(lat + dLat),
			Longitude: Round6(lon + dLon),
			Direction: dir,
		})
	}
	return out
}

func SubPlotCode(siteID uuid.UUID, dir models.Direction) string {
	return fmt.Sprintf("%s-%s", siteID, dir.Suffix())
}

func offset(dir models.Direction) (dLat, dLon float64) {
	switch dir {
	case models.DirectionNorth:
		return SubPlotDelta, 0
	case models.DirectionSouth:
		return -SubPlotDelta, 0
	case models.DirectionEast:
		return 0, SubPlotDelta
	case models.DirectionWest:
		return 0, -SubPlotDelta
	default:
		return 0, 0
	}
}

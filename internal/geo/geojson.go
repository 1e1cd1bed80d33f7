package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"brigade_tracker/internal/models"
)

// Point builds a WGS84 point; GeoJSON order is longitude, latitude.
func Point(lat, lon float64) *geom.Point {
	return geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{lon, lat}).SetSRID(4326)
}

// FeatureCollection renders a site and its sub-plots as GeoJSON point features.
func FeatureCollection(site models.Site, subplots []models.SubPlot) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(subplots)+1)}

	siteProps := map[string]interface{}{
		"kind":  "site",
		"code":  site.Code,
		"state": site.State,
	}
	if site.Region != nil {
		siteProps["region"] = site.Region.Name
	}
	fc.Features = append(fc.Features, &geojson.Feature{
		ID:         site.ID.String(),
		Geometry:   Point(site.Latitude, site.Longitude),
		Properties: siteProps,
	})

	for _, sp := range subplots {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       sp.ID.String(),
			Geometry: Point(sp.Latitude, sp.Longitude),
			Properties: map[string]interface{}{
				"kind":      "subplot",
				"code":      sp.Code,
				"direction": sp.Direction,
			},
		})
	}
	return fc
}

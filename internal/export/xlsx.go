// Package export writes site inventories as spreadsheets for field offices.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"brigade_tracker/internal/models"
)

const (
	SitesSheet    = "Sites"
	SubPlotsSheet = "SubPlots"
)

var (
	siteHeader    = []interface{}{"ID", "Code", "State", "Latitude", "Longitude", "Region", "Approver", "Rejection reason", "Created at"}
	subPlotHeader = []interface{}{"Site code", "Sub-plot code", "Direction", "Latitude", "Longitude"}
)

// Workbook builds a workbook with one row per site and one per sub-plot.
// The caller closes the returned file.
func Workbook(sites []models.Site) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SitesSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SubPlotsSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(SitesSheet, "A1", &siteHeader); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(SubPlotsSheet, "A1", &subPlotHeader); err != nil {
		f.Close()
		return nil, err
	}

	subRow := 2
	for i, site := range sites {
		row := []interface{}{
			site.ID.String(),
			site.Code,
			string(site.State),
			site.Latitude,
			site.Longitude,
			regionName(site.Region),
			deref(site.ApproverID),
			deref(site.RejectionReason),
			site.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(SitesSheet, cell(i+2), &row); err != nil {
			f.Close()
			return nil, err
		}

		for _, sp := range site.SubPlots {
			spRow := []interface{}{site.Code, sp.Code, string(sp.Direction), sp.Latitude, sp.Longitude}
			if err := f.SetSheetRow(SubPlotsSheet, cell(subRow), &spRow); err != nil {
				f.Close()
				return nil, err
			}
			subRow++
		}
	}

	_ = f.SetColWidth(SitesSheet, "A", "A", 38)
	_ = f.SetColWidth(SubPlotsSheet, "B", "B", 46)
	return f, nil
}

// Write streams the workbook for sites to w.
func Write(w io.Writer, sites []models.Site) error {
	f, err := Workbook(sites)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	return f.Write(w)
}

func cell(row int) string {
	return fmt.Sprintf("A%d", row)
}

func regionName(r *models.Region) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"roles-server/i18n"
	"roles-server/models"
)

const exportSheet = "Places"

// WriteXLSX writes views as a workbook, one row per place, in view order.
// Headers are translated with t.
func WriteXLSX(w io.Writer, views []models.PlaceView, t i18n.Translator) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return err
	}

	headers := []any{"ID", "Name", "Instagram", t("byNeighborhood"), "Maps", "Lat", "Lng"}
	for _, key := range models.FilterKeys {
		headers = append(headers, t("tag_"+string(key)))
	}
	headers = append(headers, "Inclusion date", t("distance")+" (km)")
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, v := range views {
		row := []any{
			v.ID,
			v.Name,
			v.InstagramURL,
			v.Neighborhood,
			v.MapsURL,
			v.Coords.Lat,
			v.Coords.Lng,
		}
		for _, key := range models.FilterKeys {
			row = append(row, v.Tags.Has(key))
		}
		row = append(row, models.FormatTimestamp(v.InclusionDate))
		if v.Distance != nil {
			row = append(row, *v.Distance)
		} else {
			row = append(row, nil)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

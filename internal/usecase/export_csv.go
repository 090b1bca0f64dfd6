package usecase

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
)

// ExportColumns - колонки CSV выгрузки
var ExportColumns = []string{
	"Asset_Name",
	"Asset_Type",
	"County",
	"Municipality",
	"Unique_ID",
	"Flood_Scenario",
	"Longitude",
	"Latitude",
}

const unknownValue = domain.UnknownLabel

// ExportFile - готовый CSV файл
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}

// YearFeatures - уникальные объекты одного сценарного года
type YearFeatures struct {
	Year     domain.Year
	Features []domain.AssetFeature
}

// ExportFilename: <Label_with_underscores>_<years>_flood_exposed_assets.csv
func ExportFilename(municipality string, years []domain.Year) string {
	label := strings.Join(strings.Fields(domain.MunicipalityLabel(municipality)), "_")
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, y.String())
	}
	return fmt.Sprintf("%s_%s_flood_exposed_assets.csv", label, strings.Join(parts, "_"))
}

// BuildExportCSV собирает CSV по годам. Пустая выгрузка возвращает ErrEmptyExport.
func BuildExportCSV(municipality string, data []YearFeatures) (*ExportFile, error) {
	total := 0
	years := make([]domain.Year, 0, len(data))
	for _, d := range data {
		total += len(d.Features)
		years = append(years, d.Year)
	}
	if total == 0 {
		return nil, errors.ErrEmptyExport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportColumns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, d := range data {
		for _, f := range d.Features {
			if err := w.Write(exportRow(f, d.Year)); err != nil {
				return nil, fmt.Errorf("write csv row %s: %w", f.UniqueID, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &ExportFile{
		Filename:    ExportFilename(municipality, years),
		ContentType: "text/csv;charset=utf-8",
		Content:     buf.Bytes(),
		Rows:        total,
	}, nil
}

func exportRow(f domain.AssetFeature, year domain.Year) []string {
	assetType := unknownValue
	if f.Category != "" {
		assetType = f.Category.Label()
	}
	municipality := unknownValue
	if f.Municipality != "" {
		municipality = domain.MunicipalityLabel(f.Municipality)
	}

	return []string{
		textField(f.Name),
		textField(assetType),
		textField(f.County),
		textField(municipality),
		textField(f.UniqueID),
		year.String(),
		strconv.FormatFloat(f.Lon, 'f', 6, 64),
		strconv.FormatFloat(f.Lat, 'f', 6, 64),
	}
}

// textField заменяет запятые на точку с запятой, пустое значение - Unknown
func textField(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return unknownValue
	}
	return strings.ReplaceAll(s, ",", ";")
}

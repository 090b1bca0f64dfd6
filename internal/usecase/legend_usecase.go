package usecase

import (
	"fmt"

	"github.com/flood-exposure-viewer/internal/domain"
)

// LegendTitle - заголовок панели легенды
const LegendTitle = "Explore Exposed Assets"

// RenderLegend строит модель легенды из сводки и текущего выбора. Чистая функция.
func RenderLegend(summary domain.Summary, sel domain.Selection) domain.LegendView {
	label := domain.MunicipalityLabel(sel.Municipality())
	active := sel.Year()
	exposed := summary.Exposed(active)

	header := domain.LegendHeader{
		Title:             LegendTitle,
		Municipality:      sel.Municipality(),
		MunicipalityLabel: label,
		ActiveYear:        active,
		ExposedCount:      exposed,
		OverallTotal:      summary.OverallTotal,
		Pct2025:           summary.Pct2025,
		Pct2050:           summary.Pct2050,
		Text:              headerText(label, exposed, active, summary),
	}

	rows := make([]domain.LegendRow, 0, len(summary.Rows))
	for _, r := range summary.Rows {
		meta := domain.LookupCategory(r.Category)
		rows = append(rows, domain.LegendRow{
			Category:  r.Category,
			Label:     meta.Label,
			Color:     meta.Color,
			Icon:      meta.Icon,
			Count2025: r.Count2025,
			Count2050: r.Count2050,
			Total:     r.GroundTruth,
			Bar2025:   r.Bar2025,
			Bar2050:   r.Bar2050,
			Hidden:    sel.IsHidden(r.Category),
			Toggle:    domain.ToggleCategory{Category: r.Category},
		})
	}

	return domain.LegendView{Header: header, Rows: rows}
}

func headerText(label string, exposed int, year domain.Year, s domain.Summary) string {
	text := fmt.Sprintf("%s has %d public assets exposed to flooding in the %d scenario.", label, exposed, year)
	if s.OverallTotal > 0 {
		text += fmt.Sprintf(" That is %.1f%% of %d assets in 2025 and %.1f%% in 2050.",
			s.Pct2025, s.OverallTotal, s.Pct2050)
	}
	return text
}

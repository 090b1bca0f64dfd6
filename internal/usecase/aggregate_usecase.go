package usecase

import (
	"math"
	"sort"

	"github.com/flood-exposure-viewer/internal/domain"
)

// CountByCategory считает объекты по категориям
func CountByCategory(features []domain.AssetFeature) domain.CategoryCounts {
	counts := make(domain.CategoryCounts)
	for _, f := range features {
		counts[f.Category]++
	}
	return counts
}

// ComputeSummary объединяет счетчики двух лет с эталонными итогами.
//
// OverallTotal - сумма эталонных итогов по всем встреченным категориям.
// Проценты округляются до десятых и равны нулю при OverallTotal = 0.
// Бар = min(100, round(100*count/rowTotal)), где rowTotal - эталон категории
// или max(c2025, c2050, 1), если эталона нет.
func ComputeSummary(counts2025, counts2050 domain.CategoryCounts, groundTruth map[domain.Category]int) domain.Summary {
	categories := make(map[domain.Category]struct{})
	for c := range counts2025 {
		categories[c] = struct{}{}
	}
	for c := range counts2050 {
		categories[c] = struct{}{}
	}
	for c := range groundTruth {
		categories[c] = struct{}{}
	}

	summary := domain.Summary{
		Total2025: counts2025.Total(),
		Total2050: counts2050.Total(),
		Rows:      make([]domain.SummaryRow, 0, len(categories)),
	}

	for c := range categories {
		gt, hasGT := groundTruth[c]
		summary.OverallTotal += gt

		c25, c50 := counts2025[c], counts2050[c]
		if c25 == 0 && c50 == 0 && gt == 0 {
			continue
		}

		rowTotal := gt
		if !hasGT || gt <= 0 {
			rowTotal = maxInt(c25, c50, 1)
		}

		summary.Rows = append(summary.Rows, domain.SummaryRow{
			Category:       c,
			Count2025:      c25,
			Count2050:      c50,
			GroundTruth:    gt,
			HasGroundTruth: hasGT,
			RowTotal:       rowTotal,
			Bar2025:        barWidth(c25, rowTotal),
			Bar2050:        barWidth(c50, rowTotal),
		})
	}

	summary.Pct2025 = percentOf(summary.Total2025, summary.OverallTotal)
	summary.Pct2050 = percentOf(summary.Total2050, summary.OverallTotal)

	sort.Slice(summary.Rows, func(i, j int) bool {
		a, b := summary.Rows[i], summary.Rows[j]
		if a.Count2050 != b.Count2050 {
			return a.Count2050 > b.Count2050
		}
		return a.Category < b.Category
	})

	return summary
}

func percentOf(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(100 * float64(count) / float64(total))
}

func barWidth(count, rowTotal int) int {
	if rowTotal <= 0 {
		return 0
	}
	w := int(math.Round(100 * float64(count) / float64(rowTotal)))
	if w > 100 {
		return 100
	}
	return w
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func maxInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

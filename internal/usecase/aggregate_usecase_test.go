package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/usecase"
)

func TestCountByCategory(t *testing.T) {
	features := []domain.AssetFeature{
		{UniqueID: "1", Category: domain.CategorySchool},
		{UniqueID: "2", Category: domain.CategorySchool},
		{UniqueID: "3", Category: domain.CategoryPark},
	}

	counts := usecase.CountByCategory(features)

	assert.Equal(t, 2, counts[domain.CategorySchool])
	assert.Equal(t, 1, counts[domain.CategoryPark])
	assert.Equal(t, 3, counts.Total())
}

func TestComputeSummary(t *testing.T) {
	t.Run("newark school scenario", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategorySchool: 40},
			domain.CategoryCounts{domain.CategorySchool: 70},
			map[domain.Category]int{domain.CategorySchool: 100},
		)

		assert.Equal(t, 100, summary.OverallTotal)
		assert.Equal(t, 40.0, summary.Pct2025)
		assert.Equal(t, 70.0, summary.Pct2050)
		require.Len(t, summary.Rows, 1)
		assert.Equal(t, 40, summary.Rows[0].Bar2025)
		assert.Equal(t, 70, summary.Rows[0].Bar2050)
		assert.True(t, summary.Rows[0].HasGroundTruth)
	})

	t.Run("zero overall total gives zero percentages", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategoryPark: 3},
			domain.CategoryCounts{domain.CategoryPark: 5},
			nil,
		)

		assert.Equal(t, 0, summary.OverallTotal)
		assert.Equal(t, 0.0, summary.Pct2025)
		assert.Equal(t, 0.0, summary.Pct2050)
	})

	t.Run("missing ground truth uses max count as row total", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategoryPark: 3},
			domain.CategoryCounts{domain.CategoryPark: 6},
			map[domain.Category]int{domain.CategorySchool: 10},
		)

		var park domain.SummaryRow
		for _, r := range summary.Rows {
			if r.Category == domain.CategoryPark {
				park = r
			}
		}
		assert.False(t, park.HasGroundTruth)
		assert.Equal(t, 6, park.RowTotal)
		assert.Equal(t, 50, park.Bar2025)
		assert.Equal(t, 100, park.Bar2050)
	})

	t.Run("zero ground truth does not divide by zero", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategoryLibrary: 2},
			domain.CategoryCounts{},
			map[domain.Category]int{domain.CategoryLibrary: 0},
		)

		require.Len(t, summary.Rows, 1)
		assert.Equal(t, 2, summary.Rows[0].RowTotal)
		assert.Equal(t, 100, summary.Rows[0].Bar2025)
		assert.Equal(t, 0, summary.Rows[0].Bar2050)
	})

	t.Run("bars are capped at 100", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategoryHospital: 12},
			domain.CategoryCounts{domain.CategoryHospital: 15},
			map[domain.Category]int{domain.CategoryHospital: 10},
		)

		require.Len(t, summary.Rows, 1)
		assert.Equal(t, 100, summary.Rows[0].Bar2025)
		assert.Equal(t, 100, summary.Rows[0].Bar2050)
	})

	t.Run("rows with nothing to show are skipped", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategorySchool: 1},
			domain.CategoryCounts{},
			map[domain.Category]int{domain.CategoryAirport: 0, domain.CategorySchool: 4},
		)

		require.Len(t, summary.Rows, 1)
		assert.Equal(t, domain.CategorySchool, summary.Rows[0].Category)
	})

	t.Run("ground truth only categories are shown", func(t *testing.T) {
		summary := usecase.ComputeSummary(nil, nil, map[domain.Category]int{domain.CategoryAirport: 2})

		require.Len(t, summary.Rows, 1)
		assert.Equal(t, 0, summary.Rows[0].Bar2025)
		assert.Equal(t, 2, summary.OverallTotal)
	})

	t.Run("rows sorted by 2050 count then category", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategoryPark: 9},
			domain.CategoryCounts{
				domain.CategorySchool:   5,
				domain.CategoryHospital: 5,
				domain.CategoryPark:     1,
				domain.CategoryLibrary:  7,
			},
			nil,
		)

		got := make([]domain.Category, 0, len(summary.Rows))
		for _, r := range summary.Rows {
			got = append(got, r.Category)
		}
		assert.Equal(t, []domain.Category{
			domain.CategoryLibrary,
			domain.CategoryHospital,
			domain.CategorySchool,
			domain.CategoryPark,
		}, got)
	})

	t.Run("percentages rounded to one decimal", func(t *testing.T) {
		summary := usecase.ComputeSummary(
			domain.CategoryCounts{domain.CategorySchool: 1},
			domain.CategoryCounts{domain.CategorySchool: 2},
			map[domain.Category]int{domain.CategorySchool: 3},
		)

		assert.Equal(t, 33.3, summary.Pct2025)
		assert.Equal(t, 66.7, summary.Pct2050)
		assert.Equal(t, 33, summary.Rows[0].Bar2025)
		assert.Equal(t, 67, summary.Rows[0].Bar2050)
	})
}

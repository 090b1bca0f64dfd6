package usecase_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/usecase"
)

func TestRenderLegend(t *testing.T) {
	sel := domain.NewSelection(domain.Year2050, "NEWARK CITY").Toggle(domain.CategoryPark)
	summary := usecase.ComputeSummary(
		domain.CategoryCounts{domain.CategorySchool: 40, domain.CategoryPark: 1},
		domain.CategoryCounts{domain.CategorySchool: 70, domain.CategoryPark: 2},
		map[domain.Category]int{domain.CategorySchool: 100},
	)

	view := usecase.RenderLegend(summary, sel)

	assert.Equal(t, usecase.LegendTitle, view.Header.Title)
	assert.Equal(t, "Newark", view.Header.MunicipalityLabel)
	assert.Equal(t, domain.Year2050, view.Header.ActiveYear)
	assert.Equal(t, 72, view.Header.ExposedCount)
	assert.Equal(t, 100, view.Header.OverallTotal)
	assert.Contains(t, view.Header.Text, "Newark has 72 public assets")
	assert.Contains(t, view.Header.Text, "41.0% of 100 assets in 2025")

	require.Len(t, view.Rows, 2)
	school := view.Rows[0]
	assert.Equal(t, domain.CategorySchool, school.Category)
	assert.Equal(t, "School", school.Label)
	assert.Equal(t, 40, school.Bar2025)
	assert.Equal(t, 70, school.Bar2050)
	assert.Equal(t, 100, school.Total)
	assert.False(t, school.Hidden)

	park := view.Rows[1]
	assert.True(t, park.Hidden)
	assert.Equal(t, domain.ToggleCategory{Category: domain.CategoryPark}, park.Toggle)
}

func TestRenderLegend_UnknownCategory(t *testing.T) {
	sel := domain.NewSelection(domain.Year2025, "NEWARK CITY")
	summary := usecase.ComputeSummary(
		domain.CategoryCounts{domain.Category("FOO"): 3},
		domain.CategoryCounts{},
		nil,
	)

	view := usecase.RenderLegend(summary, sel)

	require.Len(t, view.Rows, 1)
	assert.Equal(t, "FOO", view.Rows[0].Label)
	assert.Equal(t, domain.FallbackLegendColor, view.Rows[0].Color)
	assert.Equal(t, domain.FallbackMapColor, domain.LookupCategory("FOO").MapColor())
}

func TestRenderLegend_MissingCategory(t *testing.T) {
	raw := geojson.NewFeature(orb.Point{-74.17, 40.73})
	raw.Properties = geojson.Properties{
		domain.PropUniqueID:     "X1",
		domain.PropMunicipality: "NEWARK CITY",
	}
	blank := geojson.NewFeature(orb.Point{-74.16, 40.72})
	blank.Properties = geojson.Properties{
		domain.PropUniqueID:     "X2",
		domain.PropCategory:     "  ",
		domain.PropMunicipality: "NEWARK CITY",
	}

	features := usecase.DedupeFeatures([]*geojson.Feature{raw, blank})
	require.Len(t, features, 2)
	assert.Equal(t, domain.CategoryUnknown, features[0].Category)
	assert.Equal(t, domain.CategoryUnknown, features[1].Category)

	counts := usecase.CountByCategory(features)
	assert.Equal(t, 2, counts[domain.CategoryUnknown])
	assert.NotContains(t, counts, domain.Category(""))

	sel := domain.NewSelection(domain.Year2025, "NEWARK CITY")
	view := usecase.RenderLegend(usecase.ComputeSummary(counts, domain.CategoryCounts{}, nil), sel)

	require.Len(t, view.Rows, 1)
	row := view.Rows[0]
	assert.Equal(t, domain.CategoryUnknown, row.Category)
	assert.Equal(t, "Unknown", row.Label)
	assert.Equal(t, domain.FallbackLegendColor, row.Color)

	next, effects, err := usecase.Dispatch(sel, row.Toggle)
	require.NoError(t, err)
	assert.NotEmpty(t, effects)
	assert.True(t, next.IsHidden(domain.CategoryUnknown))

	fc := geojson.NewFeatureCollection()
	fc.Append(raw)
	fc.Append(blank)
	assert.Equal(t, 2, domain.NormalizeCategories(fc))

	filter := usecase.AssetFilter(next)
	assert.False(t, filter.Match(raw.Properties))
	assert.False(t, filter.Match(blank.Properties))
	assert.True(t, usecase.AssetFilter(sel).Match(raw.Properties))
}

func TestRenderLegend_NoGroundTruth(t *testing.T) {
	sel := domain.NewSelection(domain.Year2025, "ATLANTIC CITY")

	view := usecase.RenderLegend(domain.Summary{}, sel)

	assert.Equal(t, "Atlantic City", view.Header.MunicipalityLabel)
	assert.Equal(t, 0, view.Header.ExposedCount)
	assert.NotContains(t, view.Header.Text, "%")
	assert.Empty(t, view.Rows)
}

package usecase_test

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/usecase"
)

func layerIDs(layers []domain.LayerState) []string {
	ids := make([]string, 0, len(layers))
	for _, l := range layers {
		ids = append(ids, l.ID)
	}
	return ids
}

func visibility(layers []domain.LayerState) map[string]bool {
	out := make(map[string]bool, len(layers))
	for _, l := range layers {
		out[l.ID] = l.Visible
	}
	return out
}

func TestPlanLayers(t *testing.T) {
	sel := domain.NewSelection(domain.Year2025, "NEWARK CITY")

	plan := usecase.PlanLayers(sel, usecase.LayerSyncOptions{})

	assert.Equal(t, []string{
		"floodplain_2050",
		"floodplain_2025",
		"boundary",
		"assets_2025",
		"assets_2050",
	}, layerIDs(plan.Layers))

	assert.Equal(t, map[string]bool{
		"floodplain_2050": false,
		"floodplain_2025": true,
		"boundary":        true,
		"assets_2025":     true,
		"assets_2050":     false,
	}, visibility(plan.Layers))
}

func TestPlanLayers_FloodGrowth(t *testing.T) {
	sel := domain.NewSelection(domain.Year2050, "NEWARK CITY")

	without := visibility(usecase.PlanLayers(sel, usecase.LayerSyncOptions{}).Layers)
	assert.False(t, without["floodplain_2025"])
	assert.True(t, without["floodplain_2050"])

	with := visibility(usecase.PlanLayers(sel, usecase.LayerSyncOptions{ShowFloodGrowth: true}).Layers)
	assert.True(t, with["floodplain_2025"])
	assert.True(t, with["floodplain_2050"])
	assert.True(t, with["assets_2050"])
	assert.False(t, with["assets_2025"])
}

func TestAssetFilter(t *testing.T) {
	sel := domain.NewSelection(domain.Year2025, "NEWARK CITY").
		Toggle(domain.CategoryPark).
		Toggle(domain.CategorySchool)

	filter := usecase.AssetFilter(sel)

	props := func(mun string, c domain.Category) geojson.Properties {
		return geojson.Properties{domain.PropMunicipality: mun, domain.PropCategory: string(c)}
	}

	assert.True(t, filter.Match(props("NEWARK CITY", domain.CategoryHospital)))
	assert.True(t, filter.Match(props("NEWARK CITY", domain.Category("FOO"))))
	assert.False(t, filter.Match(props("NEWARK CITY", domain.CategoryPark)))
	assert.False(t, filter.Match(props("NEWARK CITY", domain.CategorySchool)))
	assert.False(t, filter.Match(props("CAMDEN CITY", domain.CategoryHospital)))

	raw, err := json.Marshal(filter)
	require.NoError(t, err)
	assert.JSONEq(t, `["all",["==",["get","MUN"],"NEWARK CITY"],["!=",["get","ASSET"],"PARK"],["!=",["get","ASSET"],"SCHOOL"]]`, string(raw))
}

func TestAssetFilter_DoubleToggleRestoresFilter(t *testing.T) {
	sel := domain.NewSelection(domain.Year2050, "CAMDEN CITY").Toggle(domain.CategoryLibrary)
	before := usecase.AssetFilter(sel)

	after := usecase.AssetFilter(sel.Toggle(domain.CategoryAirport).Toggle(domain.CategoryAirport))

	assert.Equal(t, before, after)
}

func TestLayerSync_Apply(t *testing.T) {
	sched := &manualScheduler{}
	r := newRenderer(sched, nil)
	ls := usecase.NewLayerSync(r, usecase.LayerSyncOptions{}, zap.NewNop())

	sel := domain.NewSelection(domain.Year2050, "NEWARK CITY").Toggle(domain.CategoryPark)
	plan := ls.Apply(sel)

	assert.Equal(t, layerIDs(plan.Layers), layerIDs(r.Layers()))
	assert.Equal(t, visibility(plan.Layers), visibility(r.Layers()))

	for _, l := range r.Layers() {
		want, ok := plan.Layer(l.ID)
		require.True(t, ok)
		assert.Equal(t, want.Filter, l.Filter, l.ID)
	}
}

func TestLayerSync_ApplySkipsMissingLayers(t *testing.T) {
	r := headlessFactory(&manualScheduler{})
	ls := usecase.NewLayerSync(r, usecase.LayerSyncOptions{}, zap.NewNop())

	assert.NotPanics(t, func() {
		ls.Apply(domain.DefaultSelection())
	})
	assert.Empty(t, r.Layers())
}

func TestLayerSync_AcquireBothYears(t *testing.T) {
	sched := &manualScheduler{}
	r := newRenderer(sched, nil)
	ls := usecase.NewLayerSync(r, usecase.LayerSyncOptions{}, zap.NewNop())

	sel := domain.NewSelection(domain.Year2025, "NEWARK CITY")
	current := func() domain.Selection { return sel }
	ls.Apply(sel)

	release := ls.AcquireBothYears(current)
	vis := visibility(r.Layers())
	assert.True(t, vis["assets_2025"])
	assert.True(t, vis["assets_2050"])
	assert.True(t, ls.Holding())

	// изменение выбора во время захвата не прячет слои
	sel = sel.WithYear(domain.Year2050)
	ls.Apply(sel)
	vis = visibility(r.Layers())
	assert.True(t, vis["assets_2025"])
	assert.True(t, vis["assets_2050"])

	release()
	vis = visibility(r.Layers())
	assert.False(t, vis["assets_2025"])
	assert.True(t, vis["assets_2050"])
	assert.False(t, ls.Holding())

	// повторный release ничего не делает
	release()
	assert.False(t, ls.Holding())
}

func TestLayerSync_ReleaseOnPanickingSettle(t *testing.T) {
	sched := &manualScheduler{}
	r := newRenderer(sched, nil)
	ls := usecase.NewLayerSync(r, usecase.LayerSyncOptions{}, zap.NewNop())

	sel := domain.NewSelection(domain.Year2025, "NEWARK CITY")
	ls.Apply(sel)

	release := ls.AcquireBothYears(func() domain.Selection { return sel })
	require.True(t, visibility(r.Layers())["assets_2050"])

	var after bool
	r.OnceIdle(func() {
		defer release()
		panic("boom")
	})
	r.OnceIdle(func() { after = true })

	assert.NotPanics(t, sched.flush)
	assert.True(t, after)
	assert.False(t, ls.Holding())
	vis := visibility(r.Layers())
	assert.True(t, vis["assets_2025"])
	assert.False(t, vis["assets_2050"])
}

func TestLayerSync_NestedHolds(t *testing.T) {
	sched := &manualScheduler{}
	r := newRenderer(sched, nil)
	ls := usecase.NewLayerSync(r, usecase.LayerSyncOptions{}, zap.NewNop())

	sel := domain.NewSelection(domain.Year2025, "NEWARK CITY")
	current := func() domain.Selection { return sel }

	first := ls.AcquireBothYears(current)
	second := ls.AcquireBothYears(current)

	first()
	assert.True(t, visibility(r.Layers())["assets_2050"])

	second()
	assert.False(t, visibility(r.Layers())["assets_2050"])
}

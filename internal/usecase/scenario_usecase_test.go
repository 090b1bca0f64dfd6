package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/flood-exposure-viewer/internal/usecase"
)

func TestDispatch(t *testing.T) {
	base := domain.NewSelection(domain.Year2025, "NEWARK CITY")

	tests := []struct {
		name    string
		cmd     domain.Command
		effects []usecase.Effect
		check   func(t *testing.T, sel domain.Selection)
	}{
		{
			name:    "set year",
			cmd:     domain.SetYear{Year: domain.Year2050},
			effects: []usecase.Effect{usecase.EffectApplyLayers, usecase.EffectRefreshLegend, usecase.EffectPublishChange},
			check: func(t *testing.T, sel domain.Selection) {
				assert.Equal(t, domain.Year2050, sel.Year())
				assert.Equal(t, "NEWARK CITY", sel.Municipality())
			},
		},
		{
			name: "set municipality",
			cmd:  domain.SetMunicipality{Municipality: "CAMDEN CITY"},
			effects: []usecase.Effect{
				usecase.EffectApplyLayers,
				usecase.EffectFitViewport,
				usecase.EffectRefreshLegend,
				usecase.EffectPublishChange,
			},
			check: func(t *testing.T, sel domain.Selection) {
				assert.Equal(t, "CAMDEN CITY", sel.Municipality())
			},
		},
		{
			name:    "toggle category",
			cmd:     domain.ToggleCategory{Category: domain.CategoryPark},
			effects: []usecase.Effect{usecase.EffectApplyLayers, usecase.EffectRefreshLegend, usecase.EffectPublishChange},
			check: func(t *testing.T, sel domain.Selection) {
				assert.True(t, sel.IsHidden(domain.CategoryPark))
			},
		},
		{
			name:    "resize",
			cmd:     domain.Resize{Viewport: domain.Viewport{Width: 400, Height: 800}},
			effects: []usecase.Effect{usecase.EffectStoreViewport},
			check: func(t *testing.T, sel domain.Selection) {
				assert.Equal(t, base, sel)
			},
		},
		{
			name:    "boundaries loaded",
			cmd:     domain.BoundariesLoaded{},
			effects: []usecase.Effect{usecase.EffectStoreBoundaries, usecase.EffectFitViewport},
		},
		{
			name:    "ground truth loaded",
			cmd:     domain.GroundTruthLoaded{},
			effects: []usecase.Effect{usecase.EffectStoreGroundTruth, usecase.EffectRefreshLegend},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, effects, err := usecase.Dispatch(base, tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.effects, effects)
			if tt.check != nil {
				tt.check(t, sel)
			}
		})
	}
}

func TestDispatch_Errors(t *testing.T) {
	base := domain.DefaultSelection()

	tests := []struct {
		name string
		cmd  domain.Command
		err  error
	}{
		{"invalid year", domain.SetYear{Year: 2030}, errors.ErrInvalidYear},
		{"blank municipality", domain.SetMunicipality{Municipality: "  "}, errors.ErrInvalidMunicipality},
		{"blank category", domain.ToggleCategory{}, errors.ErrInvalidCategory},
		{"nil command", nil, errors.ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, effects, err := usecase.Dispatch(base, tt.cmd)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, effects)
			assert.Equal(t, base, sel)
		})
	}
}

func TestDispatch_DoesNotMutateInput(t *testing.T) {
	base := domain.DefaultSelection().Toggle(domain.CategorySchool)

	_, _, err := usecase.Dispatch(base, domain.ToggleCategory{Category: domain.CategoryPark})
	require.NoError(t, err)

	assert.Equal(t, []domain.Category{domain.CategorySchool}, base.Hidden())
}

func TestEffect_String(t *testing.T) {
	assert.Equal(t, "apply_layers", usecase.EffectApplyLayers.String())
	assert.Equal(t, "refresh_legend", usecase.EffectRefreshLegend.String())
	assert.Equal(t, "effect(99)", usecase.Effect(99).String())
}

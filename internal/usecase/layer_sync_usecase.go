package usecase

import (
	"sync"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"go.uber.org/zap"
)

// LayerSyncOptions - настройки плана слоев
type LayerSyncOptions struct {
	// ShowFloodGrowth - для позднего сценария показывать обе зоны затопления
	ShowFloodGrowth bool
}

// AssetFilter строит фильтр слоя объектов: муниципалитет и исключение скрытых категорий
func AssetFilter(sel domain.Selection) domain.Expression {
	hidden := sel.Hidden()
	args := make([]domain.Expression, 0, len(hidden)+1)
	args = append(args, domain.Eq(domain.PropMunicipality, sel.Municipality()))
	for _, c := range hidden {
		args = append(args, domain.Ne(domain.PropCategory, string(c)))
	}
	return domain.All(args...)
}

// BoundaryFilter строит фильтр контура муниципалитета
func BoundaryFilter(sel domain.Selection) domain.Expression {
	return domain.Eq(domain.PropMunicipality, sel.Municipality())
}

// PlanLayers вычисляет видимость, фильтры и порядок всех слоев.
// Порядок снизу вверх: зона 2050, зона 2025, контур, объекты.
func PlanLayers(sel domain.Selection, opts LayerSyncOptions) domain.LayerPlan {
	active := sel.Year()
	assetFilter := AssetFilter(sel)

	floodVisible := func(y domain.Year) bool {
		if y == active {
			return true
		}
		// рост зоны: ранний сценарий поверх позднего
		return opts.ShowFloodGrowth && active == domain.Year2050 && y == domain.Year2025
	}

	layers := make([]domain.LayerState, 0, 2*len(domain.ScenarioYears)+1)
	for i := len(domain.ScenarioYears) - 1; i >= 0; i-- {
		y := domain.ScenarioYears[i]
		layers = append(layers, domain.LayerState{
			ID:      domain.FloodplainLayerID(y),
			Visible: floodVisible(y),
		})
	}

	layers = append(layers, domain.LayerState{
		ID:      domain.BoundaryLayerID,
		Visible: true,
		Filter:  BoundaryFilter(sel),
	})

	for _, y := range domain.ScenarioYears {
		layers = append(layers, domain.LayerState{
			ID:      domain.AssetLayerID(y),
			Visible: y == active,
			Filter:  assetFilter,
		})
	}

	return domain.LayerPlan{Layers: layers}
}

// LayerSync применяет план слоев к рендереру
type LayerSync struct {
	renderer repository.Renderer
	opts     LayerSyncOptions
	logger   *zap.Logger

	// holds - число активных захватов обоих сценариев
	holds int
}

// NewLayerSync создает новый экземпляр LayerSync
func NewLayerSync(renderer repository.Renderer, opts LayerSyncOptions, logger *zap.Logger) *LayerSync {
	return &LayerSync{
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// Plan возвращает план для выбора
func (s *LayerSync) Plan(sel domain.Selection) domain.LayerPlan {
	return PlanLayers(sel, s.opts)
}

// Apply применяет план. Незагруженные слои пропускаются.
// Пока действует захват обоих сценариев, все слои объектов остаются видимыми.
func (s *LayerSync) Apply(sel domain.Selection) domain.LayerPlan {
	plan := s.Plan(sel)

	for _, l := range plan.Layers {
		if !s.renderer.HasLayer(l.ID) {
			s.logger.Debug("Layer not added yet, skipping", zap.String("layer", l.ID))
			continue
		}
		visible := l.Visible || (s.holds > 0 && isAssetLayer(l.ID))
		if err := s.renderer.SetVisibility(l.ID, visible); err != nil {
			s.logger.Warn("Failed to set layer visibility", zap.String("layer", l.ID), zap.Error(err))
		}
		if err := s.renderer.SetFilter(l.ID, l.Filter); err != nil {
			s.logger.Warn("Failed to set layer filter", zap.String("layer", l.ID), zap.Error(err))
		}
	}

	// перенос наверх по порядку плана дает итоговый порядок снизу вверх
	for _, l := range plan.Layers {
		if !s.renderer.HasLayer(l.ID) {
			continue
		}
		if err := s.renderer.MoveLayer(l.ID, ""); err != nil {
			s.logger.Warn("Failed to move layer", zap.String("layer", l.ID), zap.Error(err))
		}
	}

	return plan
}

// AcquireBothYears временно включает слои объектов всех сценариев.
// Возвращаемый release восстанавливает план выбора, актуального на момент вызова release.
// Повторный вызов release ничего не делает.
func (s *LayerSync) AcquireBothYears(current func() domain.Selection) (release func()) {
	s.holds++
	s.Apply(current())

	var once sync.Once
	return func() {
		once.Do(func() {
			s.holds--
			s.Apply(current())
		})
	}
}

// Holding сообщает, действует ли захват обоих сценариев
func (s *LayerSync) Holding() bool {
	return s.holds > 0
}

func isAssetLayer(id string) bool {
	for _, y := range domain.ScenarioYears {
		if id == domain.AssetLayerID(y) {
			return true
		}
	}
	return false
}

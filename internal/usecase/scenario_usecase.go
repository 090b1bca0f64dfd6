package usecase

import (
	"fmt"
	"strings"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
)

// Effect - действие, которое драйвер сессии выполняет после смены состояния
type Effect int

const (
	// EffectApplyLayers - применить план слоев к рендереру
	EffectApplyLayers Effect = iota + 1
	// EffectFitViewport - подвести камеру к активному муниципалитету
	EffectFitViewport
	// EffectRefreshLegend - пересчитать легенду после перерисовки
	EffectRefreshLegend
	// EffectPublishChange - опубликовать событие о смене сценария
	EffectPublishChange
	// EffectStoreBoundaries - сохранить границы и обновить источник
	EffectStoreBoundaries
	// EffectStoreGroundTruth - сохранить эталонные итоги
	EffectStoreGroundTruth
	// EffectStoreViewport - сохранить размер окна
	EffectStoreViewport
)

func (e Effect) String() string {
	switch e {
	case EffectApplyLayers:
		return "apply_layers"
	case EffectFitViewport:
		return "fit_viewport"
	case EffectRefreshLegend:
		return "refresh_legend"
	case EffectPublishChange:
		return "publish_change"
	case EffectStoreBoundaries:
		return "store_boundaries"
	case EffectStoreGroundTruth:
		return "store_ground_truth"
	case EffectStoreViewport:
		return "store_viewport"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Dispatch - единственная точка изменения выбора сценария.
// Возвращает новый выбор и список эффектов для драйвера. Чистая функция.
func Dispatch(sel domain.Selection, cmd domain.Command) (domain.Selection, []Effect, error) {
	switch c := cmd.(type) {
	case domain.SetYear:
		if !c.Year.Valid() {
			return sel, nil, errors.ErrInvalidYear
		}
		return sel.WithYear(c.Year), []Effect{EffectApplyLayers, EffectRefreshLegend, EffectPublishChange}, nil

	case domain.SetMunicipality:
		key := strings.TrimSpace(c.Municipality)
		if key == "" {
			return sel, nil, errors.ErrInvalidMunicipality
		}
		return sel.WithMunicipality(key), []Effect{
			EffectApplyLayers,
			EffectFitViewport,
			EffectRefreshLegend,
			EffectPublishChange,
		}, nil

	case domain.ToggleCategory:
		if strings.TrimSpace(string(c.Category)) == "" {
			return sel, nil, errors.ErrInvalidCategory
		}
		return sel.Toggle(c.Category), []Effect{EffectApplyLayers, EffectRefreshLegend, EffectPublishChange}, nil

	case domain.Resize:
		return sel, []Effect{EffectStoreViewport}, nil

	case domain.BoundariesLoaded:
		return sel, []Effect{EffectStoreBoundaries, EffectFitViewport}, nil

	case domain.GroundTruthLoaded:
		return sel, []Effect{EffectStoreGroundTruth, EffectRefreshLegend}, nil

	default:
		return sel, nil, errors.ErrUnknownCommand
	}
}

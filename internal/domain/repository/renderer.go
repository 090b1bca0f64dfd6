package repository

import (
	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Renderer - рендерер карты, в который сессия передает состояние слоев.
// Все методы вызываются из одной горутины сессии.
type Renderer interface {
	// AddSource регистрирует источник данных
	AddSource(id string, fc *geojson.FeatureCollection) error

	// SetSourceData заменяет данные источника
	SetSourceData(id string, fc *geojson.FeatureCollection) error

	// AddLayer добавляет слой поверх существующих
	AddLayer(spec domain.LayerSpec) error

	// HasLayer проверяет наличие слоя
	HasLayer(id string) bool

	// LayerSource возвращает источник слоя
	LayerSource(id string) (string, bool)

	// SetVisibility включает или выключает слой
	SetVisibility(layerID string, visible bool) error

	// SetFilter задает фильтр слоя. Пустое выражение снимает фильтр.
	SetFilter(layerID string, filter domain.Expression) error

	// MoveLayer перемещает слой под beforeID, пустой beforeID - наверх
	MoveLayer(layerID, beforeID string) error

	// QuerySourceFeatures возвращает загруженные объекты источника.
	// Объект на границе тайлов может встречаться несколько раз.
	QuerySourceFeatures(sourceID string, filter domain.Expression) []*geojson.Feature

	// QueryRenderedFeatures возвращает видимые объекты в точке, верхний слой первым
	QueryRenderedFeatures(point orb.Point, layerIDs []string) []*geojson.Feature

	// OnceIdle регистрирует одноразовый обработчик завершения перерисовки
	OnceIdle(fn func())

	// FitBounds запрашивает анимацию камеры к прямоугольнику
	FitBounds(bounds orb.Bound, opts domain.FitOptions)

	// ShowPopup показывает подсказку
	ShowPopup(p domain.Popup)

	// RemovePopup убирает подсказку
	RemovePopup()
}

// RendererState - чтение фактического состояния рендерера для клиента
type RendererState interface {
	Renderer

	// Layers возвращает состояние слоев снизу вверх
	Layers() []domain.LayerState

	// Camera возвращает последний запрос камеры
	Camera() *domain.Camera

	// Popup возвращает текущую подсказку
	Popup() *domain.Popup
}

package domain

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// Идентификаторы источников и слоев карты
const (
	BoundarySourceID = "boundary"
	BoundaryLayerID  = "boundary"
)

// AssetSourceID - источник объектов для сценарного года
func AssetSourceID(y Year) string { return fmt.Sprintf("assets_%d", y) }

// AssetLayerID - слой объектов для сценарного года
func AssetLayerID(y Year) string { return fmt.Sprintf("assets_%d", y) }

// FloodplainSourceID - источник зоны затопления для сценарного года
func FloodplainSourceID(y Year) string { return fmt.Sprintf("floodplain_%d", y) }

// FloodplainLayerID - слой зоны затопления для сценарного года
func FloodplainLayerID(y Year) string { return fmt.Sprintf("floodplain_%d", y) }

// LayerType - тип отрисовки слоя
type LayerType string

const (
	LayerTypeFill   LayerType = "fill"
	LayerTypeLine   LayerType = "line"
	LayerTypeCircle LayerType = "circle"
)

// LayerSpec - описание слоя при добавлении в рендерер
type LayerSpec struct {
	ID      string                 `json:"id"`
	Source  string                 `json:"source"`
	Type    LayerType              `json:"type"`
	Visible bool                   `json:"visible"`
	Filter  Expression             `json:"filter"`
	Paint   map[string]interface{} `json:"paint,omitempty"`
}

// LayerState - желаемое или фактическое состояние слоя
type LayerState struct {
	ID      string     `json:"id"`
	Visible bool       `json:"visible"`
	Filter  Expression `json:"filter"`
}

// LayerPlan - состояние всех слоев в порядке снизу вверх
type LayerPlan struct {
	Layers []LayerState `json:"layers"`
}

// Layer ищет слой в плане
func (p LayerPlan) Layer(id string) (LayerState, bool) {
	for _, l := range p.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return LayerState{}, false
}

// IndexOf возвращает позицию слоя снизу вверх или -1
func (p LayerPlan) IndexOf(id string) int {
	for i, l := range p.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// MapColorExpression - match-выражение цвета точек по категории
func MapColorExpression() []interface{} {
	expr := []interface{}{"match", []interface{}{"get", PropCategory}}
	for _, m := range categoryRegistry {
		expr = append(expr, string(m.ID), m.Color)
	}
	return append(expr, FallbackMapColor)
}

// Padding - отступы камеры в пикселях
type Padding struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// FitOptions - параметры анимации камеры
type FitOptions struct {
	Padding   Padding       `json:"padding"`
	Offset    [2]float64    `json:"offset"`
	MaxZoom   float64       `json:"max_zoom"`
	Duration  time.Duration `json:"duration"`
	Linear    bool          `json:"linear"`
	Essential bool          `json:"essential"`
}

// Camera - последний запрос на перемещение камеры
type Camera struct {
	Bounds   LngLatBounds `json:"bounds"`
	Options  FitOptions   `json:"options"`
	Sequence int          `json:"sequence"`
}

// MobileBreakpoint - ширина окна, до которой включается мобильная раскладка
const MobileBreakpoint = 768

// Viewport - размер окна клиента в пикселях
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsMobile - мобильная раскладка (ширина не больше 768)
func (v Viewport) IsMobile() bool {
	return v.Width > 0 && v.Width <= MobileBreakpoint
}

// Popup - всплывающая подсказка над объектом
type Popup struct {
	Lon      float64  `json:"lon"`
	Lat      float64  `json:"lat"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	LayerID  string   `json:"layer_id"`
}

// Point возвращает координату подсказки
func (p Popup) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

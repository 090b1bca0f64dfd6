package headless

import (
	"errors"
	"fmt"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/eventloop"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceExists   = errors.New("source already exists")
	ErrLayerNotFound  = errors.New("layer not found")
	ErrLayerExists    = errors.New("layer already exists")
)

// Options - параметры headless рендерера
type Options struct {
	// TileZoom - зум, на котором точки раскладываются по тайлам
	TileZoom maptile.Zoom
	// TileBuffer - буфер тайла в долях его размера
	TileBuffer float64
	// HitTolerance - радиус попадания по точке в градусах
	HitTolerance float64
}

// DefaultOptions возвращает параметры по умолчанию (буфер 128/4096)
func DefaultOptions() Options {
	return Options{
		TileZoom:     12,
		TileBuffer:   1.0 / 32,
		HitTolerance: 0.0005,
	}
}

type source struct {
	data *geojson.FeatureCollection
	// tiled - объекты в том виде, в каком их отдают тайлы: точки у границы повторяются
	tiled []*geojson.Feature
}

type layer struct {
	spec domain.LayerSpec
}

// Renderer - карта без отрисовки: хранит источники, слои, фильтры и камеру,
// и сообщает о завершении "перерисовки" через планировщик сессии.
// Не потокобезопасен, все вызовы идут из горутины планировщика.
type Renderer struct {
	sched  eventloop.Scheduler
	opts   Options
	logger *zap.Logger

	sources map[string]*source
	layers  map[string]*layer
	order   []string // снизу вверх

	idle          []func()
	settlePending bool
	redraws       int

	camera    *domain.Camera
	cameraSeq int
	popup     *domain.Popup
}

var _ repository.RendererState = (*Renderer)(nil)

// New создает новый Renderer
func New(sched eventloop.Scheduler, opts Options, logger *zap.Logger) *Renderer {
	if opts.TileBuffer < 0 {
		opts.TileBuffer = 0
	}
	return &Renderer{
		sched:   sched,
		opts:    opts,
		logger:  logger,
		sources: make(map[string]*source),
		layers:  make(map[string]*layer),
	}
}

// AddSource регистрирует источник
func (r *Renderer) AddSource(id string, fc *geojson.FeatureCollection) error {
	if _, ok := r.sources[id]; ok {
		return fmt.Errorf("add source %q: %w", id, ErrSourceExists)
	}
	r.sources[id] = r.buildSource(fc)
	r.invalidate()
	return nil
}

// SetSourceData заменяет данные источника
func (r *Renderer) SetSourceData(id string, fc *geojson.FeatureCollection) error {
	if _, ok := r.sources[id]; !ok {
		return fmt.Errorf("set source data %q: %w", id, ErrSourceNotFound)
	}
	r.sources[id] = r.buildSource(fc)
	r.invalidate()
	return nil
}

// AddLayer добавляет слой поверх остальных
func (r *Renderer) AddLayer(spec domain.LayerSpec) error {
	if _, ok := r.layers[spec.ID]; ok {
		return fmt.Errorf("add layer %q: %w", spec.ID, ErrLayerExists)
	}
	if _, ok := r.sources[spec.Source]; !ok {
		return fmt.Errorf("add layer %q: source %q: %w", spec.ID, spec.Source, ErrSourceNotFound)
	}
	r.layers[spec.ID] = &layer{spec: spec}
	r.order = append(r.order, spec.ID)
	r.invalidate()
	return nil
}

// HasLayer проверяет наличие слоя
func (r *Renderer) HasLayer(id string) bool {
	_, ok := r.layers[id]
	return ok
}

// LayerSource возвращает источник слоя
func (r *Renderer) LayerSource(id string) (string, bool) {
	l, ok := r.layers[id]
	if !ok {
		return "", false
	}
	return l.spec.Source, true
}

// SetVisibility включает или выключает слой
func (r *Renderer) SetVisibility(layerID string, visible bool) error {
	l, ok := r.layers[layerID]
	if !ok {
		return fmt.Errorf("set visibility %q: %w", layerID, ErrLayerNotFound)
	}
	l.spec.Visible = visible
	r.invalidate()
	return nil
}

// SetFilter задает фильтр слоя
func (r *Renderer) SetFilter(layerID string, filter domain.Expression) error {
	l, ok := r.layers[layerID]
	if !ok {
		return fmt.Errorf("set filter %q: %w", layerID, ErrLayerNotFound)
	}
	l.spec.Filter = filter
	r.invalidate()
	return nil
}

// MoveLayer перемещает слой под beforeID или наверх
func (r *Renderer) MoveLayer(layerID, beforeID string) error {
	if _, ok := r.layers[layerID]; !ok {
		return fmt.Errorf("move layer %q: %w", layerID, ErrLayerNotFound)
	}
	if beforeID != "" {
		if _, ok := r.layers[beforeID]; !ok {
			return fmt.Errorf("move layer %q before %q: %w", layerID, beforeID, ErrLayerNotFound)
		}
		if beforeID == layerID {
			return nil
		}
	}

	order := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if id != layerID {
			order = append(order, id)
		}
	}

	if beforeID == "" {
		order = append(order, layerID)
	} else {
		for i, id := range order {
			if id == beforeID {
				order = append(order[:i], append([]string{layerID}, order[i:]...)...)
				break
			}
		}
	}

	r.order = order
	r.invalidate()
	return nil
}

// QuerySourceFeatures возвращает объекты источника, прошедшие фильтр.
// Источник без видимого слоя не загружен и возвращает пустой результат.
func (r *Renderer) QuerySourceFeatures(sourceID string, filter domain.Expression) []*geojson.Feature {
	src, ok := r.sources[sourceID]
	if !ok {
		return nil
	}
	if !r.sourceVisible(sourceID) {
		r.logger.Debug("Query on source without visible layers", zap.String("source", sourceID))
		return nil
	}

	out := make([]*geojson.Feature, 0, len(src.tiled))
	for _, f := range src.tiled {
		if filter.Match(f.Properties) {
			out = append(out, f)
		}
	}
	return out
}

// QueryRenderedFeatures возвращает объекты видимых слоев под точкой, верхний слой первым
func (r *Renderer) QueryRenderedFeatures(point orb.Point, layerIDs []string) []*geojson.Feature {
	allowed := make(map[string]struct{}, len(layerIDs))
	for _, id := range layerIDs {
		allowed[id] = struct{}{}
	}

	var out []*geojson.Feature
	for i := len(r.order) - 1; i >= 0; i-- {
		l := r.layers[r.order[i]]
		if len(allowed) > 0 {
			if _, ok := allowed[l.spec.ID]; !ok {
				continue
			}
		}
		if !l.spec.Visible {
			continue
		}
		src := r.sources[l.spec.Source]
		if src == nil || src.data == nil {
			continue
		}
		for _, f := range src.data.Features {
			if f == nil || !l.spec.Filter.Match(f.Properties) {
				continue
			}
			if r.hit(point, f.Geometry) {
				out = append(out, f)
			}
		}
	}
	return out
}

// OnceIdle регистрирует обработчик на ближайшее завершение перерисовки.
// Обработчик, зарегистрированный во время settle, выполнится на следующем.
func (r *Renderer) OnceIdle(fn func()) {
	r.idle = append(r.idle, fn)
	r.invalidate()
}

// FitBounds запоминает запрос камеры
func (r *Renderer) FitBounds(bounds orb.Bound, opts domain.FitOptions) {
	r.cameraSeq++
	r.camera = &domain.Camera{
		Bounds:   domain.NewLngLatBounds(bounds),
		Options:  opts,
		Sequence: r.cameraSeq,
	}
	r.invalidate()
}

// ShowPopup показывает подсказку
func (r *Renderer) ShowPopup(p domain.Popup) {
	r.popup = &p
}

// RemovePopup убирает подсказку
func (r *Renderer) RemovePopup() {
	r.popup = nil
}

// Layers возвращает состояние слоев снизу вверх
func (r *Renderer) Layers() []domain.LayerState {
	out := make([]domain.LayerState, 0, len(r.order))
	for _, id := range r.order {
		l := r.layers[id]
		out = append(out, domain.LayerState{
			ID:      id,
			Visible: l.spec.Visible,
			Filter:  l.spec.Filter,
		})
	}
	return out
}

// Camera возвращает последний запрос камеры или nil
func (r *Renderer) Camera() *domain.Camera {
	if r.camera == nil {
		return nil
	}
	c := *r.camera
	return &c
}

// Popup возвращает текущую подсказку или nil
func (r *Renderer) Popup() *domain.Popup {
	if r.popup == nil {
		return nil
	}
	p := *r.popup
	return &p
}

// Redraws - число завершенных перерисовок
func (r *Renderer) Redraws() int {
	return r.redraws
}

func (r *Renderer) invalidate() {
	if r.settlePending {
		return
	}
	r.settlePending = true
	if !r.sched.Post(r.settle) {
		r.settlePending = false
	}
}

func (r *Renderer) settle() {
	r.settlePending = false
	r.redraws++

	callbacks := r.idle
	r.idle = nil
	for _, fn := range callbacks {
		r.runIdle(fn)
	}
}

func (r *Renderer) runIdle(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Idle callback panicked", zap.Any("panic", rec), zap.Stack("stack"))
		}
	}()
	fn()
}

func (r *Renderer) sourceVisible(sourceID string) bool {
	for _, l := range r.layers {
		if l.spec.Source == sourceID && l.spec.Visible {
			return true
		}
	}
	return false
}

func (r *Renderer) buildSource(fc *geojson.FeatureCollection) *source {
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	src := &source{data: fc, tiled: make([]*geojson.Feature, 0, len(fc.Features))}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		copies := 1
		if p, ok := f.Geometry.(orb.Point); ok {
			copies = r.tileCopies(p)
		}
		for i := 0; i < copies; i++ {
			src.tiled = append(src.tiled, f)
		}
	}
	return src
}

// tileCopies считает, в скольких тайлах (с учетом буфера) окажется точка
func (r *Renderer) tileCopies(p orb.Point) int {
	z := r.opts.TileZoom
	center := maptile.At(p, z)
	limit := int64(1) << uint(z)

	n := 0
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			x, y := int64(center.X)+dx, int64(center.Y)+dy
			if x < 0 || y < 0 || x >= limit || y >= limit {
				continue
			}
			if dx == 0 && dy == 0 {
				n++
				continue
			}
			t := maptile.New(uint32(x), uint32(y), z)
			if t.Bound(r.opts.TileBuffer).Contains(p) {
				n++
			}
		}
	}
	return n
}

func (r *Renderer) hit(p orb.Point, g orb.Geometry) bool {
	switch geom := g.(type) {
	case orb.Point:
		return planar.Distance(p, geom) <= r.opts.HitTolerance
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	case nil:
		return false
	default:
		return geom.Bound().Pad(r.opts.HitTolerance).Contains(p)
	}
}

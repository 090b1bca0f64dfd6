package usecase

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/flood-exposure-viewer/internal/pkg/eventloop"
	"github.com/flood-exposure-viewer/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// RendererFactory создает рендерер, сообщающий о перерисовке через планировщик сессии
type RendererFactory func(sched eventloop.Scheduler) repository.RendererState

// ChangePublisher публикует события смены сценария
type ChangePublisher interface {
	PublishScenarioChange(ctx context.Context, event domain.ScenarioChangedEvent) error
}

// MetricsRecorder собирает метрики сессий просмотра
type MetricsRecorder interface {
	SetActiveSessions(n int)
	ObserveCommand(command string, err error)
	ObserveLegendRefresh(d time.Duration)
	ObserveExport(status domain.ExportStatus)
}

type noopMetrics struct{}

func (noopMetrics) SetActiveSessions(int)              {}
func (noopMetrics) ObserveCommand(string, error)       {}
func (noopMetrics) ObserveLegendRefresh(time.Duration) {}
func (noopMetrics) ObserveExport(domain.ExportStatus)  {}

// SessionOptions - настройки сессии просмотра
type SessionOptions struct {
	LayerSync LayerSyncOptions
	Viewport  ViewportOptions
	Metrics   MetricsRecorder
}

// SessionState - снимок состояния сессии для клиента
type SessionState struct {
	ID                uuid.UUID           `json:"id"`
	Selection         domain.Selection    `json:"selection"`
	Viewport          domain.Viewport     `json:"viewport"`
	Layers            []domain.LayerState `json:"layers"`
	Camera            *domain.Camera      `json:"camera,omitempty"`
	Popup             *domain.Popup       `json:"popup,omitempty"`
	Legend            domain.LegendView   `json:"legend"`
	BoundariesLoaded  bool                `json:"boundaries_loaded"`
	GroundTruthLoaded bool                `json:"ground_truth_loaded"`
}

// Session - сессия просмотра карты: выбор сценария и свой рендерер.
// Все изменения состояния выполняются в горутине цикла событий.
type Session struct {
	id        uuid.UUID
	loop      *eventloop.Loop
	cancel    context.CancelFunc
	renderer  repository.RendererState
	catalog   *FeatureCatalog
	layers    *LayerSync
	fitter    *ViewportFitter
	dataset   *DatasetUseCase
	publisher ChangePublisher
	metrics   MetricsRecorder
	logger    *zap.Logger
	lastSeen  atomic.Int64

	// поля ниже принадлежат горутине цикла
	selection    domain.Selection
	viewport     domain.Viewport
	bounds       domain.BoundsIndex
	groundTruth  domain.GroundTruth
	legend       domain.LegendView
	revision     int
	legendQueued bool
	legendSince  time.Time
	waiters      []chan struct{}
}

// NewSession создает сессию. Запуск - через Start.
func NewSession(
	id uuid.UUID,
	sel domain.Selection,
	viewport domain.Viewport,
	dataset *DatasetUseCase,
	factory RendererFactory,
	opts SessionOptions,
	publisher ChangePublisher,
	logger *zap.Logger,
) *Session {
	logger = logger.With(zap.String("session_id", id.String()))
	loop := eventloop.New(logger)
	renderer := factory(loop)
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}

	s := &Session{
		id:        id,
		loop:      loop,
		renderer:  renderer,
		catalog:   NewFeatureCatalog(renderer, logger),
		layers:    NewLayerSync(renderer, opts.LayerSync, logger),
		fitter:    NewViewportFitter(renderer, opts.Viewport, logger),
		dataset:   dataset,
		publisher: publisher,
		metrics:   opts.Metrics,
		logger:    logger,
		selection: sel,
		viewport:  viewport,
	}
	s.touch()
	return s
}

// ID возвращает идентификатор сессии
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Start запускает цикл событий и начальную загрузку слоев
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		if err := s.loop.Run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Session loop stopped", zap.Error(err))
		}
	}()
	s.loop.Post(s.initialize)
}

// Close останавливает цикл событий
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Done закрывается после остановки сессии
func (s *Session) Done() <-chan struct{} {
	return s.loop.Done()
}

// LastSeen - время последнего обращения клиента
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Dispatch применяет команду и возвращает состояние сразу после нее.
// Легенда для новой команды появится после перерисовки, см. WaitLegend.
func (s *Session) Dispatch(ctx context.Context, cmd domain.Command) (SessionState, error) {
	s.touch()

	var (
		state SessionState
		err   error
	)
	if callErr := s.loop.Call(ctx, func() {
		err = s.handle(cmd)
		state = s.state()
	}); callErr != nil {
		return SessionState{}, s.loopError(callErr)
	}
	return state, err
}

// Notify ставит команду в очередь без ожидания (уведомления загрузчиков)
func (s *Session) Notify(cmd domain.Command) {
	s.loop.Post(func() {
		if err := s.handle(cmd); err != nil {
			s.logger.Warn("Notification rejected",
				zap.String("command", domain.CommandName(cmd)),
				zap.Error(err))
		}
	})
}

// State возвращает текущее состояние
func (s *Session) State(ctx context.Context) (SessionState, error) {
	s.touch()

	var state SessionState
	if err := s.loop.Call(ctx, func() { state = s.state() }); err != nil {
		return SessionState{}, s.loopError(err)
	}
	return state, nil
}

// WaitLegend ждет легенду с ревизией больше after.
// По истечении ctx возвращает текущее состояние и pending = true.
func (s *Session) WaitLegend(ctx context.Context, after int) (state SessionState, pending bool, err error) {
	var ready chan struct{}
	if callErr := s.loop.Call(ctx, func() {
		if s.revision > after {
			state = s.state()
			return
		}
		ready = make(chan struct{})
		s.waiters = append(s.waiters, ready)
	}); callErr != nil {
		return SessionState{}, false, s.loopError(callErr)
	}
	if ready == nil {
		return state, false, nil
	}

	select {
	case <-ready:
		state, err = s.State(ctx)
		return state, false, err
	case <-ctx.Done():
		readCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		state, err = s.State(readCtx)
		return state, true, err
	case <-s.loop.Done():
		return SessionState{}, false, errors.ErrSessionClosed
	}
}

// Hover показывает подсказку над объектом активного слоя или убирает ее
func (s *Session) Hover(ctx context.Context, lon, lat float64) (*domain.Popup, error) {
	if !utils.ValidatePoint(orb.Point{lon, lat}) {
		return nil, errors.ErrInvalidCoordinates
	}
	s.touch()

	var popup *domain.Popup
	if err := s.loop.Call(ctx, func() {
		layerID := domain.AssetLayerID(s.selection.Year())
		hits := s.renderer.QueryRenderedFeatures(orb.Point{lon, lat}, []string{layerID})
		if len(hits) == 0 {
			s.renderer.RemovePopup()
			return
		}

		a := domain.AssetFromFeature(hits[0])
		name := a.Name
		if name == "" {
			name = unknownValue
		}
		p := domain.Popup{
			Lon:      a.Lon,
			Lat:      a.Lat,
			Title:    strings.ToUpper(name),
			Category: a.Category,
			LayerID:  layerID,
		}
		s.renderer.ShowPopup(p)
		popup = &p
	}); err != nil {
		return nil, s.loopError(err)
	}
	return popup, nil
}

// ClearHover убирает подсказку
func (s *Session) ClearHover(ctx context.Context) error {
	if err := s.loop.Call(ctx, func() { s.renderer.RemovePopup() }); err != nil {
		return s.loopError(err)
	}
	return nil
}

type sourceData struct {
	id string
	fc *geojson.FeatureCollection
}

type exportResult struct {
	file *ExportFile
	err  error
}

// Export строит CSV по активному муниципалитету для указанных лет.
// Пустой список лет - только активный год.
func (s *Session) Export(ctx context.Context, years []domain.Year) (*ExportFile, error) {
	s.touch()

	for _, y := range years {
		if !y.Valid() {
			return nil, errors.ErrInvalidYear
		}
	}

	result := make(chan exportResult, 1)
	if err := s.loop.Call(ctx, func() {
		wanted := domain.NormalizeYears(years)
		if len(wanted) == 0 {
			wanted = []domain.Year{s.selection.Year()}
		}
		s.collectExport(wanted, result)
	}); err != nil {
		return nil, s.loopError(err)
	}

	select {
	case r := <-result:
		status := domain.ExportStatusReady
		if r.err != nil {
			status = domain.ExportStatusFailed
		}
		s.metrics.ObserveExport(status)
		return r.file, r.err
	case <-ctx.Done():
		return nil, errors.ErrTimeout
	case <-s.loop.Done():
		return nil, errors.ErrSessionClosed
	}
}

func (s *Session) collectExport(years []domain.Year, result chan<- exportResult) {
	needsDual := len(years) > 1 || years[0] != s.selection.Year()

	release := func() {}
	if needsDual {
		release = s.layers.AcquireBothYears(s.current)
	}

	s.renderer.OnceIdle(func() {
		defer release()

		mun := s.selection.Municipality()
		data := make([]YearFeatures, 0, len(years))
		for _, y := range years {
			data = append(data, YearFeatures{Year: y, Features: s.catalog.GetFeatures(y, mun)})
		}

		file, err := BuildExportCSV(mun, data)
		result <- exportResult{file: file, err: err}
	})
}

// handle - драйвер эффектов, вызывается только в горутине цикла
func (s *Session) handle(cmd domain.Command) error {
	next, effects, err := Dispatch(s.selection, cmd)
	s.metrics.ObserveCommand(domain.CommandName(cmd), err)
	if err != nil {
		return err
	}
	s.selection = next

	s.logger.Debug("Command dispatched",
		zap.String("command", domain.CommandName(cmd)),
		zap.Int("year", int(next.Year())),
		zap.String("municipality", next.Municipality()))

	for _, e := range effects {
		s.execute(e, cmd)
	}
	return nil
}

func (s *Session) execute(e Effect, cmd domain.Command) {
	switch e {
	case EffectApplyLayers:
		s.layers.Apply(s.selection)
	case EffectFitViewport:
		s.fitter.Fit(s.bounds, s.selection.Municipality(), s.viewport)
	case EffectRefreshLegend:
		s.scheduleLegend()
	case EffectPublishChange:
		s.publish(cmd)
	case EffectStoreBoundaries:
		if c, ok := cmd.(domain.BoundariesLoaded); ok {
			s.bounds = c.Bounds
			if c.Collection != nil {
				if err := s.renderer.SetSourceData(domain.BoundarySourceID, c.Collection); err != nil {
					s.logger.Warn("Failed to update boundary source", zap.Error(err))
				}
			}
		}
	case EffectStoreGroundTruth:
		if c, ok := cmd.(domain.GroundTruthLoaded); ok {
			s.groundTruth = c.Totals
		}
	case EffectStoreViewport:
		if c, ok := cmd.(domain.Resize); ok {
			s.viewport = c.Viewport
		}
	default:
		s.logger.Warn("Unknown effect", zap.Stringer("effect", e))
	}
}

// scheduleLegend откладывает пересчет до перерисовки.
// Несколько изменений до перерисовки дают один пересчет по последнему выбору.
func (s *Session) scheduleLegend() {
	if s.legendQueued {
		return
	}
	s.legendQueued = true
	s.legendSince = time.Now()

	s.renderer.OnceIdle(func() {
		s.legendQueued = false
		release := s.layers.AcquireBothYears(s.current)
		s.renderer.OnceIdle(func() {
			defer release()
			s.aggregate()
		})
	})
}

// aggregate читает выбор на момент вызова, а не на момент изменения
func (s *Session) aggregate() {
	sel := s.selection
	mun := sel.Municipality()

	counts2025 := CountByCategory(s.catalog.GetFeatures(domain.Year2025, mun))
	counts2050 := CountByCategory(s.catalog.GetFeatures(domain.Year2050, mun))
	summary := ComputeSummary(counts2025, counts2050, s.groundTruth.Totals(mun))

	legend := RenderLegend(summary, sel)
	s.revision++
	legend.Revision = s.revision
	s.legend = legend
	s.metrics.ObserveLegendRefresh(time.Since(s.legendSince))

	for _, w := range s.waiters {
		close(w)
	}
	s.waiters = nil

	s.logger.Debug("Legend refreshed",
		zap.Int("revision", s.revision),
		zap.Int("rows", len(legend.Rows)),
		zap.Int("overall_total", summary.OverallTotal))
}

func (s *Session) initialize() {
	ds := s.dataset.Snapshot()

	sources := make([]sourceData, 0, 2*len(domain.ScenarioYears)+1)
	for _, y := range domain.ScenarioYears {
		sources = append(sources,
			sourceData{id: domain.FloodplainSourceID(y), fc: ds.Floodplains[y]},
			sourceData{id: domain.AssetSourceID(y), fc: ds.Assets[y]},
		)
	}
	sources = append(sources, sourceData{id: domain.BoundarySourceID, fc: ds.Boundaries})

	for _, src := range sources {
		if err := s.renderer.AddSource(src.id, src.fc); err != nil {
			s.logger.Warn("Failed to add source", zap.String("source", src.id), zap.Error(err))
		}
	}

	for _, spec := range layerSpecs() {
		if err := s.renderer.AddLayer(spec); err != nil {
			s.logger.Warn("Failed to add layer", zap.String("layer", spec.ID), zap.Error(err))
		}
	}

	s.bounds = ds.Bounds
	s.groundTruth = ds.GroundTruth

	s.layers.Apply(s.selection)
	s.fitter.Fit(s.bounds, s.selection.Municipality(), s.viewport)
	s.scheduleLegend()

	s.logger.Info("Session initialized",
		zap.Int("year", int(s.selection.Year())),
		zap.String("municipality", s.selection.Municipality()),
		zap.Bool("boundaries_loaded", ds.BoundariesLoaded),
		zap.Bool("ground_truth_loaded", ds.GroundTruthLoaded))
}

func layerSpecs() []domain.LayerSpec {
	specs := make([]domain.LayerSpec, 0, 2*len(domain.ScenarioYears)+1)
	for _, y := range domain.ScenarioYears {
		specs = append(specs, domain.LayerSpec{
			ID:     domain.FloodplainLayerID(y),
			Source: domain.FloodplainSourceID(y),
			Type:   domain.LayerTypeFill,
			Paint: map[string]interface{}{
				"fill-color":   "#3a86ff",
				"fill-opacity": 0.35,
			},
		})
	}
	specs = append(specs, domain.LayerSpec{
		ID:     domain.BoundaryLayerID,
		Source: domain.BoundarySourceID,
		Type:   domain.LayerTypeLine,
		Paint: map[string]interface{}{
			"line-color": "#222222",
			"line-width": 2,
		},
	})
	for _, y := range domain.ScenarioYears {
		specs = append(specs, domain.LayerSpec{
			ID:     domain.AssetLayerID(y),
			Source: domain.AssetSourceID(y),
			Type:   domain.LayerTypeCircle,
			Paint: map[string]interface{}{
				"circle-color":  domain.MapColorExpression(),
				"circle-radius": 5,
			},
		})
	}
	return specs
}

func (s *Session) state() SessionState {
	return SessionState{
		ID:                s.id,
		Selection:         s.selection,
		Viewport:          s.viewport,
		Layers:            s.renderer.Layers(),
		Camera:            s.renderer.Camera(),
		Popup:             s.renderer.Popup(),
		Legend:            s.legend,
		BoundariesLoaded:  len(s.bounds) > 0,
		GroundTruthLoaded: len(s.groundTruth) > 0,
	}
}

func (s *Session) current() domain.Selection {
	return s.selection
}

func (s *Session) publish(cmd domain.Command) {
	if s.publisher == nil {
		return
	}

	event := domain.ScenarioChangedEvent{
		SessionID: s.id,
		Command:   domain.CommandName(cmd),
		Selection: s.selection,
		ChangedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishScenarioChange(ctx, event); err != nil {
			s.logger.Warn("Failed to publish scenario change", zap.Error(err))
		}
	}()
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) loopError(err error) error {
	if err == eventloop.ErrClosed {
		return errors.ErrSessionClosed
	}
	if err == context.DeadlineExceeded || err == context.Canceled {
		return errors.ErrTimeout
	}
	return err
}

package usecase_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/eventloop"
	"github.com/flood-exposure-viewer/internal/renderer/headless"
	"github.com/flood-exposure-viewer/internal/usecase"
)

// manualScheduler копит задачи до явного flush
type manualScheduler struct {
	tasks []func()
}

func (s *manualScheduler) Post(fn func()) bool {
	s.tasks = append(s.tasks, fn)
	return true
}

func (s *manualScheduler) flush() {
	for len(s.tasks) > 0 {
		fn := s.tasks[0]
		s.tasks = s.tasks[1:]
		fn()
	}
}

func assetFeature(id string, c domain.Category, mun, name string, p orb.Point) *geojson.Feature {
	return domain.AssetFeature{
		UniqueID:     id,
		Category:     c,
		Municipality: mun,
		Name:         name,
		County:       "ESSEX",
		Lon:          p.Lon(),
		Lat:          p.Lat(),
	}.ToFeature()
}

func collection(features ...*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f)
	}
	return fc
}

func boundaryFeature(mun string, b orb.Bound) *geojson.Feature {
	f := geojson.NewFeature(b.ToPolygon())
	f.Properties[domain.PropMunicipality] = mun
	return f
}

var (
	newarkBound = orb.Bound{Min: orb.Point{-74.25, 40.67}, Max: orb.Point{-74.11, 40.79}}
	camdenBound = orb.Bound{Min: orb.Point{-75.14, 39.89}, Max: orb.Point{-75.06, 39.97}}
)

// newRenderer создает headless рендерер со всеми слоями сессии
func newRenderer(sched eventloop.Scheduler, assets map[domain.Year]*geojson.FeatureCollection) *headless.Renderer {
	r := headless.New(sched, headless.DefaultOptions(), zap.NewNop())
	for _, y := range domain.ScenarioYears {
		_ = r.AddSource(domain.FloodplainSourceID(y), nil)
		_ = r.AddLayer(domain.LayerSpec{ID: domain.FloodplainLayerID(y), Source: domain.FloodplainSourceID(y), Type: domain.LayerTypeFill})
	}
	_ = r.AddSource(domain.BoundarySourceID, nil)
	_ = r.AddLayer(domain.LayerSpec{ID: domain.BoundaryLayerID, Source: domain.BoundarySourceID, Type: domain.LayerTypeLine})
	for _, y := range domain.ScenarioYears {
		_ = r.AddSource(domain.AssetSourceID(y), assets[y])
		_ = r.AddLayer(domain.LayerSpec{ID: domain.AssetLayerID(y), Source: domain.AssetSourceID(y), Type: domain.LayerTypeCircle})
	}
	return r
}

// fakeAssetRepository отдает коллекции из памяти
type fakeAssetRepository struct {
	assets      map[domain.Year]*geojson.FeatureCollection
	floodplains map[domain.Year]*geojson.FeatureCollection
	floodErr    error
}

func (r *fakeAssetRepository) LoadAssets(_ context.Context, year domain.Year) (*geojson.FeatureCollection, error) {
	if fc, ok := r.assets[year]; ok {
		return fc, nil
	}
	return geojson.NewFeatureCollection(), nil
}

func (r *fakeAssetRepository) LoadFloodplain(_ context.Context, year domain.Year) (*geojson.FeatureCollection, error) {
	if r.floodErr != nil {
		return nil, r.floodErr
	}
	if fc, ok := r.floodplains[year]; ok {
		return fc, nil
	}
	return geojson.NewFeatureCollection(), nil
}

type fakeBoundaryRepository struct {
	fc  *geojson.FeatureCollection
	err error
}

func (r *fakeBoundaryRepository) LoadBoundaries(context.Context) (*geojson.FeatureCollection, error) {
	return r.fc, r.err
}

type fakeGroundTruthRepository struct {
	totals domain.GroundTruth
	err    error
	calls  int
}

func (r *fakeGroundTruthRepository) LoadGroundTruth(context.Context) (domain.GroundTruth, error) {
	r.calls++
	return r.totals, r.err
}

// mockCacheRepository - мок CacheRepository
type mockCacheRepository struct {
	mock.Mock
}

func (m *mockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockCacheRepository) GetGroundTruth(ctx context.Context) (domain.GroundTruth, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.GroundTruth), args.Error(1)
}

func (m *mockCacheRepository) SetGroundTruth(ctx context.Context, totals domain.GroundTruth, ttl time.Duration) error {
	args := m.Called(ctx, totals, ttl)
	return args.Error(0)
}

func (m *mockCacheRepository) GetExport(ctx context.Context, id uuid.UUID) (*domain.ExportRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportRecord), args.Error(1)
}

func (m *mockCacheRepository) SetExport(ctx context.Context, record *domain.ExportRecord, ttl time.Duration) error {
	args := m.Called(ctx, record, ttl)
	return args.Error(0)
}

func (m *mockCacheRepository) GetStats(ctx context.Context) (*domain.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

func (m *mockCacheRepository) SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}

// mockStreamRepository - мок StreamRepository
type mockStreamRepository struct {
	mock.Mock
}

func (m *mockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *mockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *mockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *mockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

var (
	_ repository.CacheRepository  = (*mockCacheRepository)(nil)
	_ repository.StreamRepository = (*mockStreamRepository)(nil)
)

// testDataset - Newark и Camden: школы, парк и объект без известной категории
func testDataset() (*fakeAssetRepository, *fakeBoundaryRepository, *fakeGroundTruthRepository) {
	assets := map[domain.Year]*geojson.FeatureCollection{
		domain.Year2025: collection(
			assetFeature("S1", domain.CategorySchool, "NEWARK CITY", "Lincoln School", orb.Point{-74.17, 40.73}),
			assetFeature("P1", domain.CategoryPark, "NEWARK CITY", "Branch Brook Park", orb.Point{-74.18, 40.76}),
			assetFeature("C1", domain.CategorySchool, "CAMDEN CITY", "Cooper School", orb.Point{-75.11, 39.93}),
		),
		domain.Year2050: collection(
			assetFeature("S1", domain.CategorySchool, "NEWARK CITY", "Lincoln School", orb.Point{-74.17, 40.73}),
			assetFeature("S2", domain.CategorySchool, "NEWARK CITY", "Smith, John Library", orb.Point{-74.16, 40.72}),
			assetFeature("P1", domain.CategoryPark, "NEWARK CITY", "Branch Brook Park", orb.Point{-74.18, 40.76}),
			assetFeature("F1", domain.Category("FOO"), "NEWARK CITY", "", orb.Point{-74.15, 40.70}),
			assetFeature("C1", domain.CategorySchool, "CAMDEN CITY", "Cooper School", orb.Point{-75.11, 39.93}),
		),
	}

	truth := make(domain.GroundTruth)
	truth.Set("NEWARK CITY", domain.CategorySchool, domain.GroundTruthTotal{Total: 4})
	truth.Set("NEWARK CITY", domain.CategoryPark, domain.GroundTruthTotal{Total: 2})

	return &fakeAssetRepository{assets: assets},
		&fakeBoundaryRepository{fc: collection(
			boundaryFeature("NEWARK CITY", newarkBound),
			boundaryFeature("CAMDEN CITY", camdenBound),
		)},
		&fakeGroundTruthRepository{totals: truth}
}

func headlessFactory(sched eventloop.Scheduler) repository.RendererState {
	return headless.New(sched, headless.DefaultOptions(), zap.NewNop())
}

func newDatasetUseCase() (*usecase.DatasetUseCase, *fakeGroundTruthRepository) {
	assets, boundaries, truth := testDataset()
	return usecase.NewDatasetUseCase(assets, boundaries, truth, nil, time.Hour, zap.NewNop()), truth
}

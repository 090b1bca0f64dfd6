package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/config"
	"github.com/flood-exposure-viewer/internal/delivery/http/handler"
	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/eventloop"
	"github.com/flood-exposure-viewer/internal/renderer/headless"
	"github.com/flood-exposure-viewer/internal/usecase"
)

type memoryAssets struct {
	assets map[domain.Year]*geojson.FeatureCollection
}

func (r *memoryAssets) LoadAssets(_ context.Context, year domain.Year) (*geojson.FeatureCollection, error) {
	if fc, ok := r.assets[year]; ok {
		return fc, nil
	}
	return geojson.NewFeatureCollection(), nil
}

func (r *memoryAssets) LoadFloodplain(context.Context, domain.Year) (*geojson.FeatureCollection, error) {
	return geojson.NewFeatureCollection(), nil
}

type memoryBoundaries struct{}

func (memoryBoundaries) LoadBoundaries(context.Context) (*geojson.FeatureCollection, error) {
	f := geojson.NewFeature(orb.Bound{Min: orb.Point{-74.25, 40.67}, Max: orb.Point{-74.11, 40.79}}.ToPolygon())
	f.Properties[domain.PropMunicipality] = "NEWARK CITY"
	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc, nil
}

type memoryTotals struct{}

func (memoryTotals) LoadGroundTruth(context.Context) (domain.GroundTruth, error) {
	totals := make(domain.GroundTruth)
	totals.Set("NEWARK CITY", domain.CategorySchool, domain.GroundTruthTotal{Total: 4})
	return totals, nil
}

// memoryCache хранит только записи выгрузок
type memoryCache struct {
	mu      sync.Mutex
	exports map[uuid.UUID]*domain.ExportRecord
}

func newMemoryCache() *memoryCache {
	return &memoryCache{exports: make(map[uuid.UUID]*domain.ExportRecord)}
}

func (c *memoryCache) Get(context.Context, string) ([]byte, error) {
	return nil, nil
}

func (c *memoryCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (c *memoryCache) Delete(context.Context, string) error {
	return nil
}

func (c *memoryCache) Exists(context.Context, string) (bool, error) {
	return false, nil
}

func (c *memoryCache) GetGroundTruth(context.Context) (domain.GroundTruth, error) {
	return nil, nil
}

func (c *memoryCache) GetStats(context.Context) (*domain.Statistics, error) {
	return nil, nil
}

func (c *memoryCache) SetStats(context.Context, *domain.Statistics, time.Duration) error {
	return nil
}

func (c *memoryCache) SetGroundTruth(context.Context, domain.GroundTruth, time.Duration) error {
	return nil
}

func (c *memoryCache) GetExport(_ context.Context, id uuid.UUID) (*domain.ExportRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exports[id], nil
}

func (c *memoryCache) SetExport(_ context.Context, record *domain.ExportRecord, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exports[record.RequestID] = record
	return nil
}

type discardStream struct {
	mu        sync.Mutex
	published []string
}

func (s *discardStream) ConsumeStream(context.Context, string, string, string) (<-chan domain.StreamMessage, error) {
	return make(chan domain.StreamMessage), nil
}

func (s *discardStream) AckMessage(context.Context, string, string, string) error {
	return nil
}

func (s *discardStream) CreateConsumerGroup(context.Context, string, string) error {
	return nil
}

func (s *discardStream) PublishToStream(_ context.Context, stream string, _ interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, stream)
	return nil
}

var (
	_ repository.CacheRepository  = (*memoryCache)(nil)
	_ repository.StreamRepository = (*discardStream)(nil)
)

func asset(id string, c domain.Category, name string, lon, lat float64) *geojson.Feature {
	return domain.AssetFeature{
		UniqueID:     id,
		Category:     c,
		Municipality: "NEWARK CITY",
		Name:         name,
		County:       "ESSEX",
		Lon:          lon,
		Lat:          lat,
	}.ToFeature()
}

type testEnv struct {
	app   *fiber.App
	cache *memoryCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	fc2025 := geojson.NewFeatureCollection()
	fc2025.Append(asset("S1", domain.CategorySchool, "Lincoln School", -74.17, 40.73))
	fc2050 := geojson.NewFeatureCollection()
	fc2050.Append(asset("S1", domain.CategorySchool, "Lincoln School", -74.17, 40.73))
	fc2050.Append(asset("P1", domain.CategoryPark, "Branch Brook Park", -74.18, 40.76))

	dataset := usecase.NewDatasetUseCase(
		&memoryAssets{assets: map[domain.Year]*geojson.FeatureCollection{
			domain.Year2025: fc2025,
			domain.Year2050: fc2050,
		}},
		memoryBoundaries{},
		memoryTotals{},
		nil,
		time.Hour,
		logger,
	)
	ctx := context.Background()
	require.NoError(t, dataset.LoadScenarios(ctx))
	require.NoError(t, dataset.LoadBoundaries(ctx))
	require.NoError(t, dataset.LoadGroundTruth(ctx))

	factory := func(sched eventloop.Scheduler) repository.RendererState {
		return headless.New(sched, headless.DefaultOptions(), logger)
	}
	opts := usecase.SessionOptions{Viewport: usecase.DefaultViewportOptions()}
	sessions := usecase.NewSessionManager(dataset, factory, opts, nil, usecase.SessionManagerConfig{MaxSessions: 10}, logger)
	t.Cleanup(sessions.Close)

	cache := newMemoryCache()
	exportUC := usecase.NewExportUseCase(sessions, &discardStream{}, cache, time.Hour, logger)
	statsUC := usecase.NewStatsUseCase(dataset, nil, time.Minute, logger)

	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 0}}
	server := NewServer(cfg, logger,
		handler.NewSessionHandler(sessions, 2*time.Second, logger),
		handler.NewCatalogHandler(dataset, sessions, "methodology text", nil, logger),
		handler.NewExportHandler(exportUC, logger),
		handler.NewStatsHandler(statsUC, logger),
		nil,
	)

	return &testEnv{app: server.App(), cache: cache}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	status, raw := e.do(t, method, path, body)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return status, env
}

type stateResponse struct {
	ID        string            `json:"id"`
	Selection map[string]any    `json:"selection"`
	Legend    domain.LegendView `json:"legend"`
}

func (e *testEnv) createSession(t *testing.T, body any) stateResponse {
	t.Helper()
	status, env := e.doJSON(t, fiber.MethodPost, "/api/v1/sessions", body)
	require.Equal(t, fiber.StatusCreated, status)

	var state stateResponse
	require.NoError(t, json.Unmarshal(env.Data, &state))
	require.NotEmpty(t, state.ID)
	return state
}

func TestServer_Catalog(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, fiber.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(resp.Data), "SCHOOL")

	status, resp = env.doJSON(t, fiber.MethodGet, "/api/v1/municipalities", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(resp.Data), "NEWARK CITY")

	status, resp = env.doJSON(t, fiber.MethodGet, "/api/v1/methodology", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(resp.Data), "methodology text")

	status, raw := env.do(t, fiber.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"boundaries_loaded":true`)
}

func TestServer_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	created := env.createSession(t, map[string]any{"year": 2025})
	assert.Equal(t, "NEWARK CITY", created.Selection["municipality"])
	assert.Equal(t, 1, created.Legend.Header.ExposedCount)

	base := "/api/v1/sessions/" + created.ID

	status, resp := env.doJSON(t, fiber.MethodPut, base+"/year", map[string]any{"year": 2050})
	require.Equal(t, fiber.StatusOK, status)
	var state stateResponse
	require.NoError(t, json.Unmarshal(resp.Data, &state))
	assert.Equal(t, domain.Year2050, state.Legend.Header.ActiveYear)
	assert.Equal(t, 2, state.Legend.Header.ExposedCount)
	assert.Greater(t, state.Legend.Revision, created.Legend.Revision)

	status, resp = env.doJSON(t, fiber.MethodPost, base+"/categories/park/toggle", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &state))
	assert.Equal(t, []any{"PARK"}, state.Selection["hidden"])

	status, resp = env.doJSON(t, fiber.MethodGet, base+"/legend", nil)
	require.Equal(t, fiber.StatusOK, status)
	var legend domain.LegendView
	require.NoError(t, json.Unmarshal(resp.Data, &legend))
	assert.Equal(t, state.Legend.Revision, legend.Revision)

	status, _ = env.doJSON(t, fiber.MethodGet, base, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = env.do(t, fiber.MethodDelete, base, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, resp = env.doJSON(t, fiber.MethodGet, base, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.Code)
}

func TestServer_InvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	created := env.createSession(t, nil)
	base := "/api/v1/sessions/" + created.ID

	status, resp := env.doJSON(t, fiber.MethodPut, base+"/year", map[string]any{"year": 2030})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)

	status, resp = env.doJSON(t, fiber.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_SESSION_ID", resp.Error.Code)

	status, resp = env.doJSON(t, fiber.MethodGet, base+"/export.csv?years=1999", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_YEAR", resp.Error.Code)

	status, resp = env.doJSON(t, fiber.MethodPost, "/api/v1/sessions", map[string]any{"year": 2040})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestServer_SessionExportCSV(t *testing.T) {
	env := newTestEnv(t)
	created := env.createSession(t, map[string]any{"year": 2050})

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/sessions/"+created.ID+"/export.csv?years=2025,2050", nil)
	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "Newark_City_2025_2050_flood_exposed_assets.csv")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Asset_Name,Asset_Type"))
}

func TestServer_QueuedExport(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, fiber.MethodPost, "/api/v1/exports", map[string]any{
		"municipality": "newark city",
		"years":        []int{2050},
	})
	require.Equal(t, fiber.StatusAccepted, status)

	var queued struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &queued))
	assert.Equal(t, string(domain.ExportStatusPending), queued.Status)

	status, resp = env.doJSON(t, fiber.MethodGet, "/api/v1/exports/"+queued.ID+"/download", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "EXPORT_NOT_READY", resp.Error.Code)

	id := uuid.MustParse(queued.ID)
	require.NoError(t, env.cache.SetExport(context.Background(), &domain.ExportRecord{
		RequestID: id,
		Status:    domain.ExportStatusReady,
		Filename:  "Newark_City_2050_flood_exposed_assets.csv",
		Content:   []byte("Asset_Name\nLincoln School\n"),
		Rows:      1,
	}, time.Hour))

	status, raw := env.do(t, fiber.MethodGet, "/api/v1/exports/"+queued.ID+"/download", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), "Lincoln School")

	status, resp = env.doJSON(t, fiber.MethodGet, "/api/v1/exports/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "EXPORT_NOT_FOUND", resp.Error.Code)
}

func TestServer_Stats(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, fiber.MethodGet, "/api/v1/stats", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(resp.Data), "NEWARK CITY")
}

func TestServer_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, fiber.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

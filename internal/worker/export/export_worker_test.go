package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/worker/export"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// fakeProcessor возвращает заранее заданный результат
type fakeProcessor struct {
	mu     sync.Mutex
	events []domain.ExportRequestEvent
	status domain.ExportStatus
}

func (p *fakeProcessor) Process(_ context.Context, event domain.ExportRequestEvent) domain.ExportDoneEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)

	done := domain.ExportDoneEvent{RequestID: event.RequestID, Status: p.status}
	if p.status == domain.ExportStatusFailed {
		done.Error = "no exposed assets"
	}
	return done
}

func (p *fakeProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type recordingMetrics struct {
	mu      sync.Mutex
	results []error
}

func (m *recordingMetrics) ObserveStreamMessage(_ string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, err)
}

func (m *recordingMetrics) snapshot() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.results...)
}

func requestMessage(t *testing.T, id string, event domain.ExportRequestEvent) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

func TestExportWorker_Name(t *testing.T) {
	w := export.NewExportWorker(&MockStreamRepository{}, &fakeProcessor{}, "test-group", time.Second, nil, zap.NewNop())
	assert.Equal(t, "csv-export", w.Name())
	assert.Equal(t, "test-group", w.ConsumerGroup())
}

func TestExportWorker_Stop(t *testing.T) {
	w := export.NewExportWorker(&MockStreamRepository{}, &fakeProcessor{}, "test-group", time.Second, nil, zap.NewNop())

	// Stop should not error even if not started
	assert.NoError(t, w.Stop())
	// Calling stop multiple times should be safe
	assert.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
}

func TestExportWorker_ConsumerGroupError(t *testing.T) {
	mockStream := &MockStreamRepository{}
	mockStream.On("CreateConsumerGroup", mock.Anything, domain.StreamExportRequest, "test-group").
		Return(errors.New("redis down"))

	w := export.NewExportWorker(mockStream, &fakeProcessor{}, "test-group", time.Second, nil, zap.NewNop())

	err := w.Start(context.Background())
	assert.Error(t, err)
	mockStream.AssertNotCalled(t, "ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExportWorker_ProcessesMessages(t *testing.T) {
	requestID := uuid.New()
	messages := make(chan domain.StreamMessage, 2)
	messages <- requestMessage(t, "1-0", domain.ExportRequestEvent{
		RequestID:    requestID,
		Municipality: "NEWARK CITY",
		Years:        []domain.Year{domain.Year2025},
	})
	messages <- domain.StreamMessage{ID: "2-0", Data: "{broken"}

	acked := make(chan string, 2)

	mockStream := &MockStreamRepository{}
	mockStream.On("CreateConsumerGroup", mock.Anything, domain.StreamExportRequest, "test-group").Return(nil)
	mockStream.On("ConsumeStream", mock.Anything, domain.StreamExportRequest, "test-group", mock.Anything).
		Return((<-chan domain.StreamMessage)(messages), nil)
	mockStream.On("PublishToStream", mock.Anything, domain.StreamExportDone, mock.MatchedBy(func(e domain.ExportDoneEvent) bool {
		return e.RequestID == requestID && e.Status == domain.ExportStatusReady
	})).Return(nil).Once()
	mockStream.On("AckMessage", mock.Anything, domain.StreamExportRequest, "test-group", mock.Anything).
		Run(func(args mock.Arguments) { acked <- args.String(3) }).
		Return(nil)

	processor := &fakeProcessor{status: domain.ExportStatusReady}
	metrics := &recordingMetrics{}
	w := export.NewExportWorker(mockStream, processor, "test-group", time.Second, metrics, zap.NewNop())

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(context.Background()) }()

	got := []string{waitAck(t, acked), waitAck(t, acked)}
	assert.ElementsMatch(t, []string{"1-0", "2-0"}, got)

	require.NoError(t, w.Stop())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.Equal(t, 1, processor.count())
	mockStream.AssertExpectations(t)

	results := metrics.snapshot()
	require.Len(t, results, 2)
	assert.NoError(t, results[0])
	assert.Error(t, results[1])
}

func TestExportWorker_FailedExportIsAcked(t *testing.T) {
	messages := make(chan domain.StreamMessage, 1)
	messages <- requestMessage(t, "5-0", domain.ExportRequestEvent{
		RequestID:    uuid.New(),
		Municipality: "CAMDEN CITY",
	})

	acked := make(chan string, 1)

	mockStream := &MockStreamRepository{}
	mockStream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockStream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return((<-chan domain.StreamMessage)(messages), nil)
	mockStream.On("PublishToStream", mock.Anything, domain.StreamExportDone, mock.Anything).
		Return(errors.New("publish failed"))
	mockStream.On("AckMessage", mock.Anything, mock.Anything, mock.Anything, "5-0").
		Run(func(args mock.Arguments) { acked <- args.String(3) }).
		Return(nil)

	metrics := &recordingMetrics{}
	w := export.NewExportWorker(mockStream, &fakeProcessor{status: domain.ExportStatusFailed}, "g", time.Second, metrics, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	assert.Equal(t, "5-0", waitAck(t, acked))

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}

	results := metrics.snapshot()
	require.Len(t, results, 1)
	assert.Error(t, results[0])
}

func waitAck(t *testing.T, acked <-chan string) string {
	t.Helper()
	select {
	case id := <-acked:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("message was not acknowledged")
		return ""
	}
}

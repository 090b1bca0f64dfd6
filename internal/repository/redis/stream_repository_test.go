package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	redisRepo "github.com/flood-exposure-viewer/internal/repository/redis"
)

const (
	testRequestStream = "test:stream:export:request"
	testDoneStream    = "test:stream:export:done"
)

// getTestRedisClient creates a Redis client for testing
func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use DB 1 for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}

	client.Del(ctx, testRequestStream, testDoneStream)
	t.Cleanup(func() {
		client.Del(context.Background(), testRequestStream, testDoneStream)
		client.Close()
	})

	return client
}

func newRepo(client *redis.Client) repository.StreamRepository {
	return redisRepo.NewStreamRepository(client, 200*time.Millisecond, zap.NewNop())
}

func TestStreamRepository_CreateConsumerGroup(t *testing.T) {
	client := getTestRedisClient(t)
	repo := newRepo(client)
	ctx := context.Background()

	err := repo.CreateConsumerGroup(ctx, testRequestStream, "test-group")
	require.NoError(t, err)

	groups, err := client.XInfoGroups(ctx, testRequestStream).Result()
	require.NoError(t, err)
	assert.Len(t, groups, 1)
	assert.Equal(t, "test-group", groups[0].Name)

	// BUSYGROUP игнорируется
	assert.NoError(t, repo.CreateConsumerGroup(ctx, testRequestStream, "test-group"))
}

func TestStreamRepository_PublishToStream(t *testing.T) {
	client := getTestRedisClient(t)
	repo := newRepo(client)
	ctx := context.Background()

	event := domain.ExportDoneEvent{
		RequestID: uuid.New(),
		Status:    domain.ExportStatusReady,
		Filename:  "Newark_2025_flood_exposed_assets.csv",
		Rows:      12,
	}

	require.NoError(t, repo.PublishToStream(ctx, testDoneStream, event))

	messages, err := client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{testDoneStream, "0"},
		Count:   1,
	}).Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Len(t, messages[0].Messages, 1)

	dataStr, ok := messages[0].Messages[0].Values["data"].(string)
	require.True(t, ok)

	var received domain.ExportDoneEvent
	require.NoError(t, json.Unmarshal([]byte(dataStr), &received))
	assert.Equal(t, event, received)
}

func TestStreamRepository_ConsumeStream(t *testing.T) {
	client := getTestRedisClient(t)
	repo := newRepo(client)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testRequestStream, "test-consumer-group"))

	event := domain.ExportRequestEvent{
		RequestID:    uuid.New(),
		Municipality: "NEWARK CITY",
		Years:        []domain.Year{domain.Year2025, domain.Year2050},
	}
	require.NoError(t, repo.PublishToStream(ctx, testRequestStream, event))

	msgChan, err := repo.ConsumeStream(ctx, testRequestStream, "test-consumer-group", "test-consumer")
	require.NoError(t, err)

	select {
	case msg := <-msgChan:
		assert.NotEmpty(t, msg.ID)

		var received domain.ExportRequestEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Data), &received))
		assert.Equal(t, event.RequestID, received.RequestID)
		assert.True(t, received.HasYear(domain.Year2050))
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for message")
	}
}

func TestStreamRepository_ConsumeStream_RedeliversPending(t *testing.T) {
	client := getTestRedisClient(t)
	repo := newRepo(client)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	group := "test-pending-group"
	require.NoError(t, repo.CreateConsumerGroup(ctx, testRequestStream, group))
	require.NoError(t, repo.PublishToStream(ctx, testRequestStream, domain.ExportRequestEvent{RequestID: uuid.New()}))

	// Сообщение прочитано, но не подтверждено
	_, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: "test-consumer",
		Streams:  []string{testRequestStream, ">"},
		Count:    1,
	}).Result()
	require.NoError(t, err)

	msgChan, err := repo.ConsumeStream(ctx, testRequestStream, group, "test-consumer")
	require.NoError(t, err)

	select {
	case msg := <-msgChan:
		require.NoError(t, repo.AckMessage(ctx, testRequestStream, group, msg.ID))
	case <-time.After(3 * time.Second):
		t.Fatal("Pending message was not redelivered")
	}

	pending, err := client.XPending(ctx, testRequestStream, group).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestStreamRepository_ConsumeStream_ContextCancellation(t *testing.T) {
	client := getTestRedisClient(t)
	repo := newRepo(client)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, repo.CreateConsumerGroup(ctx, testRequestStream, "test-cancel-group"))

	msgChan, err := repo.ConsumeStream(ctx, testRequestStream, "test-cancel-group", "test-consumer")
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	select {
	case _, ok := <-msgChan:
		assert.False(t, ok, "Channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for channel to close")
	}
}

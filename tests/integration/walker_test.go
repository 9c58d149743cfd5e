package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/halvgaard/enrich-batch-client/internal/testutil"
	"github.com/halvgaard/enrich-batch-client/pkg/checkpoint"
	"github.com/halvgaard/enrich-batch-client/pkg/client"
	"github.com/halvgaard/enrich-batch-client/pkg/cursor"
	"github.com/halvgaard/enrich-batch-client/pkg/walker"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// TestRedisCheckpointedWalk runs the full flow with a Redis checkpoint:
// walk, abort mid-way, resume from the Redis cursor, complete, verify the
// checkpoint key is gone.
func TestRedisCheckpointedWalk(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockEnrich()
	defer mock.Close()

	// Two pages, then the second page's key has nothing scripted, so
	// the first run dies there.
	mock.SetPage("", `{"matches":["a"],"next_after_key":{"name":"Jane Doe","birth":"1900"}}`)
	mock.SetPage("Jane Doe", `{"matches":["b"],"next_after_key":{"name":"John Roe","birth":"1912"}}`)

	store, err := checkpoint.NewRedisStore(redisClient, "integration:checkpoint")
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}

	cfg := client.DefaultConfig(mock.URL())
	cfg.Limit = 2
	enrichClient, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	// Tighten the HTTP client: the mock answers locally, so a page
	// taking longer than this means the test is wedged.
	enrichClient.SetHTTPClient(&http.Client{
		Timeout: 5 * time.Second,
	})

	w, err := walker.New(enrichClient, store, walker.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create walker: %v", err)
	}

	ctx := context.Background()

	t.Log("Run 1: aborts on the third page")
	if _, err := w.Run(ctx); err == nil {
		t.Fatal("Expected first run to abort")
	}

	// The Redis checkpoint holds the last confirmed key
	cur, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("Expected a checkpoint after the aborted run")
	}
	want := cursor.Cursor{Name: "John Roe", Birth: "1912"}
	if cur != want {
		t.Errorf("Checkpoint = %+v, want %+v", cur, want)
	}

	t.Log("Run 2: resumes and completes")
	mock.SetPage("John Roe", `{"matches":["c"],"next_after_key":{}}`)

	result, err := w.Run(ctx)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if !result.Resumed {
		t.Error("Second run should have resumed")
	}
	if result.Pages != 1 {
		t.Errorf("Second run pages = %d, want 1", result.Pages)
	}

	// The resumed request carried the Redis cursor
	last := mock.LastQuery()
	if last.Get("start_after_name") != "John Roe" || last.Get("start_after_birth") != "1912" {
		t.Errorf("Resumed request params = %v, want the Redis checkpoint cursor", last)
	}

	// Completion removed the checkpoint
	if _, found, err = store.Load(ctx); err != nil {
		t.Fatalf("Load after completion failed: %v", err)
	} else if found {
		t.Error("Expected the Redis checkpoint to be gone after completion")
	}
}

package main

import (
	"context"
	"testing"

	"github.com/halvgaard/enrich-batch-client/pkg/checkpoint"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("ENRICH_TEST_KEY", "value")

	if got := getEnv("ENRICH_TEST_KEY", "default"); got != "value" {
		t.Errorf("getEnv = %q, want %q", got, "value")
	}
	if got := getEnv("ENRICH_TEST_MISSING", "default"); got != "default" {
		t.Errorf("getEnv = %q, want %q", got, "default")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("ENRICH_TEST_LIMIT", "25")

	if got := getEnvInt("ENRICH_TEST_LIMIT", 100); got != 25 {
		t.Errorf("getEnvInt = %d, want 25", got)
	}
	if got := getEnvInt("ENRICH_TEST_MISSING", 100); got != 100 {
		t.Errorf("getEnvInt = %d, want 100", got)
	}
}

func TestBuildStore_File(t *testing.T) {
	store, err := buildStore(context.Background(), t.TempDir()+"/resume.json", "")
	if err != nil {
		t.Fatalf("buildStore failed: %v", err)
	}

	if _, ok := store.(*checkpoint.FileStore); !ok {
		t.Errorf("Expected *checkpoint.FileStore, got %T", store)
	}
}

func TestBuildStore_RedisUnreachable(t *testing.T) {
	// Port 1 is never a Redis server
	if _, err := buildStore(context.Background(), "unused.json", "localhost:1"); err == nil {
		t.Error("Expected error for unreachable Redis")
	}
}

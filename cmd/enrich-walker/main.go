package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/halvgaard/enrich-batch-client/pkg/checkpoint"
	"github.com/halvgaard/enrich-batch-client/pkg/client"
	"github.com/halvgaard/enrich-batch-client/pkg/logging"
	"github.com/halvgaard/enrich-batch-client/pkg/walker"
)

func main() {
	// Configuration from environment
	baseURL := os.Getenv("ENRICH_BASE_URL")
	limit := getEnvInt("ENRICH_LIMIT", 100)
	resumeFile := getEnv("RESUME_FILE", "enrich-resume.json")
	redisURL := os.Getenv("REDIS_URL")
	userAgent := getEnv("USER_AGENT", "enrich-batch-client/0.1.0")

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	if baseURL == "" {
		log.Fatal().Msg("ENRICH_BASE_URL is required")
	}

	ctx := context.Background()

	store, err := buildStore(ctx, resumeFile, redisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create checkpoint store")
	}

	cfg := client.DefaultConfig(baseURL)
	cfg.Limit = limit
	cfg.UserAgent = userAgent

	enrichClient, err := client.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create enrichment client")
	}

	walkCfg := walker.DefaultConfig()
	walkCfg.PageHandler = func(pageNum int, body []byte) {
		// Pages go to stdout, logs to stderr
		fmt.Println(string(body))
	}

	w, err := walker.New(enrichClient, store, walkCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create walker")
	}

	result, err := w.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Walk failed, checkpoint preserved for resume")
	}

	log.Info().
		Int("pages", result.Pages).
		Bool("resumed", result.Resumed).
		Dur("duration", result.Duration).
		Msg("Done")
}

// buildStore picks the checkpoint backend: Redis when REDIS_URL is set,
// otherwise the resume file.
func buildStore(ctx context.Context, resumeFile, redisURL string) (checkpoint.Store, error) {
	if redisURL == "" {
		return checkpoint.NewFileStore(resumeFile)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", redisURL, err)
	}
	log.Info().Str("addr", redisURL).Msg("Using Redis checkpoint store")

	return checkpoint.NewRedisStore(redisClient, getEnv("REDIS_CHECKPOINT_KEY", checkpoint.DefaultRedisKey))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", value).Msg("Invalid integer in environment")
	}
	return n
}

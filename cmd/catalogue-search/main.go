package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/halvgaard/enrich-batch-client/pkg/catalogue"
	"github.com/halvgaard/enrich-batch-client/pkg/logging"
)

func main() {
	// Configuration from environment
	elasticURL := os.Getenv("ELASTIC_URL")
	elasticIndex := os.Getenv("ELASTIC_INDEX")

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	if elasticURL == "" {
		log.Fatal().Msg("ELASTIC_URL is required")
	}
	if elasticIndex == "" {
		log.Fatal().Msg("ELASTIC_INDEX is required")
	}

	searchClient, err := catalogue.New(catalogue.DefaultConfig(elasticURL, elasticIndex))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalogue client")
	}

	query := catalogue.Query{
		SemanticQuery: os.Getenv("SEMANTIC_QUERY"),
		Keywords:      os.Getenv("KEYWORDS"),
		Language:      os.Getenv("LANGUAGE_FILTER"),
		PubDateFrom:   os.Getenv("PUB_DATE_FROM"),
		PubDateTo:     os.Getenv("PUB_DATE_TO"),
		Format:        os.Getenv("FORMAT_FILTER"),
	}

	results, err := searchClient.Search(context.Background(), query)
	if err != nil {
		log.Fatal().Err(err).Msg("Catalogue search failed")
	}

	// Results to stdout, logs to stderr
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"results": results}); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode results")
	}

	log.Info().Int("results", len(results)).Msg("Done")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

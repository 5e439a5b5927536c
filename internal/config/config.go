package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Addr             string
	MongoURI         string
	MongoDBName      string
	CORSOrigin       string
	WikiHostPattern  string
	WikiUserAgent    string
	WikiTimeout      time.Duration
	RabbitURI        string
	RabbitExchange   string
	RabbitRoutingKey string
}

const (
	Addr                = "ADDR"
	MongoURI            = "MONGO_URI"
	MongoDBName         = "MONGO_DB_NAME"
	CORSOrigin          = "CORS_ORIGIN"
	WikiHostPattern     = "WIKI_HOST_PATTERN"
	WikiUserAgent       = "WIKI_USER_AGENT"
	WikiTimeout         = "WIKI_TIMEOUT"
	RabbitURIEnv        = "RABBIT_URI"
	RabbitExchangeEnv   = "RABBIT_EXCHANGE"
	RabbitRoutingKeyEnv = "RABBIT_ROUTING_KEY"
)

func FromEnv() (Config, error) {
	var cfg Config

	cfg.Addr = getEnv(Addr, ":8080")
	cfg.MongoURI = getEnv(MongoURI, "mongodb://localhost:27017")
	cfg.MongoDBName = getEnv(MongoDBName, "erasdb")
	cfg.CORSOrigin = getEnv(CORSOrigin, "https://eratracker.com")
	cfg.WikiHostPattern = getEnv(WikiHostPattern, "https://%s.wikipedia.org")
	cfg.WikiUserAgent = getEnv(WikiUserAgent, "ErasTracker/1.0 (contact@erastracker.com)")
	// RabbitURI is optional; publishing is skipped when it is unset.
	cfg.RabbitURI = getEnv(RabbitURIEnv, "")
	cfg.RabbitExchange = getEnv(RabbitExchangeEnv, "events.sync")
	cfg.RabbitRoutingKey = getEnv(RabbitRoutingKeyEnv, "event.updated")

	var err error
	timeoutStr := getEnv(WikiTimeout, "10s")
	if cfg.WikiTimeout, err = time.ParseDuration(timeoutStr); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", WikiTimeout, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

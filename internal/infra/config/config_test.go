package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Fatalf("env = %q", cfg.Env)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.StoreBackend != "memory" {
		t.Fatalf("backend = %q", cfg.StoreBackend)
	}
	if cfg.ChatArchive != "off" {
		t.Fatalf("archive = %q", cfg.ChatArchive)
	}
	if cfg.OutboxPollInterval != 500*time.Millisecond {
		t.Fatalf("poll = %v", cfg.OutboxPollInterval)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("ttl = %v", cfg.SessionTTL)
	}
	want := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}
	if len(cfg.RetryBackoff) != len(want) {
		t.Fatalf("backoff = %v", cfg.RetryBackoff)
	}
	for i, d := range want {
		if cfg.RetryBackoff[i] != d {
			t.Fatalf("backoff[%d] = %v, want %v", i, cfg.RetryBackoff[i], d)
		}
	}
	// public endpoint falls back to the internal one
	if cfg.S3PublicEndpoint != cfg.S3Endpoint {
		t.Fatalf("public endpoint = %q, internal = %q", cfg.S3PublicEndpoint, cfg.S3Endpoint)
	}
}

func TestLoadMongoBackendRequiresURI(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without MONGO_URI")
	}

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != "mongo" || cfg.MongoDB != "aqari" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadScyllaArchiveRequiresHosts(t *testing.T) {
	t.Setenv("CHAT_ARCHIVE", "scylla")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without SCYLLA_HOSTS")
	}

	t.Setenv("SCYLLA_HOSTS", "scylla1:9042, scylla2:9042 ,")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.ScyllaHosts) != 2 || cfg.ScyllaHosts[0] != "scylla1:9042" || cfg.ScyllaHosts[1] != "scylla2:9042" {
		t.Fatalf("hosts = %v", cfg.ScyllaHosts)
	}
	if cfg.ScyllaKeyspace != "aqari_chat" {
		t.Fatalf("keyspace = %q", cfg.ScyllaKeyspace)
	}
}

func TestLoadKafkaBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")
	t.Setenv("KAFKA_TOPIC_PREFIX", "staging.")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopicPrefix != "staging." {
		t.Fatalf("prefix = %q", cfg.KafkaTopicPrefix)
	}
}

func TestLoadRetryBackoffParsing(t *testing.T) {
	t.Setenv("RETRY_BACKOFF", "250ms, 2s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.RetryBackoff) != 2 || cfg.RetryBackoff[0] != 250*time.Millisecond || cfg.RetryBackoff[1] != 2*time.Second {
		t.Fatalf("backoff = %v", cfg.RetryBackoff)
	}

	t.Setenv("RETRY_BACKOFF", "1s,banana")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed backoff component")
	}
}

func TestLoadDurationAndBoolValidation(t *testing.T) {
	t.Setenv("OUTBOX_POLL_INTERVAL", "2s")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("S3_USE_SSL", "yes")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OutboxPollInterval != 2*time.Second || cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("durations = %v / %v", cfg.OutboxPollInterval, cfg.SessionTTL)
	}
	if !cfg.S3UseSSL {
		t.Fatal("S3_USE_SSL not parsed")
	}

	t.Setenv("S3_USE_SSL", "maybe")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed boolean")
	}

	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("SESSION_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadExplicitPublicEndpoint(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("S3_PUBLIC_ENDPOINT", "https://cdn.example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.S3PublicEndpoint != "https://cdn.example.com" {
		t.Fatalf("public endpoint = %q", cfg.S3PublicEndpoint)
	}
}

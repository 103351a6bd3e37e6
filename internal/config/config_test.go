package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:          HTTPConfig{Port: 8080},
		MongoDB:       MongoConfig{URI: "mongodb://localhost:27017"},
		Elasticsearch: ElasticsearchConfig{Addresses: []string{"http://localhost:9200"}},
		Search:        SearchConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingMongoURI(t *testing.T) {
	cfg := validConfig()
	cfg.MongoDB.URI = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing mongodb uri")
	}
}

func TestValidate_MissingElasticsearchAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Elasticsearch.Addresses = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing elasticsearch addresses")
	}
}

func TestValidate_PageSizeOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultPageSize = 200
	cfg.Search.MaxPageSize = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max page size below default")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		HTTP:          HTTPConfig{Port: 8080},
		MongoDB:       MongoConfig{URI: "mongodb://localhost:27017"},
		Elasticsearch: ElasticsearchConfig{Addresses: []string{"http://localhost:9200"}},
	}
	cfg.ApplyDefaults()

	if cfg.MongoDB.Database != "dealdex" {
		t.Errorf("database default = %q", cfg.MongoDB.Database)
	}
	if cfg.Elasticsearch.Index != "deals" {
		t.Errorf("index default = %q", cfg.Elasticsearch.Index)
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 100 {
		t.Errorf("page size defaults = %+v", cfg.Search)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("shutdown default = %d", cfg.HTTP.ShutdownSec)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DEALDEX_TEST_SECRET", "s3cret")

	out := string(expandEnvVars([]byte("secret: ${DEALDEX_TEST_SECRET}\nhost: ${DEALDEX_TEST_MISSING:-localhost}\n")))
	want := "secret: s3cret\nhost: localhost\n"
	if out != want {
		t.Errorf("expanded = %q, want %q", out, want)
	}
}

// Package config loads the retrieval-indexer's HCL configuration file
// and layers environment-variable overrides over it, following the
// `hclsimple.DecodeFile` plus env-var-then-config-then-default pattern
// used throughout this codebase's workers.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the top-level HCL document for cmd/retrieval-indexer.
type Config struct {
	Root       string            `hcl:"root,optional"`        // on-disk persistence root
	Embedding  *EmbeddingConfig  `hcl:"embedding,block"`
	ClusterBus *ClusterBusConfig `hcl:"cluster_bus,block"`
	Indexing   *IndexingConfig   `hcl:"indexing,block"`
	Tenants    []TenantConfig    `hcl:"tenant,block"`
}

// EmbeddingConfig selects and configures the Embedder implementation.
type EmbeddingConfig struct {
	Provider      string `hcl:"provider,optional"` // "bedrock", "ollama", "mock"
	BedrockRegion string `hcl:"bedrock_region,optional"`
	BedrockModel  string `hcl:"bedrock_model,optional"`
	OllamaURL     string `hcl:"ollama_url,optional"`
	OllamaModel   string `hcl:"ollama_model,optional"`
}

// ClusterBusConfig selects and configures the ClusterBus/Bus transport.
type ClusterBusConfig struct {
	Provider       string        `hcl:"provider,optional"` // "inmem", "redpanda"
	Brokers        []string      `hcl:"brokers,optional"`
	ClientID       string        `hcl:"client_id,optional"`
	GroupID        string        `hcl:"group_id,optional"`
	ClusterTimeout time.Duration `hcl:"cluster_timeout,optional"`
}

// IndexingConfig holds the chunking parameters handed to the vector
// engine's Ingest call.
type IndexingConfig struct {
	ChunkSize  int      `hcl:"chunk_size,optional"`
	Separators []string `hcl:"separators,optional"`
	Overlap    int      `hcl:"overlap,optional"`
}

// TenantConfig declares one tenant shard the coordinator should register
// at startup, with the drive root it watches.
type TenantConfig struct {
	UserID    string `hcl:"user_id,label"`
	Org       string `hcl:"org"`
	AppID     string `hcl:"app_id"`
	DriveRoot string `hcl:"drive_root"`
}

// Load reads and decodes the HCL file at path, then applies defaults and
// environment-variable overrides for the fields operators commonly pin
// per-deployment (persistence root, embedding provider, broker list,
// consumer group). The cluster timeout has no environment override.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = "./data"
	}
	if cfg.Embedding == nil {
		cfg.Embedding = &EmbeddingConfig{Provider: "mock"}
	}
	if cfg.ClusterBus == nil {
		cfg.ClusterBus = &ClusterBusConfig{Provider: "inmem"}
	}
	if cfg.ClusterBus.ClusterTimeout == 0 {
		cfg.ClusterBus.ClusterTimeout = 5 * time.Second
	}
	if cfg.Indexing == nil {
		cfg.Indexing = &IndexingConfig{}
	}
	if cfg.Indexing.ChunkSize == 0 {
		cfg.Indexing.ChunkSize = 1000
	}
	if len(cfg.Indexing.Separators) == 0 {
		cfg.Indexing.Separators = []string{"\n\n", "\n", ". ", " "}
	}
	if cfg.Indexing.Overlap == 0 {
		cfg.Indexing.Overlap = 100
	}
}

func applyEnvOverrides(cfg *Config) {
	if root := os.Getenv("RETRIEVAL_ROOT"); root != "" {
		cfg.Root = root
	}
	if provider := os.Getenv("RETRIEVAL_EMBEDDING_PROVIDER"); provider != "" {
		cfg.Embedding.Provider = provider
	}
	if brokers := os.Getenv("REDPANDA_BROKERS"); brokers != "" {
		cfg.ClusterBus.Brokers = []string{brokers}
	}
	if group := os.Getenv("RETRIEVAL_CONSUMER_GROUP"); group != "" {
		cfg.ClusterBus.GroupID = group
	}
}

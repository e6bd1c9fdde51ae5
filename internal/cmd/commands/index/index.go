// Package index implements the "index" subcommand: a one-shot walk of
// every configured tenant's drive root, applying a synthetic
// FILE_CREATED event per file to the coordinator, then persisting both
// engines for each tenant.
package index

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/jrepp/retrieval-core/internal/cmd/base"
	"github.com/jrepp/retrieval-core/internal/config"
	"github.com/jrepp/retrieval-core/pkg/drive/localfs"
	"github.com/jrepp/retrieval-core/pkg/embedding/bedrock"
	"github.com/jrepp/retrieval-core/pkg/embedding/mock"
	"github.com/jrepp/retrieval-core/pkg/embedding/ollama"
	"github.com/jrepp/retrieval-core/pkg/retrieval/clusterbus"
	"github.com/jrepp/retrieval-core/pkg/retrieval/clusterbus/inmem"
	"github.com/jrepp/retrieval-core/pkg/retrieval/clusterbus/redpanda"
	"github.com/jrepp/retrieval-core/pkg/retrieval/coordinator"
	"github.com/jrepp/retrieval-core/pkg/retrieval/persistence"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
	"github.com/jrepp/retrieval-core/pkg/retrieval/vectorindex"
)

type Command struct {
	*base.Command

	flagConfigPath string
}

func (c *Command) Synopsis() string {
	return "Walk each configured tenant's drive root and rebuild its indexes"
}

func (c *Command) Help() string {
	return `Usage: retrieval-indexer index [options]

This command loads the configured tenants, indexes every file under each
tenant's drive root, and persists the resulting TF-IDF and vector
indexes to disk.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("index", flag.ExitOnError))
	f.StringVar(
		&c.flagConfigPath, "config", "config.hcl",
		"[RETRIEVAL_CONFIG] Path to HCL configuration file",
	)
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	// RETRIEVAL_CONFIG applies unless -config was given explicitly.
	configSet := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "config" {
			configSet = true
		}
	})
	if env := os.Getenv("RETRIEVAL_CONFIG"); env != "" && !configSet {
		c.flagConfigPath = env
	}

	cfg, err := config.Load(c.flagConfigPath)
	if err != nil {
		c.UI.Error(fmt.Sprintf("failed to load config: %v", err))
		return 1
	}

	if err := c.run(context.Background(), cfg); err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	return 0
}

func (c *Command) run(ctx context.Context, cfg *config.Config) error {
	embedder, err := buildEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}

	bus, err := buildBus(cfg.ClusterBus, c.Log)
	if err != nil {
		return fmt.Errorf("building cluster bus: %w", err)
	}

	osFs := afero.NewOsFs()
	// GetReadStream/WriteFile operate on the absolute paths already
	// resolved per tenant below, so one rootless Drive instance suffices
	// for every tenant the coordinator serves.
	coord := coordinator.New(
		localfs.New(""),
		embedder,
		coordinator.IndexingConfig{
			ChunkSize:  cfg.Indexing.ChunkSize,
			Separators: cfg.Indexing.Separators,
			Overlap:    cfg.Indexing.Overlap,
		},
		coordinator.WithLogger(c.Log),
		coordinator.WithProgressSink(clusterbus.NewProgressSink(bus)),
	)

	tok := tokenizer.New()
	tfidfCfg := tfidx.DefaultConfig()

	for _, tc := range cfg.Tenants {
		key := tenant.Key{UserID: tc.UserID, Org: tc.Org, AppID: tc.AppID}
		tenantKey := key.String()

		index, err := persistence.Load(osFs, cfg.Root, key, tfidfCfg, tok)
		if err != nil {
			return fmt.Errorf("loading tenant %s: %w", tenantKey, err)
		}
		coord.Register(tenantKey, index)

		drv := localfs.New(tc.DriveRoot)
		if err := indexTenant(ctx, coord, drv, tenantKey, tc.DriveRoot); err != nil {
			return fmt.Errorf("indexing tenant %s: %w", tenantKey, err)
		}

		if err := persistence.Save(osFs, cfg.Root, key, index); err != nil {
			return fmt.Errorf("saving tenant %s: %w", tenantKey, err)
		}
		c.UI.Info(fmt.Sprintf("indexed tenant %s from %s", tenantKey, tc.DriveRoot))
	}

	return nil
}

// indexTenant walks driveRoot and applies a FILE_CREATED event per
// regular file found, translating the walked path into a CMS-relative
// path via the same Drive the coordinator would use at runtime.
func indexTenant(ctx context.Context, coord *coordinator.Coordinator, drv *localfs.Drive, tenantKey, driveRoot string) error {
	return filepath.WalkDir(driveRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := drv.GetRootRelative(ctx, path)
		if err != nil {
			return err
		}
		return coord.Handle(ctx, coordinator.FileEvent{
			Type:      coordinator.FileCreated,
			TenantKey: tenantKey,
			CMSPath:   rel,
			FullPath:  path,
			DocID:     rel,
		})
	})
}

func buildEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (vectorindex.Embedder, error) {
	switch cfg.Provider {
	case "bedrock":
		return bedrock.New(ctx, bedrock.Config{
			Region: cfg.BedrockRegion,
			Model:  cfg.BedrockModel,
		})
	case "ollama":
		return ollama.New(ollama.Config{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
		}), nil
	case "mock", "":
		return mock.New(64), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

func buildBus(cfg *config.ClusterBusConfig, logger hclog.Logger) (clusterbus.Bus, error) {
	switch cfg.Provider {
	case "redpanda":
		return redpanda.New(redpanda.Config{
			Brokers:  cfg.Brokers,
			ClientID: cfg.ClientID,
			GroupID:  cfg.GroupID,
		}, logger)
	case "inmem", "":
		return inmem.New(), nil
	default:
		return nil, fmt.Errorf("unsupported cluster bus provider: %s", cfg.Provider)
	}
}

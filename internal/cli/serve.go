package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accviz/accviz/internal/server"
	"github.com/accviz/accviz/pkg/archive"
	"github.com/accviz/accviz/pkg/config"
	"github.com/accviz/accviz/pkg/pipeline"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

The server exposes the pipeline at POST /api/v1/diagrams and archives
every run. Cache and archive backends come from the config file: with
cache.redis set results are cached in Redis instead of on disk, and with
server.mongo_uri set runs are archived in MongoDB instead of in memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	cch, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(cch, nil, c.Logger)
	defer runner.Close()

	store, err := serverStore(ctx, cfg.Server)
	if err != nil {
		return fmt.Errorf("initialize archive: %w", err)
	}
	defer store.Close(context.Background())

	return server.New(runner, store, c.Logger).Serve(ctx, addr)
}

// serverStore picks the archive backend from config.
func serverStore(ctx context.Context, cfg config.ServerConfig) (archive.Store, error) {
	if cfg.MongoURI == "" {
		return archive.NewMemoryStore(), nil
	}
	return archive.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/pflag"

	"github.com/chative-router/server/internal/app"
	"github.com/chative-router/server/internal/config"
	"github.com/chative-router/server/internal/pipeline/ingest"
	logx "github.com/chative-router/server/pkg/logger"
)

func main() {
	var (
		envFile      = pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
		files        = pflag.StringSlice("file", nil, "text file to ingest (repeatable)")
		urls         = pflag.StringSlice("url", nil, "web page to ingest (repeatable)")
		selector     = pflag.String("selector", "body", "CSS selector whose text is kept from web pages")
		collection   = pflag.String("collection", "", "target collection, defaults to DOCSTORE_COLLECTION")
		chunkSize    = pflag.Int("chunk-size", ingest.DefaultChunkSize, "chunk size in characters")
		chunkOverlap = pflag.Int("chunk-overlap", ingest.DefaultChunkOverlap, "overlap between chunks in characters")
		force        = pflag.Bool("force", false, "ingest even when the collection already exists")
	)
	pflag.Parse()

	if len(*files) == 0 && len(*urls) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to ingest: pass --file or --url")
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Level: cfg.LogLevel})
	if *collection == "" {
		*collection = cfg.Retrieval.Collection
	}

	opts := options{
		collection:   *collection,
		files:        *files,
		urls:         *urls,
		selector:     *selector,
		chunkSize:    *chunkSize,
		chunkOverlap: *chunkOverlap,
		force:        *force,
	}
	if err := run(context.Background(), cfg, opts); err != nil {
		logx.Error().Err(err).Str("collection", *collection).Msg("ingestion failed")
		os.Exit(1)
	}
}

type options struct {
	collection   string
	files        []string
	urls         []string
	selector     string
	chunkSize    int
	chunkOverlap int
	force        bool
}

func run(ctx context.Context, cfg *config.AppConfig, opts options) error {
	a, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer a.Close()

	var docs []*schema.Document
	for _, f := range opts.files {
		loaded, err := ingest.TextLoader(ctx, f)
		if err != nil {
			return fmt.Errorf("load file %s: %w", f, err)
		}
		docs = append(docs, loaded...)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	for _, u := range opts.urls {
		loaded, err := ingest.WebLoader(ctx, client, u, opts.selector)
		if err != nil {
			return fmt.Errorf("load page %s: %w", u, err)
		}
		docs = append(docs, loaded...)
	}

	chunks, err := ingest.Split(docs, opts.chunkSize, opts.chunkOverlap)
	if err != nil {
		return fmt.Errorf("split documents: %w", err)
	}
	n, err := ingest.Ingest(ctx, a.Store, opts.collection, chunks, opts.force)
	if err != nil {
		return err
	}
	logx.Info().Str("collection", opts.collection).Int("documents", len(docs)).Int("chunks", n).Msg("ingestion finished")
	return nil
}

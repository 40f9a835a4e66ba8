package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jperezg/etl-pipeline/internal/config"
	"github.com/jperezg/etl-pipeline/internal/etl"
	"github.com/jperezg/etl-pipeline/internal/etl/source"
	"github.com/jperezg/etl-pipeline/pkg/database"
	"github.com/jperezg/etl-pipeline/pkg/logger"
)

type RunOptions struct {
	SinkPath string
	Source   string
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run and print the report",
		RunE: func(c *cobra.Command, args []string) error {
			return runPipeline(c.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.SinkPath, "sink", "", "Override the sink database path")
	cmd.Flags().StringVar(&opts.Source, "source", "", "Override the extraction source (synthetic, csv, sqlserver, mongo)")

	return cmd
}

// runPipeline wires configuration, logger, sink and source into one pipeline
// execution. The report always goes to stdout, success or failure; a failed
// run additionally surfaces its error so the process exits non-zero.
func runPipeline(ctx context.Context, opts *RunOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.SinkPath != "" {
		cfg.SinkPath = opts.SinkPath
	}
	if opts.Source != "" {
		cfg.Source = opts.Source
	}

	log, err := logger.New(cfg.LogPath, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.OpenSQLite(cfg.SinkPath, log)
	if err != nil {
		return err
	}
	defer db.Close()

	src, cleanup, err := newSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	loader := etl.NewLoader(db, cfg.SinkTable, log)
	if err := loader.EnsureSchema(ctx); err != nil {
		return err
	}

	pipeline := etl.New(
		etl.NewRetryingExtractor(src, cfg.MaxRetries, cfg.RetryDelay, log),
		etl.NewTransformer(cfg.AllowEmptyBatch, etl.ThresholdPolicy(cfg.AdvisoryValueThreshold), log),
		loader,
		etl.NewVerifier(db, cfg.SinkTable, cfg.SampleSize, log),
		log,
	)

	report, runErr := pipeline.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	return runErr
}

// newSource builds the configured extraction adapter. The returned cleanup
// releases whatever connection the adapter holds.
func newSource(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (etl.Source, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case config.SourceSynthetic:
		return &source.Synthetic{}, noop, nil

	case config.SourceCSV:
		return &source.CSV{Path: cfg.CSVPath}, noop, nil

	case config.SourceSQLServer:
		db, err := database.ConnectSQLServer(cfg.SourceDSN, log)
		if err != nil {
			return nil, nil, err
		}
		return &source.SQLServer{DB: db, Table: cfg.SourceTable}, func() { db.Close() }, nil

	case config.SourceMongo:
		client, err := database.ConnectMongo(cfg.SourceDSN, log)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		return &source.Mongo{
			Client:     client,
			Database:   cfg.SourceDatabase,
			Collection: cfg.SourceTable,
		}, cleanup, nil

	default:
		// config.Load validates its own input; this catches a bad --source flag.
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

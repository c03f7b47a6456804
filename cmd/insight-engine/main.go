package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ignite/insight-engine/internal/app"
	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/ingestion"
	"github.com/ignite/insight-engine/internal/pipeline"
	"github.com/ignite/insight-engine/internal/pkg/awsconf"
	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/report"
	"github.com/ignite/insight-engine/internal/table"
)

type options struct {
	configPath   string
	input        string
	pattern      string
	sample       bool
	seed         int64
	days         int
	useSQL       bool
	s3Key        string
	s3Bucket     string
	outputFormat string
	outputDir    string
	segmentBy    string
	dataset      string
	quiet        bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "config/config.yaml", "path to config file")
	flag.StringVar(&o.input, "input", "", "input file or directory (default paths.input_dir)")
	flag.StringVar(&o.pattern, "pattern", "*.csv", "glob for files when -input is a directory")
	flag.BoolVar(&o.sample, "sample", false, "generate a sample dataset instead of reading input")
	flag.Int64Var(&o.seed, "seed", 42, "random seed for -sample")
	flag.IntVar(&o.days, "days", 30, "days of data for -sample")
	flag.BoolVar(&o.useSQL, "sql", false, "read rows with source.driver/dsn/query from config")
	flag.StringVar(&o.s3Key, "s3-key", "", "read an S3 object, or every object under a key ending in /")
	flag.StringVar(&o.s3Bucket, "s3-bucket", "", "bucket for -s3-key (default storage.s3_bucket)")
	flag.StringVar(&o.outputFormat, "output-format", "", "markdown, json, xlsx or both; comma separated (default report.formats)")
	flag.StringVar(&o.outputDir, "output", "", "directory for local reports (default paths.output_dir)")
	flag.StringVar(&o.segmentBy, "segment-by", "", "column for the segment table (default campaign_id when present)")
	flag.StringVar(&o.dataset, "dataset", "", "dataset name shown in the report")
	flag.BoolVar(&o.quiet, "quiet", false, "only log warnings and errors")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()
	if err := run(o); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func run(o options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadFromEnv(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.quiet {
		cfg.Logging.Level = "warn"
		log.SetOutput(io.Discard)
	}
	if cfg.Storage.Type == "local" {
		cfg.Storage.LocalPath = cfg.Paths.OutputDir
		if o.outputDir != "" {
			cfg.Storage.LocalPath = o.outputDir
		}
	}
	var formats []report.Format
	if o.outputFormat != "" {
		if formats, err = report.ParseFormats(strings.Split(o.outputFormat, ",")...); err != nil {
			return err
		}
	}

	log.Println("============================================================")
	log.Println("  CAMPAIGN INSIGHT ENGINE")
	log.Println("============================================================")

	log.Println("[1/4] Initializing...")
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()
	log.Printf("      narrative mode: %s | storage: %s", a.Engine.Mode(), cfg.Storage.Type)

	log.Println("[2/4] Loading data...")
	raw, dataset, err := load(ctx, o, cfg)
	if err != nil {
		return err
	}
	if o.dataset != "" {
		dataset = o.dataset
	}
	log.Printf("      %d rows, %d columns from %s", raw.Len(), len(raw.Columns()), dataset)

	log.Println("[3/4] Cleaning, computing metrics and generating insights...")
	res, err := a.Pipeline.Run(ctx, raw, pipeline.Options{
		Dataset:   dataset,
		SegmentBy: o.segmentBy,
		Formats:   formats,
	})
	if errors.Is(err, pipeline.ErrEmptyDataset) {
		return fmt.Errorf("nothing to analyze: %w", err)
	}
	if err != nil {
		return err
	}
	log.Printf("      kept %d of %d rows (%d duplicates removed)",
		res.Cleaning.FinalRows, res.Cleaning.OriginalRows, res.Cleaning.DuplicatesRemoved)
	for _, key := range []string{"total_impressions", "total_clicks", "total_spent", "avg_CTR", "avg_CPC"} {
		if v, ok := res.Summary.Get(key); ok {
			log.Printf("      %-18s %.2f", key, v)
		}
	}

	log.Println("[4/4] Reports written:")
	for _, path := range res.Artifacts() {
		log.Printf("      %s", path)
	}

	log.Println("============================================================")
	log.Printf("✅ Done (run %s)", res.RunID)

	if !o.quiet {
		fmt.Println()
		fmt.Println(res.QuickInsights)
	}
	return nil
}

// load picks the first configured source: sample, SQL, S3, then files.
func load(ctx context.Context, o options, cfg *config.Config) (*table.Table, string, error) {
	switch {
	case o.sample:
		logger.Info("generating sample dataset", "seed", o.seed, "days", o.days)
		return ingestion.SampleDataset(o.seed, o.days), "sample", nil

	case o.useSQL:
		if cfg.Source.Driver == "" || cfg.Source.Query == "" {
			return nil, "", errors.New("-sql needs source.driver, source.dsn and source.query in config")
		}
		db, err := ingestion.OpenSQL(ctx, cfg.Source.Driver, cfg.Source.DSN)
		if err != nil {
			return nil, "", err
		}
		defer db.Close()
		t, err := ingestion.LoadSQL(ctx, db, cfg.Source.Query)
		return t, cfg.Source.Driver, err

	case o.s3Key != "":
		bucket := o.s3Bucket
		if bucket == "" {
			bucket = cfg.Storage.S3Bucket
		}
		if bucket == "" {
			return nil, "", errors.New("-s3-key needs -s3-bucket or storage.s3_bucket")
		}
		awsCfg, err := awsconf.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, "", err
		}
		src := ingestion.NewS3Source(awsCfg, bucket)
		name := fmt.Sprintf("s3://%s/%s", bucket, o.s3Key)
		if strings.HasSuffix(o.s3Key, "/") {
			t, err := src.LoadPrefix(ctx, o.s3Key)
			return t, name, err
		}
		t, err := src.Load(ctx, o.s3Key)
		return t, name, err

	default:
		input := o.input
		if input == "" {
			input = cfg.Paths.InputDir
		}
		t, err := ingestion.Load(input, o.pattern)
		return t, input, err
	}
}

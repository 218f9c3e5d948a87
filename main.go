package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
	"vasiluta.ro/plism/config"
	"vasiluta.ro/plism/hackerrank"
	"vasiluta.ro/plism/metrics"
	"vasiluta.ro/plism/moss"
	"vasiluta.ro/plism/report"
	"vasiluta.ro/plism/scraper"
	"vasiluta.ro/plism/similarity"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file (defaults to $PLISM_CONFIG)")
	contest    = flag.String("contest", "", "Contest slug, overrides the config")
	challenges = flag.String("challenges", "", "Comma separated challenge slugs, overrides the config")
	cutoff     = flag.Int("cutoff", 0, "Number of leaderboard ranks in the report, overrides the config")
	debug      = flag.Bool("debug", false, "Log debug messages")
)

func loadConfig() (*config.Config, error) {
	conf, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *contest != "" {
		conf.Contest = *contest
	}
	if *challenges != "" {
		conf.Challenges = strings.Split(*challenges, ",")
	}
	if *cutoff > 0 {
		conf.Cutoff = *cutoff
	}
	if *debug {
		conf.Debug = true
	}
	return conf, conf.Validate()
}

func newPipeline(conf *config.Config) *Pipeline {
	httpClient := &scraper.Client{
		HTTP:    scraper.NewClient(conf.PoolSize, conf.RequestTimeout),
		Retries: conf.Retries,
		Backoff: conf.Backoff,
	}
	hr := &hackerrank.Client{
		BaseURL:  conf.BaseURL,
		Contest:  conf.Contest,
		PageSize: conf.PageSize,
		HTTP:     httpClient,
	}
	return &Pipeline{
		Conf:        conf,
		Leaderboard: hr,
		Downloader: &hackerrank.Downloader{
			Client:   hr,
			Dir:      conf.OutputDir,
			PoolSize: conf.PoolSize,
		},
		Similarity: &moss.Service{Command: conf.MossCommand, HTTP: httpClient},
		Aggregator: similarity.NewAggregator(),
	}
}

func main() {
	flag.Parse()
	conf, err := loadConfig()
	if err != nil {
		zap.S().Fatal(err)
	}
	if err := initLogger(conf.Debug); err != nil {
		zap.S().Fatal(err)
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := newPipeline(conf)
	if conf.DBPath != "" {
		db, err := scraper.NewDB(conf.DBPath)
		if err != nil {
			zap.S().Fatal(err)
		}
		defer db.Close()
		if _, err := db.StartRun(ctx, conf.Contest); err != nil {
			zap.S().Fatal(err)
		}
		p.Ledger = db
		zap.S().Infof("Recording run %s in %s", db.RunID, conf.DBPath)
	}
	p.Downloader.OnResult = func(challenge, bucket, hacker string, err error) {
		metrics.RecordDownload(err)
		if p.Ledger != nil {
			if lerr := p.Ledger.MarkDownload(ctx, challenge, hacker, err); lerr != nil {
				zap.S().Warn(lerr)
			}
		}
	}

	rows, err := p.Run(ctx)
	if conf.MetricsPath != "" {
		if merr := metrics.WriteTextfile(conf.MetricsPath); merr != nil {
			zap.S().Warn(merr)
		}
	}
	if err != nil {
		zap.S().Fatal(err)
	}

	if conf.PGDSN != "" {
		exp, err := report.NewPGExporter(conf.PGDSN)
		if err != nil {
			zap.S().Fatal(err)
		}
		if err := exp.Export(ctx, conf.Contest, rows); err != nil {
			zap.S().Fatal(err)
		}
	}

	zap.S().Info("plism ended successfully!")
}

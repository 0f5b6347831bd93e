// Command algoliatap extracts analytics metrics from the Algolia Analytics
// API into a sink, resuming from per (stream, index) bookmarks
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"algoliatap/internal/adapters/algolia"
	"algoliatap/internal/adapters/sink"
	"algoliatap/internal/adapters/state"
	"algoliatap/internal/core/streams"
	"algoliatap/internal/core/version"
	"algoliatap/internal/platform/config"
	"algoliatap/internal/platform/logger"
	"algoliatap/internal/platform/store"
	"algoliatap/internal/services/sync/domain"
	"algoliatap/internal/services/sync/service"

	"github.com/google/uuid"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		fConfig   = flag.String("config", "", "path to the JSON config file")
		fState    = flag.String("state", "state.json", "path to the bookmark state file (file state store)")
		fDiscover = flag.Bool("discover", false, "print the stream catalog as JSON and exit")
		fAbout    = flag.Bool("about", false, "print build and catalog metadata as JSON and exit")
		fVersion  = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	switch {
	case *fVersion:
		bi := version.Info()
		fmt.Printf("%s %s (%s, %s)\n", bi.Service, bi.Version, bi.Commit, bi.Date)
		return 0
	case *fDiscover:
		return printJSON(catalog())
	case *fAbout:
		return printJSON(map[string]any{
			"build":   version.Info(),
			"streams": catalog(),
		})
	}

	logger.Init(logger.FromEnv())
	l := logger.Get()

	if *fConfig == "" {
		l.Error().Msg("--config is required")
		return 2
	}
	cfg, err := domain.LoadConfig(*fConfig)
	if err != nil {
		l.Error().Err(err).Msg("config rejected")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRun(ctx, uuid.NewString())
	log := logger.C(ctx)

	env := config.New().Prefix("TAP_")

	st, err := openState(ctx, env, *fState)
	if err != nil {
		log.Error().Err(err).Msg("state store open failed")
		return 1
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("state store close failed")
		}
	}()

	out, err := openSink(ctx, env)
	if err != nil {
		log.Error().Err(err).Msg("sink open failed")
		return 1
	}
	defer func() {
		if err := out.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("sink close failed")
		}
	}()

	ua := cfg.UserAgent
	if ua == "" {
		ua = "algoliatap/" + version.Info().Version
	}
	client := algolia.NewClient(algolia.Options{
		AppID:      cfg.AppID,
		APIKey:     cfg.APIKey,
		Region:     cfg.Region,
		UserAgent:  ua,
		Timeout:    cfg.RequestTimeout(),
		MaxRetries: cfg.MaxRetries,
	})

	svc := service.New(client, out, st, cfg)
	sum, err := svc.Run(ctx)

	for _, r := range sum.Partitions {
		ev := log.Info()
		if !r.Ok() {
			ev = log.Error().Err(r.Err)
		}
		ev.Str("stream", r.Stream).
			Str("index", r.Index).
			Int("windows", r.Windows).
			Int("failed_windows", r.Failed).
			Int("records", r.Records).
			Msg("partition summary")
	}
	log.Info().
		Int("partitions", len(sum.Partitions)).
		Int("failed", sum.Failed()).
		Int("records", sum.Records).
		Msg("run finished")

	if err != nil {
		log.Error().Err(err).Msg("run aborted")
		return 1
	}
	if sum.Failed() > 0 {
		return 1
	}
	return 0
}

// openState picks the bookmark store: a local JSON file by default, Postgres
// when TAP_STATE_KIND=postgres
func openState(ctx context.Context, env config.Conf, path string) (domain.StatePort, error) {
	switch env.MayEnum("STATE_KIND", "file", "file", "postgres") {
	case "postgres":
		return state.NewPostgresStore(ctx, env.MustString("PGSQL_DBURL"))
	default:
		return state.NewFileStore(path)
	}
}

// openSink picks the record sink: JSONL files by default, ClickHouse when
// TAP_SINK_KIND=clickhouse
func openSink(ctx context.Context, env config.Conf) (domain.SinkPort, error) {
	switch env.MayEnum("SINK_KIND", "jsonl", "jsonl", "clickhouse") {
	case "clickhouse":
		return sink.NewClickHouse(ctx, store.CHConfig{
			Addr:     env.MustString("CLICKHOUSE_ADDR"),
			Database: env.MayString("CLICKHOUSE_DATABASE", "default"),
			Username: env.MayString("CLICKHOUSE_USERNAME", "default"),
			Password: env.MayString("CLICKHOUSE_PASSWORD", ""),
		}, env.MayString("SINK_TABLE", ""))
	default:
		return sink.NewJSONL(env.MayString("SINK_DIR", "output"))
	}
}

// catalog renders the stream descriptors in a machine-readable shape
func catalog() []map[string]any {
	all := streams.All()
	out := make([]map[string]any, 0, len(all))
	for _, d := range all {
		fields := make([]map[string]any, 0, len(d.Schema()))
		for _, f := range d.Schema() {
			fields = append(fields, map[string]any{
				"name":     f.Name,
				"type":     f.Type,
				"optional": f.Optional,
			})
		}
		shape := "day_bucket"
		if d.Shape == streams.ShapePerQuery {
			shape = "per_query"
		}
		out = append(out, map[string]any{
			"name":            d.Name,
			"path":            d.Path,
			"shape":           shape,
			"click_analytics": d.ClickAnalytics,
			"paginated":       d.Paginated,
			"primary_keys":    d.PrimaryKeys,
			"fields":          fields,
		})
	}
	return out
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"locator-go/config"
	"locator-go/dataset"
	"locator-go/live"
	"locator-go/locate"
	"locator-go/logging"
	"locator-go/model"
	"locator-go/store"
	"locator-go/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML configuration file")
	datasetDir := flag.String("dataset", "", "Dataset directory (overrides the configuration)")
	pointName := flag.String("point", "", "Recording to replay, e.g. x1200y3400 (default: first point)")
	port := flag.Int("port", 0, "HTTP port (overrides the configuration)")
	distDir := flag.String("dist", "", "Static frontend directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal(zerolog.New(os.Stderr), err, "load configuration")
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fatal(zerolog.New(os.Stderr), err, "configure logging")
	}
	if cfg.Live.Speed <= 0 {
		fatal(log, &config.ConfigurationError{Param: "live.speed", Reason: "must be positive"}, "live mode")
	}

	dir := cfg.Dataset
	if *datasetDir != "" {
		dir = *datasetDir
	}
	ds, err := dataset.Load(dir)
	if err != nil {
		fatal(log, err, "load dataset")
	}
	truth, rec, ok := pickRecording(ds, *pointName)
	if !ok {
		fatal(log, os.ErrNotExist, "recording "+*pointName)
	}

	params, err := cfg.Params()
	if err != nil {
		fatal(log, err, "engine parameters")
	}
	distance, err := cfg.DistanceModel()
	if err != nil {
		fatal(log, err, "distance algorithm")
	}
	solver, err := cfg.Solver()
	if err != nil {
		fatal(log, err, "least squares algorithm")
	}

	st := store.New(log)
	st.AddInstallation(ds.Installation)
	engine, err := locate.NewEngine(st, locate.NewPositioningService(st, distance, solver), params, log)
	if err != nil {
		fatal(log, err, "location engine")
	}

	hub := web.NewHub(log)
	origin := live.WallClock()
	clock := live.VirtualClock(origin, cfg.Live.Speed)
	scheduler, err := live.NewScheduler(engine, st, hub, params, clock, cfg.Live.Speed, log)
	if err != nil {
		fatal(log, err, "scheduler")
	}
	server := web.NewServer(hub, st, scheduler, engine, log)

	httpPort := cfg.Live.HTTPPort
	if *port != 0 {
		httpPort = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Stringer("truth", truth).Str("topic", rec.Topic).Str("session", scheduler.Session()).Msg("live session starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return server.Start(gctx, httpPort, *distDir)
	})
	g.Go(func() error {
		return ignoreCancel(scheduler.Run(gctx))
	})
	g.Go(func() error {
		replayer := live.NewReplayer(st, cfg.Live.Beacon, cfg.Live.Speed, log)
		n, err := replayer.Replay(gctx, rec, origin)
		log.Info().Int("events", n).Msg("recording replayed, serving until interrupted")
		return ignoreCancel(err)
	})

	if err := g.Wait(); err != nil {
		fatal(log, err, "live session")
	}
	log.Info().Int("ticks", scheduler.Ticks()).Msg("shut down")
}

func pickRecording(ds *dataset.Dataset, name string) (model.Point, *model.Recording, bool) {
	for _, p := range ds.Points() {
		if name == "" || p.String() == name {
			return p, ds.Recordings[p], true
		}
	}
	return model.Point{}, nil, false
}

func ignoreCancel(err error) error {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return nil
	}
	return err
}

func fatal(log zerolog.Logger, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	os.Exit(1)
}

package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/rs/zerolog"

	"locator-go/config"
	"locator-go/dataset"
	"locator-go/logging"
	"locator-go/simulation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML configuration file")
	datasetDir := flag.String("dataset", "", "Dataset directory (overrides the configuration)")
	workers := flag.Int("workers", runtime.NumCPU(), "Simulations run in parallel")
	csvPath := flag.String("csv", "", "Optional CSV output with every fix")
	plotPath := flag.String("plot", "", "Optional plot of fixes against ground truth (.png, .svg, .pdf)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal(zerolog.New(os.Stderr), err, "load configuration")
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fatal(zerolog.New(os.Stderr), err, "configure logging")
	}

	dir := cfg.Dataset
	if *datasetDir != "" {
		dir = *datasetDir
	}
	ds, err := dataset.Load(dir)
	if err != nil {
		fatal(log, err, "load dataset")
	}
	log.Info().Str("dataset", dir).Str("installation", ds.Installation.ID).Int("recordings", len(ds.Recordings)).Msg("dataset loaded")

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

	factory := simulation.NewEngineFactory(params, distance, solver, log)
	report, err := simulation.Run(ds, factory, simulation.Options{Workers: *workers}, log)
	if err != nil {
		fatal(log, err, "simulation")
	}

	if err := report.Format(os.Stdout); err != nil {
		fatal(log, err, "print report")
	}
	if *csvPath != "" {
		if err := report.WriteCSV(*csvPath); err != nil {
			fatal(log, err, "write csv")
		}
		log.Info().Str("path", *csvPath).Msg("csv written")
	}
	if *plotPath != "" {
		if err := report.Plot(*plotPath); err != nil {
			fatal(log, err, "write plot")
		}
		log.Info().Str("path", *plotPath).Msg("plot written")
	}
}

func fatal(log zerolog.Logger, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	os.Exit(1)
}

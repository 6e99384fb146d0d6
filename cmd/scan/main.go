package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"

	"locator-go/dataset"
	"locator-go/model"
)

func main() {
	datasetDir := flag.String("dataset", "", "Dataset directory")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if *datasetDir == "" {
		fmt.Println("--dataset required")
		os.Exit(1)
	}

	ds, err := dataset.Load(*datasetDir)
	if err != nil {
		log.Error().Err(err).Msg("load dataset")
		os.Exit(1)
	}

	inst := ds.Installation
	fmt.Printf("Installation %s: %d scanners\n", inst.ID, len(inst.Scanners))
	for _, s := range inst.Scanners {
		fmt.Printf("  %-20s %s\n", s.Addr, s.Position)
	}

	for _, p := range ds.Points() {
		rec := ds.Recordings[p]
		fmt.Printf("%s: topic %s, %d events, %d ms\n", p, rec.Topic, rec.Len(), rec.Duration)
		for _, scanner := range rec.Scanners() {
			s := summarize(rec.ScannerEvents(scanner))
			known := ""
			if !inst.HasScanner(scanner) {
				known = " (not installed)"
			}
			if s.count == 0 {
				fmt.Printf("  %-20s no events%s\n", scanner, known)
				continue
			}
			fmt.Printf("  %-20s %5d events  t[%d, %d]  rssi[%d, %d] mean %.1f  txpower %d%s\n",
				scanner, s.count, s.first, s.last, s.minRSSI, s.maxRSSI, s.meanRSSI, s.txPower, known)
		}
	}
}

type summary struct {
	count            int
	first, last      int64
	minRSSI, maxRSSI int
	meanRSSI         float64
	txPower          int
}

func summarize(events []model.BeaconEvent) summary {
	s := summary{minRSSI: math.MaxInt, maxRSSI: math.MinInt}
	var sum float64
	for i, ev := range events {
		if i == 0 {
			s.first = ev.Time
			s.txPower = ev.Beacon.TxPower
		}
		s.last = ev.Time
		s.minRSSI = min(s.minRSSI, ev.Beacon.RSSI)
		s.maxRSSI = max(s.maxRSSI, ev.Beacon.RSSI)
		sum += float64(ev.Beacon.RSSI)
		s.count++
	}
	if s.count > 0 {
		s.meanRSSI = sum / float64(s.count)
	}
	return s
}

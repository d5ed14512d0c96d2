package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/signalsfoundry/stellar-activity-simulator/core"
	"github.com/signalsfoundry/stellar-activity-simulator/internal/logging"
	"github.com/signalsfoundry/stellar-activity-simulator/internal/observability"
	"github.com/signalsfoundry/stellar-activity-simulator/model"
	"github.com/signalsfoundry/stellar-activity-simulator/timectrl"
)

func main() {
	configPath := flag.String("config", "configs/sun.toml", "scenario file (TOML)")
	start := flag.Float64("start", 0, "first sample time (days)")
	stop := flag.Float64("stop", 25.05, "last sample time (days)")
	step := flag.Float64("step", 0.25, "sample spacing (days)")
	seed := flag.Int64("seed", -1, "override the scenario seed (-1 keeps it)")
	format := flag.String("format", "csv", "output format: csv or json")
	out := flag.String("out", "", "output file (default stdout)")
	populationOut := flag.String("population-out", "", "write the final spot population as TOML")
	workers := flag.Int("workers", runtime.GOMAXPROCS(0), "sample-level worker count")

	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	f, err := os.Open(*configPath)
	if err != nil {
		fatal("open scenario %q: %v", *configPath, err)
	}
	scenario, err := core.LoadScenario(f)
	f.Close()
	if err != nil {
		fatal("load scenario: %v", err)
	}
	if *seed >= 0 {
		scenario.Seed = *seed
		scenario.Placement.Seed = *seed
	}

	times, err := timectrl.Span{Start: *start, Stop: *stop, Step: *step}.Samples()
	if err != nil {
		fatal("%v", err)
	}

	tcShutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		fatal("init tracing: %v", err)
	}
	defer observability.ShutdownWithTimeout(ctx, tcShutdown, log)

	metrics, err := observability.NewSimCollector(nil)
	if err != nil {
		fatal("init metrics: %v", err)
	}

	opts := scenario.Options()
	opts.Logger = log
	opts.Metrics = metrics
	opts.SampleWorkers = *workers

	driver, err := core.NewDriver(scenario.Star, opts)
	if err != nil {
		fatal("%v", err)
	}
	result, err := driver.Run(ctx, scenario.Spots, times)
	if err != nil {
		fatal("run: %v", err)
	}

	dst := io.Writer(os.Stdout)
	if *out != "" {
		of, err := os.Create(*out)
		if err != nil {
			fatal("create output %q: %v", *out, err)
		}
		defer of.Close()
		dst = of
	}

	switch *format {
	case "csv":
		err = writeCSV(dst, result.Samples)
	case "json":
		err = json.NewEncoder(dst).Encode(result.Samples)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		fatal("write output: %v", err)
	}

	if *populationOut != "" {
		pf, err := os.Create(*populationOut)
		if err != nil {
			fatal("create population output %q: %v", *populationOut, err)
		}
		if err := core.EncodeSpots(pf, result.Spots); err != nil {
			pf.Close()
			fatal("%v", err)
		}
		pf.Close()
	}

	fmt.Fprintf(os.Stderr, "Simulated %d samples, %d spots, achieved fill %.5f\n",
		len(result.Samples), len(result.Spots), result.AchievedFill)
	if result.CoverageWarning != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", result.CoverageWarning)
	}
}

func writeCSV(w io.Writer, samples []model.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "flux", "rv", "rv_sigma", "valid"}); err != nil {
		return err
	}
	for _, s := range samples {
		rec := []string{
			strconv.FormatFloat(s.Time, 'g', -1, 64),
			strconv.FormatFloat(s.Flux, 'g', -1, 64),
			strconv.FormatFloat(s.RV, 'g', -1, 64),
			strconv.FormatFloat(s.RVSigma, 'g', -1, 64),
			strconv.FormatBool(s.Valid),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	m "github.com/mkhts/goppk"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
		}
		os.Exit(2)
	}

	logger := m.NewLogger(os.Stderr, args.dbg, args.logJSON)

	// Run the main application
	if err := runApplication(context.Background(), args, logger); err != nil {
		logger.Error("geotagging failed", "err", err)
		os.Exit(1)
	}
}

// Main application processing
func runApplication(ctx context.Context, args cmdOpt, logger *slog.Logger) error {
	cfg := args.cfg

	runID := m.RunID(args.obsFn, args.navFn, args.refObsFn, args.mrkFn, args.posFn)
	logger = logger.With("run_id", runID)

	var metrics *m.RunMetrics
	if cfg.Output.Metrics != "" {
		metrics = m.NewRunMetrics(runID)
	}

	// Run the solver unless a solution file is given
	posFn := args.posFn
	if posFn == "" {
		var err error
		posFn, err = runSolver(ctx, args, logger, metrics)
		if err != nil {
			return err
		}
	}

	// Load input files
	pf, err := readPos(posFn, args.posFormat, args.refPos, logger)
	if err != nil {
		return fmt.Errorf("failed to read solution file: %w", err)
	}
	if len(pf.Epochs) == 0 {
		return fmt.Errorf("%s: %w", posFn, m.ErrNoEpochs)
	}
	trg, err := readMrk(args.mrkFn, logger)
	if err != nil {
		return fmt.Errorf("failed to read timestamp file: %w", err)
	}
	if len(trg) == 0 {
		return fmt.Errorf("%s: %w", args.mrkFn, m.ErrNoTriggers)
	}
	m.LogSummary(logger, pf.Epochs, trg)

	// Camera positions
	opt := cfg.Geotag.Opt()
	logger.Info("photo names", "prefix", opt.Prefix, "suffix", opt.Suffix, "shutter_lag", opt.ShutterLag)
	recs, err := m.Geotag(pf.Epochs, trg, opt, logger)
	if err != nil {
		return fmt.Errorf("failed to geotag: %w", err)
	}
	if dropped := len(trg) - len(recs); dropped > 0 {
		logger.Info("triggers outside the solution", "dropped", dropped)
	}

	// Output results
	if err := writeCSV(cfg.Output.CSV, recs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Printf("out:%s (%d)\n", cfg.Output.CSV, len(recs))

	if metrics != nil {
		metrics.EpochsRead.Set(float64(len(pf.Epochs)))
		metrics.EpochsSkipped.Set(float64(pf.Skipped))
		metrics.TriggersRead.Set(float64(len(trg)))
		metrics.RecordsWritten.Set(float64(len(recs)))
		metrics.RecordsDropped.Set(float64(len(trg) - len(recs)))
		metrics.FixRatio.Set(m.FixRatio(pf.Epochs))
		if err := metrics.WriteTextfile(cfg.Output.Metrics); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// Build the solver configuration, run the solver and return the solution file path
func runSolver(ctx context.Context, args cmdOpt, logger *slog.Logger, metrics *m.RunMetrics) (string, error) {
	cfg := args.cfg

	bin, err := m.LookupSolver(cfg.Solver.Bin)
	if err != nil {
		return "", err
	}

	// Stations from the RINEX headers
	rov, ref, err := loadStations(args, logger)
	if err != nil {
		return "", fmt.Errorf("failed to load input files: %w", err)
	}

	// Working directory
	if err := os.MkdirAll(cfg.Solver.WorkDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}
	job := m.SolverJob{
		Conf:  filepath.Join(cfg.Solver.WorkDir, cfg.Solver.ConfName),
		Rover: args.obsFn,
		Ref:   args.refObsFn,
		Nav:   args.navFn,
		Out:   filepath.Join(cfg.Solver.WorkDir, cfg.Solver.OutName),
	}

	// Solver configuration
	tmpl, antFile, closeTmpl, err := openTemplate(cfg.Solver.Template, logger)
	if err != nil {
		return "", fmt.Errorf("failed to open template: %w", err)
	}
	defer closeTmpl()
	conf := m.NewSolverConf(cfg.Processing, rov, ref, args.refPos, antFile)
	if err := m.WriteConfFile(job.Conf, tmpl, conf); err != nil {
		return "", fmt.Errorf("failed to write solver config: %w", err)
	}
	logger.Info("solver config", "file", job.Conf, "navsys", cfg.Processing.NavSys(), "posmode", cfg.Processing.PosMode)

	// Run
	solver := m.Solver{Bin: bin, Timeout: cfg.Solver.Timeout, Logger: logger}
	start := time.Now()
	if err := solver.Run(ctx, job); err != nil {
		return "", err
	}
	if metrics != nil {
		metrics.SolverSeconds.Set(time.Since(start).Seconds())
	}

	// The solver may exit normally without a solution
	if fi, err := os.Stat(job.Out); err != nil {
		return "", fmt.Errorf("no solution file: %w", err)
	} else if fi.Size() == 0 {
		return "", fmt.Errorf("%s: %w", job.Out, m.ErrNoEpochs)
	}
	return job.Out, nil
}

// Open the template file, or the built-in one if the file does not exist
func openTemplate(fn string, logger *slog.Logger) (io.Reader, string, func(), error) {
	if fn != "" {
		f, err := os.Open(fn)
		if err == nil {
			return f, m.FindAntFile(fn), func() { f.Close() }, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", nil, err
		}
		logger.Warn("template not found, use the built-in template", "file", fn)
	}
	return m.DefaultTemplate(), "", func() {}, nil
}

// Read the RINEX headers and merge them with the configured stations
func loadStations(args cmdOpt, logger *slog.Logger) (rov, ref m.StationInfo, err error) {
	rovHdr, err := readRinexHeader(args.obsFn)
	if err != nil {
		return rov, ref, fmt.Errorf("failed to read observation file: %w", err)
	}
	if !rovHdr.IsObs() {
		return rov, ref, fmt.Errorf("%s: %w", args.obsFn, m.ErrNotObservation)
	}
	refHdr, err := readRinexHeader(args.refObsFn)
	if err != nil {
		return rov, ref, fmt.Errorf("failed to read reference observation file: %w", err)
	}
	if !refHdr.IsObs() {
		return rov, ref, fmt.Errorf("%s: %w", args.refObsFn, m.ErrNotObservation)
	}
	navHdr, err := readRinexHeader(args.navFn)
	if err != nil {
		return rov, ref, fmt.Errorf("failed to read navigation file: %w", err)
	}
	if !navHdr.IsNav() {
		return rov, ref, fmt.Errorf("%s: %w", args.navFn, m.ErrNotNavigation)
	}

	for _, a := range []struct {
		name, fn string
		h        *m.RinexHeader
	}{{"rover", args.obsFn, rovHdr}, {"reference", args.refObsFn, refHdr}} {
		logger.Info("observation file", "station", a.name, "file", filepath.Base(a.fn), "marker", a.h.Marker,
			"rcv", a.h.Rcv, "ant", a.h.Ant, "first", a.h.First, "last", a.h.Last)
	}

	rov = mergeStation(rovHdr.Station(), args.cfg.Rover)
	ref = mergeStation(refHdr.Station(), args.cfg.Reference.StationInfo)
	return rov, ref, nil
}

// Configured values take precedence over the RINEX header
func mergeStation(hdr, cfg m.StationInfo) m.StationInfo {
	st := hdr
	if cfg.Rcv != "" {
		st.Rcv = cfg.Rcv
	}
	if cfg.Ant != "" {
		st.Ant = cfg.Ant
	}
	if cfg.AntDelta != [3]float64{} {
		st.AntDelta = cfg.AntDelta
	}
	return st
}

// Read the header of a RINEX file
func readRinexHeader(fn string) (*m.RinexHeader, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return m.ReadRinexHeader(f)
}

// Read solution file
func readPos(fn string, format *m.PosFormat, refPos m.PosLLH, logger *slog.Logger) (*m.PosFile, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	base := refPos.ToXYZ()
	opt := m.ReadPosOpt{Format: format}
	if refPos != (m.PosLLH{}) {
		opt.BasePos = &base
	}
	pf, err := m.ReadPos(f, opt, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("solution file", "file", fn, "format", pf.Format, "epochs", len(pf.Epochs), "skipped", pf.Skipped)
	return pf, nil
}

// Read timestamp file
func readMrk(fn string, logger *slog.Logger) ([]m.Trigger, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	trg, err := m.ReadMrk(f, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("timestamp file", "file", fn, "triggers", len(trg))
	return trg, nil
}

// Write the geotag CSV. A partially written file is removed.
func writeCSV(fn string, recs []m.GeotagRecord) error {

	// Use stdout if "-" is specified
	if fn == "-" {
		return m.WriteGeotagCSV(os.Stdout, recs)
	}

	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := m.WriteGeotagCSV(f, recs); err != nil {
		f.Close()
		os.Remove(fn)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(fn)
		return err
	}
	return nil
}

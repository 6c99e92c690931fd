// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "github.com/mkhts/goppk"
)

// Structure to hold command line argument information
type cmdOpt struct {
	cfg       m.Config
	obsFn     string
	navFn     string
	refObsFn  string
	mrkFn     string
	posFn     string // Skip the solver and use this solution file
	posFormat *m.PosFormat
	refPos    m.PosLLH
	dbg       int
	logJSON   bool
}

// Parse command line arguments.
// Settings are taken from the defaults, the config file and the flags, in this order.
func parseArgs(argv []string) (a cmdOpt, err error) {
	fs := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }

	// Flags are parsed into a copy of the defaults and applied only when given
	fc := m.NewConfig()
	var cfgFn string
	fs.StringVar(&cfgFn, "config", "", "YAML config file. Flags given on the command line take precedence.")
	fs.StringVar(&fc.Output.CSV, "out", fc.Output.CSV, "Output CSV file. \"-\" for stdout.")
	fs.StringVar(&fc.Geotag.Prefix, "photo_file_prefix", fc.Geotag.Prefix, "Photo file name prefix")
	fs.StringVar(&fc.Geotag.Suffix, "photo_file_postfix", fc.Geotag.Suffix, "Photo file name postfix")
	fs.StringVar(&fc.Solver.Template, "rtklib_template_file", fc.Solver.Template, "Solver config template. The built-in template is used if the file does not exist.")
	fs.StringVar(&fc.Solver.Bin, "solver", fc.Solver.Bin, "Solver executable. Default: rnx2rtkp under $MGNSS_EXTDIR, or in $PATH")
	fs.DurationVar(&fc.Solver.Timeout, "timeout", fc.Solver.Timeout, "Solver timeout. 0 for no timeout.")
	fs.StringVar(&fc.Solver.WorkDir, "work_dir", fc.Solver.WorkDir, "Directory for the solver config and solution files")
	fs.Float64Var(&fc.Geotag.ShutterLag, "shutter_lag", fc.Geotag.ShutterLag, "Shutter lag [s] subtracted from the trigger time")
	fs.Float64Var(&fc.Geotag.MinAcc, "min_acc", fc.Geotag.MinAcc, "Lower bound of the output accuracy [m]")
	posMode := m.OptWord{Value: fc.Processing.PosMode, Choice: m.PosModes}
	fs.Var(&posMode, "posmode", "Positioning mode. "+joinChoice(m.PosModes))
	freq := m.OptWord{Value: fc.Processing.Freq, Choice: m.Freqs}
	fs.Var(&freq, "freq", "Frequencies. "+joinChoice(m.Freqs))
	arMode := m.OptWord{Value: fc.Processing.ArMode, Choice: m.ArModes}
	fs.Var(&arMode, "armode", "Ambiguity resolution mode. "+joinChoice(m.ArModes))
	fs.Float64Var(&fc.Processing.ElMask, "m", fc.Processing.ElMask, "Elevation mask [deg]")
	fs.Float64Var(&fc.Processing.SnrMask, "cn", fc.Processing.SnrMask, "Signal strength mask [dBHz]")
	var sys m.SysVar
	fs.Var(&sys, "sys", "Satellite systems to use. G(GPS), R(Glonass), E(Galileo), J(QZSS), C(Beidou). Comma-separated without spaces. Default: G,R,E,J,C")
	fs.Var(&fc.Processing.ExSats, "ex", "List of satellites to exclude. Comma-separated satellite names without spaces like C02,E14.")
	fs.Float64Var(&fc.Processing.MaxAge, "maxage", fc.Processing.MaxAge, "Maximum age of differential [s]")
	fs.StringVar(&fc.Output.Metrics, "metrics", fc.Output.Metrics, "Write run metrics to this file (node_exporter textfile format)")
	fs.StringVar(&a.posFn, "pos", "", "Existing solution file. The solver is not run.")
	var posFormat m.PosFormat
	fs.Var(&posFormat, "pos_format", "Format of the -pos file (llh, xyz, enu). Detected from the header if omitted.")
	fs.IntVar(&a.dbg, "x", 0, "Debug information display. 0(OFF), 1(debug), 2(debug with source)")
	fs.BoolVar(&a.logJSON, "logjson", false, "Log in JSON")
	if err := fs.Parse(argv); err != nil {
		return a, err
	}

	// Config file
	a.cfg = m.NewConfig()
	if cfgFn != "" {
		if a.cfg, err = m.LoadConfig(cfgFn); err != nil {
			return a, err
		}
	}
	set := map[string]func(){
		"out":                  func() { a.cfg.Output.CSV = fc.Output.CSV },
		"photo_file_prefix":    func() { a.cfg.Geotag.Prefix = fc.Geotag.Prefix },
		"photo_file_postfix":   func() { a.cfg.Geotag.Suffix = fc.Geotag.Suffix },
		"rtklib_template_file": func() { a.cfg.Solver.Template = fc.Solver.Template },
		"solver":               func() { a.cfg.Solver.Bin = fc.Solver.Bin },
		"timeout":              func() { a.cfg.Solver.Timeout = fc.Solver.Timeout },
		"work_dir":             func() { a.cfg.Solver.WorkDir = fc.Solver.WorkDir },
		"shutter_lag":          func() { a.cfg.Geotag.ShutterLag = fc.Geotag.ShutterLag },
		"min_acc":              func() { a.cfg.Geotag.MinAcc = fc.Geotag.MinAcc },
		"posmode":              func() { a.cfg.Processing.PosMode = posMode.Value },
		"freq":                 func() { a.cfg.Processing.Freq = freq.Value },
		"armode":               func() { a.cfg.Processing.ArMode = arMode.Value },
		"m":                    func() { a.cfg.Processing.ElMask = fc.Processing.ElMask },
		"cn":                   func() { a.cfg.Processing.SnrMask = fc.Processing.SnrMask },
		"sys":                  func() { a.cfg.Processing.SetSys(sys) },
		"ex":                   func() { a.cfg.Processing.ExSats = fc.Processing.ExSats },
		"maxage":               func() { a.cfg.Processing.MaxAge = fc.Processing.MaxAge },
		"metrics":              func() { a.cfg.Output.Metrics = fc.Output.Metrics },
		"pos_format":           func() { a.posFormat = &posFormat },
	}
	fs.Visit(func(f *flag.Flag) {
		if fn, ok := set[f.Name]; ok {
			fn()
		}
	})
	if p := a.cfg.Reference.Position; p != nil {
		a.refPos = p.PosLLH()
	}

	// Positional arguments
	var relpos string
	if a.posFn != "" {
		switch fs.NArg() {
		case 1:
			a.mrkFn = fs.Arg(0)
		case 2:
			a.mrkFn = fs.Arg(0)
			relpos = fs.Arg(1)
		default:
			fs.Usage()
			return a, fmt.Errorf("too less or many arguments")
		}
	} else {
		if fs.NArg() != 5 {
			fs.Usage()
			return a, fmt.Errorf("too less or many arguments")
		}
		a.obsFn = fs.Arg(0)
		a.navFn = fs.Arg(1)
		a.refObsFn = fs.Arg(2)
		a.mrkFn = fs.Arg(3)
		relpos = fs.Arg(4)
	}
	if relpos != "" {
		if err := a.refPos.Set(relpos); err != nil {
			return a, fmt.Errorf("invalid relpos %q: %w", relpos, err)
		}
	}
	if a.posFn == "" && a.refPos == (m.PosLLH{}) {
		return a, fmt.Errorf("the reference station position must be specified")
	}

	if err := a.cfg.Validate(); err != nil {
		return a, fmt.Errorf("invalid settings: %w", err)
	}
	return a, nil
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	cmd := fs.Name()
	fmt.Fprintf(w, `
[Usage]
	%s [Options] rnx_obs rnx_nav ref_rnx_obs timestamp_file "lat,lon,h"
	%s [Options] -pos file.pos timestamp_file ["lat,lon,h"]

[Options]
`, cmd, cmd)
	fs.PrintDefaults()
}

func joinChoice(c []string) string {
	return "One of " + strings.Join(c, ", ")
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.17
//

// Builds the configuration file of the solver (rnx2rtkp) from a template.
// The template holds named placeholders like __POSMODE__ which are replaced
// by the values of a SolverConf.

package goppk

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

//go:embed conf/template-rnx2rtkp-conf.txt
var defaultTemplate string

// DefaultTemplate returns the built-in configuration template.
func DefaultTemplate() io.Reader {
	return strings.NewReader(defaultTemplate)
}

// Antenna type used when the type is unknown
const NoAntennaInfo = "no_antenna_info"

// Antenna calibration file looked up next to the template
const AntFileName = "JSIM_ANT.001"

// Option words accepted by the solver
var (
	PosModes   = []string{"single", "dgps", "kinematic", "static", "movingbase", "fixed", "ppp-kine", "ppp-static"}
	Freqs      = []string{"l1", "l1+l2", "l1+l2+l5"}
	SolTypes   = []string{"forward", "backward", "combined"}
	ArModes    = []string{"off", "continuous", "instantaneous", "fix-and-hold"}
	BdsArModes = []string{"off", "on"}
)

// Receiver and antenna of a station
type StationInfo struct {
	Rcv      string     `yaml:"rcv"`       // Receiver type
	Ant      string     `yaml:"ant"`       // Antenna type
	AntDelta [3]float64 `yaml:"ant_delta"` // Antenna delta E/N/U [m]
}

// Processing options of the solver
type ProcOpt struct {
	PosMode   string  `yaml:"posmode"`
	Freq      string  `yaml:"frequency"`
	SolType   string  `yaml:"soltype"`
	ElMask    float64 `yaml:"elmask"`  // [deg]
	SnrMask   float64 `yaml:"snrmask"` // [dBHz]
	ExSats    SatVar  `yaml:"exclude_sats"`
	Glonass   bool    `yaml:"glonass"`
	Galileo   bool    `yaml:"galileo"`
	QZSS      bool    `yaml:"qzss"`
	Beidou    bool    `yaml:"beidou"`
	ArMode    string  `yaml:"armode"`
	BdsArMode string  `yaml:"bdsarmode"`
	MaxAge    float64 `yaml:"maxage"` // [s]
}

func NewProcOpt() ProcOpt {
	return ProcOpt{
		PosMode:   "kinematic",
		Freq:      "l1+l2",
		SolType:   "combined",
		ElMask:    15,
		SnrMask:   30,
		Glonass:   true,
		Galileo:   true,
		QZSS:      true,
		Beidou:    true,
		ArMode:    "fix-and-hold",
		BdsArMode: "off",
		MaxAge:    30,
	}
}

// SetSys enables the systems in s. GPS is always enabled.
func (o *ProcOpt) SetSys(s SysVar) {
	o.Glonass = s.Contains('R')
	o.Galileo = s.Contains('E')
	o.QZSS = s.Contains('J')
	o.Beidou = s.Contains('C')
}

// NavSys returns the system bit mask of pos1-navsys.
func (o ProcOpt) NavSys() int {
	n := NavSysGPS
	if o.Glonass {
		n += NavSysGLO
	}
	if o.Galileo {
		n += NavSysGAL
	}
	if o.QZSS {
		n += NavSysQZS
	}
	if o.Beidou {
		n += NavSysBDS
	}
	return n
}

func (o ProcOpt) Validate() error {
	words := []struct {
		name, v string
		choice  []string
	}{
		{"posmode", o.PosMode, PosModes},
		{"frequency", o.Freq, Freqs},
		{"soltype", o.SolType, SolTypes},
		{"armode", o.ArMode, ArModes},
		{"bdsarmode", o.BdsArMode, BdsArModes},
	}
	for _, w := range words {
		if !slices.Contains(w.choice, w.v) {
			return fmt.Errorf("invalid %s %q (%s)", w.name, w.v, strings.Join(w.choice, ","))
		}
	}
	if o.ElMask < 0 || o.ElMask > 90 {
		return fmt.Errorf("invalid elmask %g", o.ElMask)
	}
	if o.SnrMask < 0 || o.SnrMask > 60 {
		return fmt.Errorf("invalid snrmask %g", o.SnrMask)
	}
	if o.MaxAge < 0 {
		return fmt.Errorf("invalid maxage %g", o.MaxAge)
	}
	var sats SatVar
	if err := sats.Set(o.ExSats.String()); err != nil {
		return err
	}
	return nil
}

// Values of the solver configuration
type SolverConf struct {
	Proc    ProcOpt
	Rover   StationInfo
	Ref     StationInfo
	RefPos  PosLLH // Position of the reference station
	AntFile string // Receiver antenna calibration file, may be empty
}

func NewSolverConf(proc ProcOpt, rov, ref StationInfo, refPos PosLLH, antFile string) SolverConf {
	return SolverConf{
		Proc:    proc,
		Rover:   rov,
		Ref:     ref,
		RefPos:  refPos,
		AntFile: antFile,
	}
}

// GLONASS ambiguity resolution needs the same receiver type for rover and reference
func (c SolverConf) gloArMode() string {
	if c.Rover.Rcv == c.Ref.Rcv {
		return "on"
	}
	return "off"
}

// Named placeholder of the template
type Placeholder struct {
	Name  string
	Value string
}

func antType(st StationInfo) string {
	if st.Ant == "" {
		return NoAntennaInfo
	}
	return st.Ant
}

// Placeholders returns the value of every placeholder of the template.
func (c SolverConf) Placeholders() []Placeholder {
	snr := make([]string, 9)
	for i := range snr {
		snr[i] = ftoa(c.Proc.SnrMask)
	}
	exs := make([]string, 0, len(c.Proc.ExSats))
	for _, s := range c.Proc.ExSats {
		exs = append(exs, string(s))
	}
	return []Placeholder{
		{"__POSMODE__", c.Proc.PosMode},
		{"__ROVER_FREQUENCY__", c.Proc.Freq},
		{"__SOL_TYPE__", c.Proc.SolType},
		{"__ELMASK__", ftoa(c.Proc.ElMask)},
		{"__SNMASK__", strings.Join(snr, ",")},
		{"__EXSATS__", strings.Join(exs, " ")},
		{"__NAVSYS__", strconv.Itoa(c.Proc.NavSys())},
		{"__AR_MODE__", c.Proc.ArMode},
		{"__GAR__", c.gloArMode()},
		{"__BAR__", c.Proc.BdsArMode},
		{"__MAXAGE__", ftoa(c.Proc.MaxAge)},
		{"__BASE_LATITUDE__", ftoa(c.RefPos.LatDeg())},
		{"__BASE_LONGITUDE__", ftoa(c.RefPos.LonDeg())},
		{"__BASE_ALTITUDE__", ftoa(c.RefPos.Hei)},
		{"__ANT1_TYPE__", antType(c.Rover)},
		{"__ANT1DE__", ftoa(c.Rover.AntDelta[0])},
		{"__ANT1DN__", ftoa(c.Rover.AntDelta[1])},
		{"__ANT1DU__", ftoa(c.Rover.AntDelta[2])},
		{"__ANT2_TYPE__", antType(c.Ref)},
		{"__ANT2DE__", ftoa(c.Ref.AntDelta[0])},
		{"__ANT2DN__", ftoa(c.Ref.AntDelta[1])},
		{"__ANT2DU__", ftoa(c.Ref.AntDelta[2])},
		{"__ANT_FILE__", c.AntFile},
	}
}

// Placeholder left in a rendered line
var placeholderRe = regexp.MustCompile(`__[A-Z0-9_]+__`)

// RenderConf writes the template with every placeholder replaced.
// A placeholder without a value is an error.
func RenderConf(w io.Writer, tmpl io.Reader, c SolverConf) error {
	ph := c.Placeholders()
	pairs := make([]string, 0, 2*len(ph))
	for _, p := range ph {
		pairs = append(pairs, p.Name, p.Value)
	}
	rp := strings.NewReplacer(pairs...)

	bw := bufio.NewWriter(w)
	s := bufio.NewScanner(tmpl)
	n := 0
	for s.Scan() {
		n++
		line := rp.Replace(s.Text())
		if m := placeholderRe.FindString(line); m != "" {
			return fmt.Errorf("unknown placeholder %s in template line %d", m, n)
		}
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	return bw.Flush()
}

// WriteConfFile renders the template into path.
func WriteConfFile(path string, tmpl io.Reader, c SolverConf) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err = RenderConf(f, tmpl, c); err != nil {
		return err
	}
	return f.Sync()
}

// FindAntFile returns the antenna calibration file next to the template, or "" if there is none.
func FindAntFile(templatePath string) string {
	if templatePath == "" {
		return ""
	}
	dir, err := filepath.Abs(filepath.Dir(templatePath))
	if err != nil {
		return ""
	}
	fn := filepath.Join(dir, AntFileName)
	if _, err := os.Stat(fn); err != nil {
		return ""
	}
	return fn
}

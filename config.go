// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.17
//

package goppk

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Solver settings
type SolverOpt struct {
	Bin      string        `yaml:"bin"`
	Timeout  time.Duration `yaml:"timeout"`
	WorkDir  string        `yaml:"work_dir"`
	ConfName string        `yaml:"conf_name"`
	OutName  string        `yaml:"out_name"`
	Template string        `yaml:"template"` // Built-in template if empty or missing
}

// Reference station
type RefStation struct {
	StationInfo `yaml:",inline"`
	Position    *LLHDeg `yaml:"position"`
}

// Position in degrees as written in a config file
type LLHDeg struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
	Hgt float64 `yaml:"hgt"`
}

func (p LLHDeg) PosLLH() PosLLH {
	return *NewPosLLHDeg(p.Lat, p.Lon, p.Hgt)
}

// Geotag settings
type GeotagConfig struct {
	ShutterLag float64 `yaml:"shutter_lag"`
	Prefix     string  `yaml:"prefix"`
	Suffix     string  `yaml:"suffix"`
	MinAcc     float64 `yaml:"min_acc"`
}

func (g GeotagConfig) Opt() GeotagOpt {
	return GeotagOpt{
		ShutterLag: g.ShutterLag,
		Prefix:     g.Prefix,
		Suffix:     g.Suffix,
		MinAcc:     g.MinAcc,
	}
}

// Output files
type OutputConfig struct {
	CSV     string `yaml:"csv"`
	Metrics string `yaml:"metrics_textfile"`
}

// Settings of one run. Built once at start up and passed by value.
type Config struct {
	Solver     SolverOpt    `yaml:"solver"`
	Processing ProcOpt      `yaml:"processing"`
	Rover      StationInfo  `yaml:"rover"`
	Reference  RefStation   `yaml:"reference"`
	Geotag     GeotagConfig `yaml:"geotag"`
	Output     OutputConfig `yaml:"output"`
}

func NewConfig() Config {
	g := NewGeotagOpt()
	return Config{
		Solver: SolverOpt{
			Timeout:  30 * time.Minute,
			WorkDir:  "ppk_proc",
			ConfName: "ppk.conf",
			OutName:  "out.pos",
			Template: "conf/template-rnx2rtkp-conf.txt",
		},
		Processing: NewProcOpt(),
		Geotag: GeotagConfig{
			ShutterLag: g.ShutterLag,
			Prefix:     g.Prefix,
			Suffix:     g.Suffix,
			MinAcc:     g.MinAcc,
		},
		Output: OutputConfig{
			CSV: "camera_ref.csv",
		},
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	c := NewConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Satellite names as the solver expects them, like "C02"
	if len(c.Processing.ExSats) > 0 {
		if err := c.Processing.ExSats.Set(c.Processing.ExSats.String()); err != nil {
			return c, fmt.Errorf("parse config %s: exclude_sats: %w", path, err)
		}
	}
	return c, nil
}

func (c Config) Validate() error {
	if err := c.Processing.Validate(); err != nil {
		return fmt.Errorf("processing: %w", err)
	}
	if c.Solver.Timeout < 0 {
		return fmt.Errorf("solver: negative timeout %s", c.Solver.Timeout)
	}
	if c.Solver.WorkDir == "" || c.Solver.ConfName == "" || c.Solver.OutName == "" {
		return fmt.Errorf("solver: work_dir, conf_name and out_name must be set")
	}
	if strings.ContainsAny(c.Geotag.Prefix+c.Geotag.Suffix, `/\`) {
		return fmt.Errorf("geotag: prefix and suffix must not contain path separators")
	}
	if !isFinite(c.Geotag.ShutterLag) {
		return fmt.Errorf("geotag: invalid shutter_lag %g", c.Geotag.ShutterLag)
	}
	if !isFinite(c.Geotag.MinAcc) || c.Geotag.MinAcc < 0 {
		return fmt.Errorf("geotag: invalid min_acc %g", c.Geotag.MinAcc)
	}
	if p := c.Reference.Position; p != nil && (p.Lat < -90 || p.Lat > 90) {
		return fmt.Errorf("reference: latitude out of range %g", p.Lat)
	}
	if c.Output.CSV == "" {
		return fmt.Errorf("output: csv must be set")
	}
	return nil
}

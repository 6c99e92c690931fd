// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.17
//

package goppk

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Counts of one run, written for the node_exporter textfile collector
type RunMetrics struct {
	reg *prometheus.Registry

	EpochsRead     prometheus.Gauge
	EpochsSkipped  prometheus.Gauge
	TriggersRead   prometheus.Gauge
	RecordsWritten prometheus.Gauge
	RecordsDropped prometheus.Gauge
	SolverSeconds  prometheus.Gauge
	FixRatio       prometheus.Gauge
	LastRun        prometheus.Gauge
}

// NewRunMetrics registers the gauges on a registry of its own, labeled with the run id.
func NewRunMetrics(runID string) *RunMetrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": runID}
	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "goppk",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
		reg.MustRegister(g)
		return g
	}
	return &RunMetrics{
		reg:            reg,
		EpochsRead:     gauge("epochs_read", "Positioning epochs read from the solution file."),
		EpochsSkipped:  gauge("epochs_skipped", "Solution file lines that could not be read."),
		TriggersRead:   gauge("triggers_read", "Camera triggers read from the timestamp log."),
		RecordsWritten: gauge("records_written", "Geotag records written."),
		RecordsDropped: gauge("records_dropped", "Camera triggers outside the positioning epochs."),
		SolverSeconds:  gauge("solver_duration_seconds", "Run time of the external solver."),
		FixRatio:       gauge("fix_ratio", "Share of fixed epochs in the solution."),
		LastRun:        gauge("last_run_timestamp_seconds", "Unix time of the end of the run."),
	}
}

func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteTextfile stamps the end of the run and writes all gauges to path.
func (m *RunMetrics) WriteTextfile(path string) error {
	m.LastRun.Set(float64(time.Now().Unix()))
	return prometheus.WriteToTextfile(path, m.reg)
}

// RunID returns an id derived from the input files, the same for the same inputs.
func RunID(inputs ...string) string {
	b := []byte{}
	for _, s := range inputs {
		b = append(b, s...)
		b = append(b, 0)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, b).String()
}

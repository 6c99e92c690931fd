// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.16
//

package goppk

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

var (
	ErrNoEpochs   = errors.New("no positioning epochs")
	ErrNoTriggers = errors.New("no camera triggers")
)

// Camera position of one photo
type GeotagRecord struct {
	Name string
	Time time.Time  // Trigger time corrected by the shutter lag
	Lat  float64    // [deg]
	Lon  float64    // [deg]
	Hgt  float64    // Ellipsoidal height [m]
	Acc  [3]float64 // North, east, up [m]
}

// Options for Geotag
type GeotagOpt struct {
	ShutterLag float64 // Delay of the recorded time from the actual shutter [s]
	Prefix     string  // Photo file name before the sequence number
	Suffix     string  // Photo file name after the sequence number
	MinAcc     float64 // Floor of the reported accuracy [m]
}

func NewGeotagOpt() GeotagOpt {
	return GeotagOpt{
		ShutterLag: 0,
		Prefix:     "image_0001_",
		Suffix:     ".JPG",
		MinAcc:     PosAccMin,
	}
}

// PhotoName returns prefix + 4 digit id + suffix.
func (o GeotagOpt) PhotoName(id int) string {
	return fmt.Sprintf("%s%04d%s", o.Prefix, id, o.Suffix)
}

// Geotag computes the camera position of every trigger covered by the epochs.
// Triggers outside the epochs are dropped. The result is sorted by name.
func Geotag(epochs []Epoch, triggers []Trigger, opt GeotagOpt, logger *slog.Logger) ([]GeotagRecord, error) {
	logger = orDefault(logger)

	if len(epochs) == 0 {
		return nil, ErrNoEpochs
	}
	if len(triggers) == 0 {
		return nil, ErrNoTriggers
	}
	if !isFinite(opt.ShutterLag) {
		return nil, fmt.Errorf("invalid shutter lag %g", opt.ShutterLag)
	}

	recs := make([]GeotagRecord, 0, len(triggers))
	for _, trg := range triggers {
		t := trg.Time.Add(-opt.ShutterLag)
		i, c1, c2, ok := findBracket(epochs, t)
		if !ok {
			logger.Debug("trigger out of the epochs", "id", trg.ID, "time", t.DateString())
			continue
		}
		recs = append(recs, interpolate(&epochs[i], &epochs[i+1], c1, c2, trg, t, opt))
	}

	// Sort by photo name
	slices.SortStableFunc(recs, func(a, b GeotagRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
	return recs, nil
}

// First i with epochs[i] < t < epochs[i+1], and the weights of the two epochs
func findBracket(epochs []Epoch, t GTime) (i int, c1, c2 float64, ok bool) {
	for i = 0; i+1 < len(epochs); i++ {
		dt1 := t.Sub(epochs[i].Time)
		dt2 := epochs[i+1].Time.Sub(t)
		if dt1 > 0 && dt2 > 0 {
			return i, dt2 / (dt1 + dt2), dt1 / (dt1 + dt2), true
		}
	}
	return 0, 0, 0, false
}

func interpolate(e1, e2 *Epoch, c1, c2 float64, trg Trigger, t GTime, opt GeotagOpt) GeotagRecord {

	// Interpolation of 2 points
	p := e1.Pos.Scale(c1).Add(e2.Pos.Scale(c2))
	llh := p.ToLLH()

	// Antenna to camera offset. The log is north, east, down.
	d := PosENU{E: trg.LeverArm[1], N: trg.LeverArm[0], U: -trg.LeverArm[2]}
	cam := EnuToEcef(d, p, llh.Lat, llh.Lon).ToLLH()

	// Accuracy
	s1, s2 := e1.EnuStdDevs(), e2.EnuStdDevs()
	var acc [3]float64
	for k := range acc {
		acc[k] = math.Max(math.Hypot(c1*s1[k], c2*s2[k]), opt.MinAcc)
	}

	return GeotagRecord{
		Name: opt.PhotoName(trg.ID),
		Time: t.ToTime(),
		Lat:  cam.LatDeg(),
		Lon:  cam.LonDeg(),
		Hgt:  cam.Hei,
		Acc:  acc,
	}
}

// LogSummary reports the number and time span of the inputs.
func LogSummary(logger *slog.Logger, epochs []Epoch, triggers []Trigger) {
	logger = orDefault(logger)
	if len(epochs) > 0 {
		logger.Info("positioning epochs", "count", len(epochs),
			"start", epochs[0].Time.DateString(), "end", epochs[len(epochs)-1].Time.DateString())
	}
	if len(triggers) > 0 {
		logger.Info("camera triggers", "count", len(triggers),
			"start", triggers[0].Time.DateString(), "end", triggers[len(triggers)-1].Time.DateString())
	}
}

// FixRatio returns the share of fixed epochs.
func FixRatio(epochs []Epoch) float64 {
	if len(epochs) == 0 {
		return 0
	}
	n := 0
	for _, e := range epochs {
		if e.Q == QFix {
			n++
		}
	}
	return float64(n) / float64(len(epochs))
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.15
//

// Reads the solution file (*.pos) written by RTKLIB.

package goppk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoBasePosition    = errors.New("no base position for the enu baseline format")
	ErrUnsupportedFormat = errors.New("unsupported pos format")
)

// Coordinate representation of a pos file
type PosFormat int

const (
	FormatLLH PosFormat = iota // latitude, longitude, height
	FormatXYZ                  // ECEF
	FormatENU                  // baseline from the base station
)

func (p PosFormat) String() string {
	switch p {
	case FormatLLH:
		return "llh"
	case FormatXYZ:
		return "xyz"
	case FormatENU:
		return "enu"
	default:
		return "UNKNOWN!"
	}
}

func (p *PosFormat) Set(s string) error {
	switch s {
	case "llh":
		*p = FormatLLH
	case "xyz":
		*p = FormatXYZ
	case "enu":
		*p = FormatENU
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return nil
}

// Solution quality (Q column)
type Quality int

const (
	QFix Quality = iota + 1
	QFloat
	QSBAS
	QDGPS
	QSingle
	QPPP
)

func (q Quality) String() string {
	switch q {
	case QFix:
		return "fix"
	case QFloat:
		return "float"
	case QSBAS:
		return "sbas"
	case QDGPS:
		return "dgps"
	case QSingle:
		return "single"
	case QPPP:
		return "ppp"
	default:
		return "none"
	}
}

// One solution epoch. The position is always held in ECEF.
type Epoch struct {
	Time  GTime
	Pos   PosXYZ
	Q     Quality
	Ns    int
	Sd    [6]float64 // Uncertainty columns as written in the file
	Age   float64
	Ratio float64
	Unc   Uncertainty
}

func (e *Epoch) UTC() time.Time {
	return e.Time.ToTime()
}

// EnuStdDevs returns the north, east and up standard deviations of the epoch.
// Without Unc the columns are taken as sdn, sde, sdu.
func (e *Epoch) EnuStdDevs() [3]float64 {
	if e.Unc == nil {
		return [3]float64{e.Sd[0], e.Sd[1], e.Sd[2]}
	}
	return e.Unc.EnuStdDevs(e.Pos)
}

// Contents of a pos file
type PosFile struct {
	Format  PosFormat
	RefPos  *PosXYZ // From the "% ref pos" header line, if any
	Epochs  []Epoch
	Skipped int // Number of data lines that could not be read
}

// Options for ReadPos
type ReadPosOpt struct {
	Format  *PosFormat // Force the format instead of detecting it from the header
	BasePos *PosXYZ    // Origin of an enu file. The "% ref pos" header is used if nil
}

// Number of columns of a data line
const posFields = 15

// Read a pos file.
// Data lines that cannot be read are logged and skipped.
func ReadPos(r io.Reader, opt ReadPosOpt, logger *slog.Logger) (*PosFile, error) {
	logger = orDefault(logger)

	pf := &PosFile{Format: FormatLLH}
	s := newLineReader(r)

	// Process header lines
	n := 0
	line := ""
	data := false
	for s.Scan() {
		n++
		line = s.Text()
		if s.LineErr() != nil || !strings.HasPrefix(line, "%") {
			data = true
			break
		}
		if f, ok := detectFormat(line); ok {
			pf.Format = f
		}
		if p, ok := parseRefPos(line); ok {
			pf.RefPos = &p
		}
	}
	if opt.Format != nil {
		pf.Format = *opt.Format
	}

	// Origin of the baseline
	var base *PosXYZ
	if pf.Format == FormatENU {
		base = opt.BasePos
		if base == nil {
			base = pf.RefPos
		}
		if base == nil {
			return nil, ErrNoBasePosition
		}
	}
	rd := &posLineReader{format: pf.Format, base: base}
	if base != nil {
		rd.baseLLH = base.ToLLH()
	}

	// Process data lines
	for data {
		if err := s.LineErr(); err != nil {
			pf.Skipped++
			logger.Warn("skip pos line", "line", n, "err", err)
		} else if strings.TrimSpace(line) != "" {
			e, err := rd.read(line)
			if err != nil {
				pf.Skipped++
				logger.Warn("skip pos line", "line", n, "err", err)
			} else {
				pf.Epochs = append(pf.Epochs, e)
			}
		}
		if !s.Scan() {
			break
		}
		n++
		line = s.Text()
	}

	// Check if reading completed without error
	if err := s.Err(); err != nil {
		return nil, err
	}

	logger.Debug("pos file read", "format", pf.Format, "epochs", len(pf.Epochs), "skipped", pf.Skipped)
	return pf, nil
}

// Detect the coordinate representation from a header line
func detectFormat(line string) (PosFormat, bool) {
	has := func(a ...string) bool {
		for _, s := range a {
			if !strings.Contains(line, s) {
				return false
			}
		}
		return true
	}
	switch {
	case has("baseline"):
		return FormatENU, true
	case has("latitude", "longitude", "height"):
		return FormatLLH, true
	case has("x-ecef", "y-ecef", "z-ecef"):
		return FormatXYZ, true
	}
	return 0, false
}

// Read "% ref pos   : lat lon hei" (degrees)
func parseRefPos(line string) (PosXYZ, bool) {
	s := strings.TrimLeft(line, "% ")
	if !strings.HasPrefix(s, "ref pos") {
		return PosXYZ{}, false
	}
	i := strings.Index(s, ":")
	if i < 0 {
		return PosXYZ{}, false
	}
	var llh PosLLH
	if err := llh.Set(strings.TrimSpace(s[i+1:])); err != nil {
		return PosXYZ{}, false
	}
	return llh.ToXYZ(), true
}

type posLineReader struct {
	format  PosFormat
	base    *PosXYZ
	baseLLH PosLLH
}

// Read one data line
func (p *posLineReader) read(line string) (e Epoch, err error) {
	la := strings.Fields(line)
	if len(la) < posFields {
		return e, fmt.Errorf("too few columns (%d < %d)", len(la), posFields)
	}

	// Read time
	switch {
	case strings.Index(la[0], "/") == 4 && strings.Index(la[1], ":") == 2:
		e.Time, err = ParseDateTime(la[0], la[1])
		if err != nil {
			return e, err
		}
	case len(la[0]) == 4:
		e.Time.Week, err = strconv.Atoi(la[0])
		if err != nil {
			return e, fmt.Errorf("invalid week: %w", err)
		}
		e.Time.Sec, err = strconv.ParseFloat(la[1], 64)
		if err != nil {
			return e, fmt.Errorf("invalid time of week: %w", err)
		}
	default:
		return e, fmt.Errorf("unknown time format %q %q", la[0], la[1])
	}

	// Read numbers
	var v [13]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(la[i+2], 64)
		if err != nil {
			return e, fmt.Errorf("invalid column %d: %w", i+3, err)
		}
	}
	q, err := strconv.Atoi(la[5])
	if err != nil {
		return e, fmt.Errorf("invalid Q: %w", err)
	}
	ns, err := strconv.Atoi(la[6])
	if err != nil {
		return e, fmt.Errorf("invalid ns: %w", err)
	}
	e.Q = Quality(q)
	e.Ns = ns
	copy(e.Sd[:], v[5:11])
	e.Age = v[11]
	e.Ratio = v[12]
	e.Unc = uncertaintyOf(p.format, e.Sd)

	// Read position
	switch p.format {
	case FormatLLH:
		e.Pos = NewPosLLHDeg(v[0], v[1], v[2]).ToXYZ()
	case FormatXYZ:
		e.Pos = PosXYZ{X: v[0], Y: v[1], Z: v[2]}
	case FormatENU:
		e.Pos = EnuToEcef(PosENU{E: v[0], N: v[1], U: v[2]}, *p.base, p.baseLLH.Lat, p.baseLLH.Lon)
	default:
		return e, ErrUnsupportedFormat
	}
	return e, nil
}

// EnuTrack returns the elapsed time from the first epoch [s], the position
// relative to origin and the quality of every epoch.
func EnuTrack(epochs []Epoch, origin PosLLH) ([]float64, []PosENU, []Quality) {
	t := make([]float64, 0, len(epochs))
	enu := make([]PosENU, 0, len(epochs))
	q := make([]Quality, 0, len(epochs))
	o := origin.ToXYZ()
	for _, e := range epochs {
		t = append(t, e.Time.Sub(epochs[0].Time))
		enu = append(enu, EcefToEnu(e.Pos, o, origin.Lat, origin.Lon))
		q = append(q, e.Q)
	}
	return t, enu, q
}

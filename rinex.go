// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.16
//

package goppk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// RINEX 3.04 specification
// https://files.igs.org/pub/data/format/rinex304.pdf
//

var (
	ErrNotObservation = errors.New("not a RINEX observation file")
	ErrNotNavigation  = errors.New("not a RINEX navigation file")
)

// Header of a RINEX observation or navigation file
type RinexHeader struct {
	Ver      string
	Type     byte    // 'O', 'N', 'G', ...
	Sys      SysType // 'M' for mixed
	Marker   string
	Rcv      string     // Receiver type
	Ant      string     // Antenna type
	AntDelta [3]float64 // H/E/N as in the file
	Pos      PosXYZ     // Approximate position
	First    time.Time
	Last     time.Time
	Systems  []SysType // Systems with observation types
}

func (h *RinexHeader) IsObs() bool {
	return h.Type == 'O'
}

// RINEX 2 uses N/G/H per system, RINEX 3 uses N for all
func (h *RinexHeader) IsNav() bool {
	return h.Type == 'N' || h.Type == 'G' || h.Type == 'H' || h.Type == 'L' || h.Type == 'J'
}

// Station returns the receiver and antenna of the file.
// The antenna delta is reordered to east, north, up.
func (h *RinexHeader) Station() StationInfo {
	st := StationInfo{
		Rcv:      h.Rcv,
		Ant:      h.Ant,
		AntDelta: [3]float64{h.AntDelta[1], h.AntDelta[2], h.AntDelta[0]},
	}
	if st.Ant == "" {
		st.Ant = NoAntennaInfo
	}
	return st
}

// Extract HEADER LABEL string from a header line
func getHeaderLabel(l string) string {
	if len(l) < 60 {
		return ""
	}
	return strings.TrimSpace(l[60:])
}

// Column range of a header line, trimmed
func headerField(l string, from, to int) string {
	if len(l) < to {
		to = len(l)
	}
	if from >= to {
		return ""
	}
	return strings.TrimSpace(l[from:to])
}

// Read "TIME OF FIRST OBS" and "TIME OF LAST OBS"
func getHeaderTime(l string) (time.Time, error) {
	la := strings.Fields(headerField(l, 0, 43))
	if len(la) < 6 {
		return time.Time{}, fmt.Errorf("invalid time line %q", l)
	}
	var v [5]int
	for i := range v {
		n, err := strconv.Atoi(la[i])
		if err != nil {
			return time.Time{}, err
		}
		v[i] = n
	}
	sec, err := strconv.ParseFloat(la[5], 64)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], 0, 0, time.UTC)
	return t.Add(time.Duration(sec * float64(time.Second))), nil
}

// Read the header of a RINEX file up to "END OF HEADER".
func ReadRinexHeader(r io.Reader) (*RinexHeader, error) {

	h := &RinexHeader{}

	// Reader to read line by line with newline as delimiter
	s := bufio.NewScanner(r)

	headerDone := false
	for s.Scan() {

		// Read line
		line := s.Text()
		var err error

		switch getHeaderLabel(line) {
		case "RINEX VERSION / TYPE":
			h.Ver = headerField(line, 0, 9)
			if t := headerField(line, 20, 21); t != "" {
				h.Type = t[0]
			}
			if sys := headerField(line, 40, 41); sys != "" {
				h.Sys = SysType(sys[0])
			}
		case "MARKER NAME":
			h.Marker = headerField(line, 0, 60)
		case "REC # / TYPE / VERS":
			h.Rcv = headerField(line, 20, 40)
		case "ANT # / TYPE":
			h.Ant = headerField(line, 20, 40)
		case "ANTENNA: DELTA H/E/N":
			for i := range h.AntDelta {
				h.AntDelta[i], err = strconv.ParseFloat(headerField(line, i*14, (i+1)*14), 64)
				if err != nil {
					return nil, fmt.Errorf("invalid antenna delta: %w", err)
				}
			}
		case "APPROX POSITION XYZ":
			var v [3]float64
			for i := range v {
				v[i], err = strconv.ParseFloat(headerField(line, i*14, (i+1)*14), 64)
				if err != nil {
					return nil, fmt.Errorf("invalid approximate position: %w", err)
				}
			}
			h.Pos = PosXYZ{X: v[0], Y: v[1], Z: v[2]}
		case "TIME OF FIRST OBS":
			h.First, err = getHeaderTime(line)
			if err != nil {
				return nil, fmt.Errorf("invalid time of first obs: %w", err)
			}
		case "TIME OF LAST OBS":
			h.Last, err = getHeaderTime(line)
			if err != nil {
				return nil, fmt.Errorf("invalid time of last obs: %w", err)
			}
		case "SYS / # / OBS TYPES":
			// Continuation lines start with blanks
			if sys := headerField(line, 0, 1); sys != "" && !slices.Contains(h.Systems, SysType(sys[0])) {
				h.Systems = append(h.Systems, SysType(sys[0]))
			}
		case "END OF HEADER":
			headerDone = true
		}
		if headerDone {
			break
		}
	}

	// Check if reading completed without error
	if err := s.Err(); err != nil {
		return nil, err
	}
	if !headerDone {
		return nil, fmt.Errorf("no END OF HEADER")
	}
	if h.Ver == "" {
		return nil, fmt.Errorf("no RINEX VERSION / TYPE")
	}
	return h, nil
}

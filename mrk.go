// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.15
//

// Reads the camera trigger log (*Timestamp.MRK) of DJI RTK drones.
//
// Each line is tab separated:
//
//	1	431583.296838	[2178]	   -12,N	    23,E	   168,V	35.65720465,Lat	140.04809967,Lon	112.753,Ellh	...
//
// The antenna offsets are in millimeters in the order north, east, down (DNU).

package goppk

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// One shutter event
type Trigger struct {
	ID       int        // Photo sequence number
	Time     GTime      // Trigger time (GPST)
	LeverArm [3]float64 // Antenna offset at the trigger [m], in the order of the log
	LLH      [3]float64 // Position by the onboard receiver (deg, deg, m)
}

// Minimum number of columns of a data line. Fewer columns end the data.
const mrkMinFields = 9

// Read a timestamp log.
// A line with fewer than 9 columns ends the data. Lines with unreadable numbers are logged and skipped.
func ReadMrk(r io.Reader, logger *slog.Logger) ([]Trigger, error) {
	logger = orDefault(logger)

	var trg []Trigger
	s := newLineReader(r)
	n := 0
	for s.Scan() {
		n++
		if err := s.LineErr(); err != nil {
			logger.Warn("skip timestamp line", "line", n, "err", err)
			continue
		}
		line := s.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		la := splitTab(line)
		if len(la) < mrkMinFields {
			logger.Debug("end of timestamp data", "line", n, "columns", len(la))
			break
		}
		t, err := parseMrkLine(la)
		if err != nil {
			logger.Warn("skip timestamp line", "line", n, "err", err)
			continue
		}
		trg = append(trg, t)
	}

	// Check if reading completed without error
	if err := s.Err(); err != nil {
		return nil, err
	}
	return trg, nil
}

// Split on tabs, dropping empty tokens
func splitTab(line string) []string {
	la := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	out := la[:0]
	for _, a := range la {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func parseMrkLine(la []string) (t Trigger, err error) {
	t.ID, err = strconv.Atoi(strings.TrimSpace(la[0]))
	if err != nil {
		return t, fmt.Errorf("invalid photo id: %w", err)
	}
	t.Time.Sec, err = strconv.ParseFloat(strings.TrimSpace(la[1]), 64)
	if err != nil {
		return t, fmt.Errorf("invalid time of week: %w", err)
	}
	wk := strings.Trim(strings.TrimSpace(la[2]), "[]")
	t.Time.Week, err = strconv.Atoi(wk)
	if err != nil {
		return t, fmt.Errorf("invalid week: %w", err)
	}
	for i := 0; i < 3; i++ {
		v, err := mrkValue(la[3+i])
		if err != nil {
			return t, fmt.Errorf("invalid antenna offset: %w", err)
		}
		t.LeverArm[i] = v * 1e-3
	}
	for i := 0; i < 3; i++ {
		t.LLH[i], err = mrkValue(la[6+i])
		if err != nil {
			return t, fmt.Errorf("invalid position: %w", err)
		}
	}
	return t, nil
}

// Number before the comma of "value,flag"
func mrkValue(s string) (float64, error) {
	v, _, _ := strings.Cut(s, ",")
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

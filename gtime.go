// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.12
//

package goppk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// GPS time. Leap seconds are not applied when converting to calendar time,
// the solver output and the camera log are both in GPST.
type GTime struct {
	Week int
	Sec  float64
}

func NewGTime(dt time.Time) *GTime {
	t := GTimeFromUnix(float64(dt.Unix()) + float64(dt.Nanosecond())/1e9)
	return &t
}

// GTimeFromUnix converts Unix seconds to week and time of week.
func GTimeFromUnix(t float64) GTime {
	s := t - GPSEpochUnix // Elapsed seconds since 1980/1/6 00:00:00
	w := math.Floor(s / SecondsWeek)
	return GTime{
		Week: int(w),
		Sec:  s - w*SecondsWeek,
	}
}

// Unix returns the Unix seconds of the GPS time.
func (p GTime) Unix() float64 {
	return float64(p.Week)*SecondsWeek + p.Sec + GPSEpochUnix
}

func (p GTime) ToTime() time.Time {
	i := math.Floor(p.Sec)
	t := int64(p.Week)*SecondsWeek + int64(i) + GPSEpochUnix
	n := int64(math.Round((p.Sec - i) * 1e9))
	return time.Unix(t, n).UTC() // Unix time is the elapsed seconds since 1970/1/1 00:00:00
}

// Sub returns p-b in seconds.
func (p GTime) Sub(b GTime) float64 {
	return float64(p.Week-b.Week)*SecondsWeek + p.Sec - b.Sec
}

// Add returns the time sec seconds after p, normalized into the week.
// A non-finite sec gives a non-finite Sec in the same week.
func (p GTime) Add(sec float64) GTime {
	s := p.Sec + sec
	if !isFinite(s) {
		return GTime{Week: p.Week, Sec: s}
	}
	w := math.Floor(s / SecondsWeek)
	return GTime{Week: p.Week + int(w), Sec: s - w*SecondsWeek}
}

func (p GTime) Less(b GTime) bool {
	return p.Sub(b) < 0
}

// DateString formats the time as "YYYY/MM/DD hh:mm:ss.sss".
func (p GTime) DateString() string {
	t := p.ToTime()
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return fmt.Sprintf("%4d/%02d/%02d %02d:%02d:%06.3f", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), sec)
}

// ParseDateTime reads the two time tokens of a pos file line ("2016/09/21", "00:54:34.000").
func ParseDateTime(date, clock string) (GTime, error) {
	d := strings.Split(date, "/")
	c := strings.Split(clock, ":")
	if len(d) != 3 || len(c) != 3 {
		return GTime{}, fmt.Errorf("invalid date/time %q %q", date, clock)
	}
	var v [5]int
	for i, s := range append(d, c[:2]...) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return GTime{}, fmt.Errorf("invalid date/time %q %q: %w", date, clock, err)
		}
		v[i] = n
	}
	sec, err := strconv.ParseFloat(c[2], 64)
	if err != nil {
		return GTime{}, fmt.Errorf("invalid date/time %q %q: %w", date, clock, err)
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], 0, 0, time.UTC)
	return GTimeFromUnix(float64(t.Unix()) + sec), nil
}

// DayOfYear returns the day of year of t with the fraction of the day (Jan 1 00:00 is 1.0).
func DayOfYear(t time.Time) float64 {
	t = t.UTC()
	y0 := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Sub(y0).Hours()/24 + 1
}

// MJD returns the modified Julian date of t.
func MJD(t time.Time) float64 {
	t0 := time.Date(1858, 11, 17, 0, 0, 0, 0, time.UTC)
	return t.Sub(t0).Hours() / 24
}

// DecimalYear returns the year of t with the elapsed fraction of the year.
func DecimalYear(t time.Time) float64 {
	t = t.UTC()
	t0 := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := time.Date(t.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
	return float64(t.Year()) + t.Sub(t0).Seconds()/t1.Sub(t0).Seconds()
}

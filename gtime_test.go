// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package goppk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGTime(t *testing.T) {
	assert := assert.New(t)

	dt := time.Date(2016, 9, 21, 0, 54, 34, 0, time.UTC)
	g := NewGTime(dt)
	assert.Equal(1915, g.Week)
	assert.InDelta(262474.0, g.Sec, 1e-9)
	assert.InDelta(1474419274.0, g.Unix(), 1e-6)
	assert.True(dt.Equal(g.ToTime()))
	assert.Equal("2016/09/21 00:54:34.000", g.DateString())

	// Fraction of a second
	g2 := GTime{Week: 1915, Sec: 262474.25}
	assert.Equal(250*time.Millisecond, g2.ToTime().Sub(dt))
	assert.InDelta(0.25, g2.Sub(*g), 1e-12)
	assert.True(g.Less(g2))
	assert.False(g2.Less(*g))
}

func TestGTimeAdd(t *testing.T) {
	tests := []struct {
		name string
		in   GTime
		sec  float64
		want GTime
	}{
		{"same week", GTime{2000, 100}, 50.5, GTime{2000, 150.5}},
		{"next week", GTime{2000, SecondsWeek - 1}, 2, GTime{2001, 1}},
		{"previous week", GTime{2000, 1}, -2, GTime{1999, SecondsWeek - 1}},
		{"many weeks ahead", GTime{2000, 10}, 52*SecondsWeek + 5, GTime{2052, 15}},
		{"many weeks back", GTime{2000, 10}, -3*SecondsWeek - 20, GTime{1996, SecondsWeek - 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Add(tt.sec)
			assert.Equal(t, tt.want.Week, got.Week)
			assert.InDelta(t, tt.want.Sec, got.Sec, 1e-9)
			assert.InDelta(t, tt.sec, got.Sub(tt.in), 1e-9)
		})
	}
}

func TestGTimeAddNonFinite(t *testing.T) {
	g := GTime{Week: 2000, Sec: 100}
	assert.True(t, math.IsInf(g.Add(math.Inf(1)).Sec, 1))
	assert.True(t, math.IsNaN(g.Add(math.NaN()).Sec))
	assert.Equal(t, 2000, g.Add(math.Inf(-1)).Week)
}

func TestParseDateTime(t *testing.T) {
	g, err := ParseDateTime("2021/10/19", "02:31:23.500")
	require.NoError(t, err)
	assert.Equal(t, 2180, g.Week)
	assert.InDelta(t, 181883.5, g.Sec, 1e-9)

	_, err = ParseDateTime("2021-10-19", "02:31:23.500")
	assert.Error(t, err)
	_, err = ParseDateTime("2021/10/19", "02:xx:23.500")
	assert.Error(t, err)
}

func TestGTimeFromUnix(t *testing.T) {
	g := GTimeFromUnix(GPSEpochUnix)
	assert.Equal(t, GTime{Week: 0, Sec: 0}, g)

	g = GTimeFromUnix(GPSEpochUnix + 3*SecondsWeek + 10.5)
	assert.Equal(t, GTime{Week: 3, Sec: 10.5}, g)
}

func TestCalendar(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(1.5, DayOfYear(time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)), 1e-12)
	assert.InDelta(366.0, DayOfYear(time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)), 1e-12)
	assert.InDelta(58849.0, MJD(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(2020.5, DecimalYear(time.Date(2020, 7, 2, 0, 0, 0, 0, time.UTC)), 1e-12)
}

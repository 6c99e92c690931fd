// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package goppk

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const posLLH = `% program   : RTKLIB ver.2.4.3 b34
% inp file  : rover.obs
% ref pos   : 35.657000000 140.048000000 40.0000
%
% (lat/lon/height=WGS84/ellipsoidal,Q=1:fix,2:float,3:sbas,4:dgps,5:single,6:ppp,ns=# of satellites)
%  GPST                  latitude(deg) longitude(deg)  height(m)   Q  ns   sdn(m)   sde(m)   sdu(m)  sdne(m)  sdeu(m)  sdun(m) age(s)  ratio
2016/09/21 00:54:34.000   35.657204650  140.048099670   112.7530   1   9   0.0040   0.0030   0.0090  -0.0010   0.0020  -0.0030   1.00    3.5
2016/09/21 00:54:34.200   35.657205650  140.048100670   112.7630   2   8   0.0140   0.0130   0.0190   0.0010   0.0000   0.0030   1.20    1.2
`

func TestReadPosLLH(t *testing.T) {
	assert := assert.New(t)

	pf, err := ReadPos(strings.NewReader(posLLH), ReadPosOpt{}, discardLogger())
	require.NoError(t, err)
	assert.Equal(FormatLLH, pf.Format)
	require.Len(t, pf.Epochs, 2)
	assert.Equal(0, pf.Skipped)

	// Reference position from the header
	require.NotNil(t, pf.RefPos)
	ref := pf.RefPos.ToLLH()
	assert.InDelta(35.657, ref.LatDeg(), 1e-9)
	assert.InDelta(140.048, ref.LonDeg(), 1e-9)
	assert.InDelta(40.0, ref.Hei, 1e-4)

	e := pf.Epochs[0]
	assert.Equal(1915, e.Time.Week)
	assert.InDelta(262474.0, e.Time.Sec, 1e-6)
	llh := e.Pos.ToLLH()
	assert.InDelta(35.657204650, llh.LatDeg(), 1e-9)
	assert.InDelta(140.048099670, llh.LonDeg(), 1e-9)
	assert.InDelta(112.7530, llh.Hei, 1e-4)
	assert.Equal(QFix, e.Q)
	assert.Equal(9, e.Ns)
	assert.Equal([6]float64{0.004, 0.003, 0.009, -0.001, 0.002, -0.003}, e.Sd)
	assert.Equal(1.0, e.Age)
	assert.Equal(3.5, e.Ratio)
	assert.Equal(StdDevEnu{N: 0.004, E: 0.003, U: 0.009, NE: -0.001, EU: 0.002, UN: -0.003}, e.Unc)
	assert.Equal("2016-09-21T00:54:34Z", e.UTC().Format("2006-01-02T15:04:05Z07:00"))

	assert.Equal(QFloat, pf.Epochs[1].Q)
	assert.InDelta(0.2, pf.Epochs[1].Time.Sub(e.Time), 1e-6)
}

func TestReadPosXYZ(t *testing.T) {
	assert := assert.New(t)

	in := `%  GPST                      x-ecef(m)      y-ecef(m)      z-ecef(m)   Q  ns   sdx(m)   sdy(m)   sdz(m)  sdxy(m)  sdyz(m)  sdzx(m) age(s)  ratio
1915 262474.000  -3976219.2317   3382373.0986   3652513.1387   5   7   4.1381   5.0455   4.0742  -4.0397   3.4676  -3.0181   0.00    0.0
`
	pf, err := ReadPos(strings.NewReader(in), ReadPosOpt{}, discardLogger())
	require.NoError(t, err)
	assert.Equal(FormatXYZ, pf.Format)
	assert.Nil(pf.RefPos)
	require.Len(t, pf.Epochs, 1)

	e := pf.Epochs[0]
	assert.Equal(PosXYZ{X: -3976219.2317, Y: 3382373.0986, Z: 3652513.1387}, e.Pos)
	assert.Equal(QSingle, e.Q)
	assert.Equal(StdDevEcef{X: 4.1381, Y: 5.0455, Z: 4.0742, XY: -4.0397, YZ: 3.4676, ZX: -3.0181}, e.Unc)
	assert.Equal(GTime{Week: 1915, Sec: 262474}, e.Time)
}

func TestReadPosENU(t *testing.T) {
	in := `% ref pos   : 35.000000000 140.000000000 30.0000
%  GPST                  e-baseline(m)  n-baseline(m)  u-baseline(m)   Q  ns   sde(m)   sdn(m)   sdu(m)  sden(m)  sdnu(m)  sdue(m) age(s)  ratio
1915 262474.000       10.0000        20.0000        -5.0000   1   9   0.0040   0.0030   0.0090  -0.0010   0.0020  -0.0030   1.00    3.5
`
	t.Run("header base", func(t *testing.T) {
		pf, err := ReadPos(strings.NewReader(in), ReadPosOpt{}, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, FormatENU, pf.Format)
		require.Len(t, pf.Epochs, 1)

		enu := pf.Epochs[0].Pos.ToENU(*pf.RefPos)
		assert.InDelta(t, 10.0, enu.E, 1e-6)
		assert.InDelta(t, 20.0, enu.N, 1e-6)
		assert.InDelta(t, -5.0, enu.U, 1e-6)
	})

	t.Run("given base", func(t *testing.T) {
		base := NewPosLLHDeg(36, 139, 0).ToXYZ()
		pf, err := ReadPos(strings.NewReader(in), ReadPosOpt{BasePos: &base}, discardLogger())
		require.NoError(t, err)
		enu := pf.Epochs[0].Pos.ToENU(base)
		assert.InDelta(t, 10.0, enu.E, 1e-6)
		assert.InDelta(t, 20.0, enu.N, 1e-6)
		assert.InDelta(t, -5.0, enu.U, 1e-6)
	})

	t.Run("no base", func(t *testing.T) {
		noRef := strings.SplitN(in, "\n", 2)[1]
		_, err := ReadPos(strings.NewReader(noRef), ReadPosOpt{}, discardLogger())
		assert.ErrorIs(t, err, ErrNoBasePosition)
	})
}

func TestReadPosForcedFormat(t *testing.T) {
	in := "1915 262474.000       10.0000        20.0000        -5.0000   1   9   0.0040   0.0030   0.0090  -0.0010   0.0020  -0.0030   1.00    3.5\n"

	// No header means llh
	pf, err := ReadPos(strings.NewReader(in), ReadPosOpt{}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, FormatLLH, pf.Format)

	f := FormatXYZ
	pf, err = ReadPos(strings.NewReader(in), ReadPosOpt{Format: &f}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, FormatXYZ, pf.Format)
	assert.Equal(t, PosXYZ{X: 10, Y: 20, Z: -5}, pf.Epochs[0].Pos)
}

func TestReadPosSkip(t *testing.T) {
	var b strings.Builder
	b.WriteString("%  GPST          latitude(deg) longitude(deg)  height(m)   Q  ns   sdn(m)   sde(m)   sdu(m)  sdne(m)  sdeu(m)  sdun(m) age(s)  ratio\n")
	for i := 0; i < 900; i++ {
		switch i {
		case 10, 500:
			// Ratio column missing
			fmt.Fprintf(&b, "1915 %10.3f 35.6572 140.0481 112.75 1 9 0.004 0.003 0.009 0 0 0 1.0\n", 262474+0.2*float64(i))
		case 899:
			b.WriteString("1915 262654.000 35.6572\n")
		default:
			fmt.Fprintf(&b, "1915 %10.3f 35.6572 140.0481 112.75 1 9 0.004 0.003 0.009 0 0 0 1.0 3.0\n", 262474+0.2*float64(i))
		}
	}
	b.WriteString("\n")

	pf, err := ReadPos(strings.NewReader(b.String()), ReadPosOpt{}, discardLogger())
	require.NoError(t, err)
	assert.Len(t, pf.Epochs, 897)
	assert.Equal(t, 3, pf.Skipped)
}

func TestReadPosLongLine(t *testing.T) {
	lines := strings.SplitAfter(posLLH, "\n")
	long := strings.Repeat("1234567890 ", 20000) + "\n"

	// After the header and between the data lines
	for _, at := range []int{6, 7} {
		in := strings.Join(lines[:at], "") + long + strings.Join(lines[at:], "")
		pf, err := ReadPos(strings.NewReader(in), ReadPosOpt{}, discardLogger())
		require.NoError(t, err)
		assert.Len(t, pf.Epochs, 2)
		assert.Equal(t, 1, pf.Skipped)
		assert.NotNil(t, pf.RefPos)
	}
}

func TestReadPosBadLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"bad time", "1915/09/21 xx:54:34.000 35.6 140.0 112.7 1 9 0 0 0 0 0 0 1.0 3.0"},
		{"unknown time", "19150 262474.000 35.6 140.0 112.7 1 9 0 0 0 0 0 0 1.0 3.0"},
		{"bad number", "1915 262474.000 35.6 abc 112.7 1 9 0 0 0 0 0 0 1.0 3.0"},
		{"bad Q", "1915 262474.000 35.6 140.0 112.7 1.5 9 0 0 0 0 0 0 1.0 3.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, err := ReadPos(strings.NewReader(tt.line+"\n"), ReadPosOpt{}, discardLogger())
			require.NoError(t, err)
			assert.Empty(t, pf.Epochs)
			assert.Equal(t, 1, pf.Skipped)
		})
	}
}

func TestWritePos(t *testing.T) {
	assert := assert.New(t)

	pf, err := ReadPos(strings.NewReader(posLLH), ReadPosOpt{}, discardLogger())
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, WritePos(&b, pf.Epochs, WritePosOpt{Format: FormatLLH, RefPos: pf.RefPos}))
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(posHeadQ, lines[0])
	assert.Equal("% ref pos   : 35.657000000 140.048000000 40.0000", lines[1])
	assert.Equal(posHeadLLH, lines[2])
	assert.Equal("1915 262474.000   35.657204650  140.048099670   112.7530   1   9   0.0040   0.0030   0.0090  -0.0010   0.0020  -0.0030   1.00    3.5", lines[3])

	// Read back
	pf2, err := ReadPos(&b, ReadPosOpt{}, discardLogger())
	require.NoError(t, err)
	require.Len(t, pf2.Epochs, len(pf.Epochs))
	assert.InDelta(0, EucDist(pf.RefPos, pf2.RefPos), 1e-3)
	for i := range pf.Epochs {
		assert.InDelta(0, EucDist(&pf.Epochs[i].Pos, &pf2.Epochs[i].Pos), 1e-3)
		assert.InDelta(0, pf.Epochs[i].Time.Sub(pf2.Epochs[i].Time), 1e-6)
		assert.Equal(pf.Epochs[i].Sd, pf2.Epochs[i].Sd)
	}
}

func TestFormatEpoch(t *testing.T) {
	assert := assert.New(t)

	e := Epoch{
		Time:  GTime{Week: 2000, Sec: 1.5},
		Pos:   PosXYZ{X: -3976219.2317, Y: 3382373.0986, Z: 3652513.1387},
		Q:     QFix,
		Ns:    10,
		Age:   1.5,
		Ratio: 3.0,
		Unc:   StdDevEcef{X: 0.0123, Y: 150, Z: -1000, XY: 0.001, YZ: -0.002, ZX: 0.5},
	}
	s, err := FormatEpoch(&e, FormatXYZ)
	require.NoError(t, err)
	assert.Equal("2000      1.500  -3976219.2317   3382373.0986   3652513.1387   1  10   0.0123  99.0000 -99.0000   0.0010  -0.0020   0.5000   1.50    3.0", s)

	// Covariance is written as signed square roots
	e.Unc = Covariance{XX: 0.0001, YY: 0.0004, ZZ: 0.0009, XY: -0.0001}
	s, err = FormatEpoch(&e, FormatXYZ)
	require.NoError(t, err)
	assert.Contains(s, "   0.0100   0.0200   0.0300  -0.0100   0.0000   0.0000")

	e.Unc = nil
	_, err = FormatEpoch(&e, FormatXYZ)
	assert.ErrorIs(err, ErrNoUncertainty)
}

func TestWritePosUnsupported(t *testing.T) {
	err := WritePos(io.Discard, nil, WritePosOpt{Format: FormatENU})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEnuTrack(t *testing.T) {
	assert := assert.New(t)

	origin := *NewPosLLHDeg(35, 140, 0)
	o := origin.ToXYZ()
	epochs := []Epoch{
		{Time: GTime{Week: 2000, Sec: 10}, Pos: EnuToEcef(PosENU{E: 1, N: 2, U: 3}, o, origin.Lat, origin.Lon), Q: QFix},
		{Time: GTime{Week: 2000, Sec: 10.5}, Pos: EnuToEcef(PosENU{E: -1, N: 0, U: 1}, o, origin.Lat, origin.Lon), Q: QFloat},
	}
	ts, enu, q := EnuTrack(epochs, origin)
	assert.Equal([]float64{0, 0.5}, ts)
	assert.Equal([]Quality{QFix, QFloat}, q)
	assert.InDelta(1.0, enu[0].E, 1e-6)
	assert.InDelta(2.0, enu[0].N, 1e-6)
	assert.InDelta(3.0, enu[0].U, 1e-6)
	assert.InDelta(-1.0, enu[1].E, 1e-6)
}

func TestPosFormatSet(t *testing.T) {
	var f PosFormat
	require.NoError(t, f.Set("enu"))
	assert.Equal(t, FormatENU, f)
	assert.Equal(t, "enu", f.String())
	assert.ErrorIs(t, f.Set("utm"), ErrUnsupportedFormat)
}

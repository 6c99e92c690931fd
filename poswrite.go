// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.15
//

package goppk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var ErrNoUncertainty = errors.New("epoch has no uncertainty")

const (
	posHeadQ   = "% (lat/lon/height=WGS84/ellipsoidal,Q=1:fix,2:float,3:sbas,4:dgps,5:single,6:ppp,ns=# of satellites)"
	posHeadLLH = "%  GPST          latitude(deg) longitude(deg)  height(m)   Q  ns   sdn(m)   sde(m)   sdu(m)  sdne(m)  sdeu(m)  sdun(m) age(s)  ratio"
	posHeadXYZ = "%  GPST              x-ecef(m)      y-ecef(m)      z-ecef(m)   Q  ns   sdx(m)   sdy(m)   sdz(m)  sdxy(m)  sdyz(m)  sdzx(m) age(s)  ratio"
)

// Options for WritePos
type WritePosOpt struct {
	Format PosFormat // FormatLLH or FormatXYZ
	RefPos *PosXYZ   // Written as "% ref pos" if not nil
}

// Write epochs in the fixed column format of a pos file.
// The uncertainty columns come from Epoch.Unc and are bounded within [-99, 99].
func WritePos(w io.Writer, epochs []Epoch, opt WritePosOpt) error {
	if opt.Format != FormatLLH && opt.Format != FormatXYZ {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, opt.Format)
	}

	bw := bufio.NewWriter(w)

	// Print header
	fmt.Fprintln(bw, posHeadQ)
	if opt.RefPos != nil {
		llh := opt.RefPos.ToLLH()
		fmt.Fprintf(bw, "%% ref pos   : %.9f %.9f %.4f\n", llh.LatDeg(), llh.LonDeg(), llh.Hei)
	}
	if opt.Format == FormatLLH {
		fmt.Fprintln(bw, posHeadLLH)
	} else {
		fmt.Fprintln(bw, posHeadXYZ)
	}

	for i := range epochs {
		s, err := FormatEpoch(&epochs[i], opt.Format)
		if err != nil {
			return fmt.Errorf("failed to format epoch %d: %w", i, err)
		}
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// FormatEpoch returns one data line without the line break.
func FormatEpoch(e *Epoch, format PosFormat) (string, error) {
	if e.Unc == nil {
		return "", ErrNoUncertainty
	}
	sd := e.Unc.StdDevs()
	for i := range sd {
		sd[i] = clamp(sd[i], -SdLimit, SdLimit)
	}

	var s string
	switch format {
	case FormatLLH:
		llh := e.Pos.ToLLH()
		s = fmt.Sprintf("%4d%11.3f%15.9f%15.9f%11.4f", e.Time.Week, e.Time.Sec, llh.LatDeg(), llh.LonDeg(), llh.Hei)
	case FormatXYZ:
		s = fmt.Sprintf("%4d%11.3f%15.4f%15.4f%15.4f", e.Time.Week, e.Time.Sec, e.Pos.X, e.Pos.Y, e.Pos.Z)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	s += fmt.Sprintf("%4d%4d%9.4f%9.4f%9.4f%9.4f%9.4f%9.4f%7.2f%7.1f",
		int(e.Q), e.Ns, sd[0], sd[1], sd[2], sd[3], sd[4], sd[5], e.Age, e.Ratio)
	return s, nil
}

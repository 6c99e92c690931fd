// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.14
//

package goppk

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Uncertainty of an epoch position. It is one of StdDevEnu, Covariance or StdDevEcef.
type Uncertainty interface {
	// The six values of the uncertainty columns of a pos file
	StdDevs() [6]float64
	// North, east and up standard deviations at the position at
	EnuStdDevs(at PosXYZ) [3]float64
	uncertainty()
}

// Standard deviations in the local frame [m].
// The cross terms keep the sign of the covariance (RTKLIB's sqvar).
type StdDevEnu struct {
	N, E, U    float64
	NE, EU, UN float64
}

func (s StdDevEnu) StdDevs() [6]float64 {
	return [6]float64{s.N, s.E, s.U, s.NE, s.EU, s.UN}
}

func (s StdDevEnu) EnuStdDevs(PosXYZ) [3]float64 {
	return [3]float64{s.N, s.E, s.U}
}

func (StdDevEnu) uncertainty() {}

// Standard deviations in ECEF [m], with signed cross terms.
type StdDevEcef struct {
	X, Y, Z    float64
	XY, YZ, ZX float64
}

func (s StdDevEcef) StdDevs() [6]float64 {
	return [6]float64{s.X, s.Y, s.Z, s.XY, s.YZ, s.ZX}
}

// Covariance squares every element back, keeping the sign of the cross terms.
func (s StdDevEcef) Covariance() Covariance {
	sq := func(v float64) float64 { return v * math.Abs(v) }
	return Covariance{XX: sq(s.X), YY: sq(s.Y), ZZ: sq(s.Z), XY: sq(s.XY), YZ: sq(s.YZ), ZX: sq(s.ZX)}
}

func (s StdDevEcef) EnuStdDevs(at PosXYZ) [3]float64 {
	return s.Covariance().EnuStdDevs(at)
}

func (StdDevEcef) uncertainty() {}

// ECEF position covariance [m^2]
type Covariance struct {
	XX, YY, ZZ float64
	XY, YZ, ZX float64
}

// StdDevs takes the signed square root of every element.
// The off-diagonal values are an approximation, not standard deviations.
func (c Covariance) StdDevs() [6]float64 {
	return [6]float64{sqvar(c.XX), sqvar(c.YY), sqvar(c.ZZ), sqvar(c.XY), sqvar(c.YZ), sqvar(c.ZX)}
}

func (c Covariance) EnuStdDevs(at PosXYZ) [3]float64 {
	llh := at.ToLLH()
	s := c.Enu(llh.Lat, llh.Lon)
	return [3]float64{s.N, s.E, s.U}
}

func (Covariance) uncertainty() {}

func (c Covariance) Matrix() *mat.SymDense {
	return mat.NewSymDense(3, []float64{
		c.XX, c.XY, c.ZX,
		c.XY, c.YY, c.YZ,
		c.ZX, c.YZ, c.ZZ,
	})
}

// Enu rotates the covariance into the local frame at (lat, lon) [rad] and
// returns the signed square roots of its elements.
func (c Covariance) Enu(lat, lon float64) StdDevEnu {
	R := EnuRotation(lat, lon)
	var q mat.Dense
	q.Product(R, c.Matrix(), R.T())
	return StdDevEnu{
		E:  sqvar(q.At(0, 0)),
		N:  sqvar(q.At(1, 1)),
		U:  sqvar(q.At(2, 2)),
		NE: sqvar(q.At(1, 0)),
		EU: sqvar(q.At(0, 2)),
		UN: sqvar(q.At(2, 1)),
	}
}

// Uncertainty held by the columns sd of a row in the given file format
func uncertaintyOf(format PosFormat, sd [6]float64) Uncertainty {
	switch format {
	case FormatXYZ:
		return StdDevEcef{X: sd[0], Y: sd[1], Z: sd[2], XY: sd[3], YZ: sd[4], ZX: sd[5]}
	default:
		return StdDevEnu{N: sd[0], E: sd[1], U: sd[2], NE: sd[3], EU: sd[4], UN: sd[5]}
	}
}

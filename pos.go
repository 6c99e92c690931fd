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

	"gonum.org/v1/gonum/mat"
)

//-------------------------------------------------------------------
// PosLLH
//-------------------------------------------------------------------

// Geodetic position. Lat and Lon are in radians, Hei is the ellipsoidal height in meters.
type PosLLH struct {
	Lat float64
	Lon float64
	Hei float64
}

func NewPosLLH(lat, lon, hei float64) *PosLLH {
	return &PosLLH{
		Lat: lat,
		Lon: lon,
		Hei: hei,
	}
}

// NewPosLLHDeg takes latitude and longitude in degrees.
func NewPosLLHDeg(lat, lon, hei float64) *PosLLH {
	return NewPosLLH(ToRad(lat), ToRad(lon), hei)
}

func (llh PosLLH) ToXYZ() PosXYZ {
	// Ellipsoid parameters
	e2 := Fe * (2 - Fe) // Squared eccentricity

	// Radius of curvature in the prime vertical
	sinp := math.Sin(llh.Lat)
	n := Re / math.Sqrt(1-e2*sinp*sinp)

	cosp := math.Cos(llh.Lat)
	return PosXYZ{
		X: (n + llh.Hei) * cosp * math.Cos(llh.Lon),
		Y: (n + llh.Hei) * cosp * math.Sin(llh.Lon),
		Z: (n*(1-e2) + llh.Hei) * sinp,
	}
}

func (llh PosLLH) ToENU(base PosXYZ) PosENU {
	return llh.ToXYZ().ToENU(base)
}

// LatDeg returns the latitude in degrees.
func (llh PosLLH) LatDeg() float64 {
	return ToDeg(llh.Lat)
}

// LonDeg returns the longitude in degrees.
func (llh PosLLH) LonDeg() float64 {
	return ToDeg(llh.Lon)
}

// Read "lat,lon,hei" (degrees, degrees, meters). Blanks are also accepted as separators.
func (llh *PosLLH) Set(s string) error {
	f := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(f) != 3 {
		return fmt.Errorf("position must be \"lat,lon,hei\" (got %q)", s)
	}
	var v [3]float64
	for i := range v {
		var err error
		v[i], err = strconv.ParseFloat(f[i], 64)
		if err != nil {
			return fmt.Errorf("invalid position element %q: %w", f[i], err)
		}
	}
	if math.Abs(v[0]) > 90 || math.Abs(v[1]) > 360 {
		return fmt.Errorf("position out of range (lat=%f, lon=%f)", v[0], v[1])
	}
	*llh = *NewPosLLHDeg(v[0], v[1], v[2])
	return nil
}

// Convert to string (degrees)
func (llh PosLLH) String() string {
	return llh.DegString(",")
}

// DegString formats the position as degrees with 10 decimals and the height with 4.
func (llh PosLLH) DegString(sep string) string {
	return fmt.Sprintf("%.10f%s%.10f%s%.4f", llh.LatDeg(), sep, llh.LonDeg(), sep, llh.Hei)
}

//-------------------------------------------------------------------
// PosXYZ
//-------------------------------------------------------------------

// ECEF position [m]
type PosXYZ struct {
	X float64
	Y float64
	Z float64
}

func NewPosXYZ(x, y, z float64) *PosXYZ {
	return &PosXYZ{
		X: x,
		Y: y,
		Z: z,
	}
}

func (pos PosXYZ) ToLLH() PosLLH {
	// In case of origin
	if pos.X == 0 && pos.Y == 0 && pos.Z == 0 {
		return PosLLH{Lat: 0, Lon: 0, Hei: -Re}
	}

	// Ellipsoid parameters
	a := Re             // Semi-major axis
	b := a * (1 - Fe)   // Semi-minor axis
	e2 := Fe * (2 - Fe) // Squared eccentricity

	// Bowring's closed form
	h := a*a - b*b
	p := math.Hypot(pos.X, pos.Y)
	t := math.Atan2(pos.Z*a, p*b)
	sint := math.Sin(t)
	cost := math.Cos(t)

	lat := math.Atan2(pos.Z+h/b*sint*sint*sint, p-h/a*cost*cost*cost)
	lon := math.Atan2(pos.Y, pos.X)
	sinp := math.Sin(lat)
	n := a / math.Sqrt(1-e2*sinp*sinp) // Radius of curvature in the prime vertical

	// Near the poles p/cos(lat) loses precision, use the z component instead
	var hei float64
	if math.Abs(lat) < PI/4 {
		hei = p/math.Cos(lat) - n
	} else {
		hei = pos.Z/sinp - n*(1-e2)
	}
	return PosLLH{Lat: lat, Lon: lon, Hei: hei}
}

// ToENU converts the position to ENU coordinates around base.
func (pos PosXYZ) ToENU(base PosXYZ) PosENU {
	llh := base.ToLLH()
	return EcefToEnu(pos, base, llh.Lat, llh.Lon)
}

func (pos PosXYZ) Add(d PosXYZ) PosXYZ {
	return PosXYZ{X: pos.X + d.X, Y: pos.Y + d.Y, Z: pos.Z + d.Z}
}

func (pos PosXYZ) Sub(d PosXYZ) PosXYZ {
	return PosXYZ{X: pos.X - d.X, Y: pos.Y - d.Y, Z: pos.Z - d.Z}
}

func (pos PosXYZ) Scale(k float64) PosXYZ {
	return PosXYZ{X: k * pos.X, Y: k * pos.Y, Z: k * pos.Z}
}

func (pos PosXYZ) Vec() *mat.VecDense {
	return mat.NewVecDense(3, []float64{pos.X, pos.Y, pos.Z})
}

//-------------------------------------------------------------------
// PosENU
//-------------------------------------------------------------------

// Local tangent plane position [m]
type PosENU struct {
	E float64
	N float64
	U float64
}

func NewPosENU(e, n, u float64) *PosENU {
	return &PosENU{
		E: e,
		N: n,
		U: u,
	}
}

// ToXYZ converts the ENU vector around base to ECEF.
func (enu PosENU) ToXYZ(base PosXYZ) PosXYZ {
	llh := base.ToLLH()
	return EnuToEcef(enu, base, llh.Lat, llh.Lon)
}

func (enu PosENU) Vec() *mat.VecDense {
	return mat.NewVecDense(3, []float64{enu.E, enu.N, enu.U})
}

//-------------------------------------------------------------------
// Conversions
//-------------------------------------------------------------------

func EcefToGeodetic(xyz PosXYZ) PosLLH {
	return xyz.ToLLH()
}

func GeodeticToEcef(llh PosLLH) PosXYZ {
	return llh.ToXYZ()
}

// EnuRotation returns the matrix taking an ECEF displacement to ENU at (lat, lon) [rad].
func EnuRotation(lat, lon float64) *mat.Dense {
	s1 := math.Sin(lon)
	c1 := math.Cos(lon)
	s2 := math.Sin(lat)
	c2 := math.Cos(lat)
	return mat.NewDense(3, 3, []float64{
		-s1, c1, 0,
		-c1 * s2, -s1 * s2, c2,
		c1 * c2, s1 * c2, s2,
	})
}

// EcefToEnu rotates xyz-origin into the tangent plane at (lat, lon).
func EcefToEnu(xyz, origin PosXYZ, lat, lon float64) PosENU {
	var v mat.VecDense
	v.MulVec(EnuRotation(lat, lon), xyz.Sub(origin).Vec())
	return PosENU{E: v.AtVec(0), N: v.AtVec(1), U: v.AtVec(2)}
}

// EnuToEcef is the inverse of EcefToEnu. The rotation is orthonormal, so its transpose is used.
func EnuToEcef(enu PosENU, origin PosXYZ, lat, lon float64) PosXYZ {
	var v mat.VecDense
	v.MulVec(EnuRotation(lat, lon).T(), enu.Vec())
	return origin.Add(PosXYZ{X: v.AtVec(0), Y: v.AtVec(1), Z: v.AtVec(2)})
}

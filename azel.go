// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.12
//

package goppk

import "math"

// Azimuth and elevation of sat seen from usr [rad].
// Returns (0, pi/2) if usr is not above the center of the earth.
func AzEl(sat, usr PosXYZ) (az, el float64) {
	llh := usr.ToLLH()
	if llh.Hei <= -Re {
		return 0, PI / 2
	}
	enu := EcefToEnu(sat, usr, llh.Lat, llh.Lon)
	return enu.AzEl()
}

func (usr PosLLH) Elevation(sat PosXYZ) float64 {
	_, el := AzEl(sat, usr.ToXYZ())
	return el
}

func (usr PosLLH) Azimuth(sat PosXYZ) float64 {
	az, _ := AzEl(sat, usr.ToXYZ())
	return az
}

func (enu PosENU) AzEl() (az, el float64) {
	return enu.Azimuth(), enu.Elevation()
}

func (enu PosENU) Elevation() float64 {
	return math.Atan2(enu.U, math.Hypot(enu.E, enu.N))
}

func (enu PosENU) Azimuth() float64 {
	return math.Atan2(enu.E, enu.N)
}

// LineOfSight returns the unit vector from usr to sat in ECEF and the distance.
func LineOfSight(sat, usr PosXYZ) (PosXYZ, float64) {
	d := sat.Sub(usr)
	r := EucDist(&sat, &usr)
	if r == 0 {
		return PosXYZ{}, 0
	}
	return d.Scale(1 / r), r
}

// AzElToLOS returns the ENU unit vector pointing to (az, el).
func AzElToLOS(az, el float64) PosENU {
	cosel := math.Cos(el)
	return PosENU{
		E: math.Sin(az) * cosel,
		N: math.Cos(az) * cosel,
		U: math.Sin(el),
	}
}

// LOSToAzEl is the inverse of AzElToLOS. The vector need not be normalized.
func LOSToAzEl(los PosENU) (az, el float64) {
	return los.AzEl()
}

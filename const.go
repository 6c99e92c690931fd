// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.12
//

package goppk

const (
	PI = 3.1415926535897932  // Pi
	Re = 6378137.0           // Earth's radius (WGS84 semi-major axis) [m]
	Fe = 1.0 / 298.257223563 // Earth's flattening (WGS84)
)

// GPS time
const (
	SecondsWeek  = 3600 * 24 * 7 // Seconds in a GPS week
	GPSEpochUnix = 315964800     // 1980/1/6 00:00:00 in Unix seconds
)

// Lower bound of the reported camera position accuracy [m]
const PosAccMin = 0.030

// Limit of the uncertainty columns in a pos file
const SdLimit = 99.0

// Navigation system bits of the solver configuration (pos1-navsys)
const (
	NavSysGPS  = 1
	NavSysSBAS = 2
	NavSysGLO  = 4
	NavSysGAL  = 8
	NavSysQZS  = 16
	NavSysBDS  = 32
)

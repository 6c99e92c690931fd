// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.14
//

package goppk

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

func EucDist(a, b *PosXYZ) float64 {
	return math.Sqrt(SQ(a.X-b.X) + SQ(a.Y-b.Y) + SQ(a.Z-b.Z))
}

func ToDeg(rad float64) float64 {
	return rad / PI * 180.0
}

func ToRad(deg float64) float64 {
	return deg / 180.0 * PI
}

// Bound v within [lo, hi]
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Square root keeping the sign of v
func sqvar(v float64) float64 {
	if v < 0 {
		return -math.Sqrt(-v)
	}
	return math.Sqrt(v)
}

// Shortest decimal representation of v
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ------------------------------------
// For command argument parsing
// ------------------------------------

// Satellite system like 'G'
type SysType byte

// Systems selectable in the solver. GPS is always used.
var selectableSys = []SysType{'G', 'R', 'E', 'J', 'C'}

// Satellite systems to use. G(GPS), R(Glonass), E(Galileo), J(QZSS), C(Beidou)
type SysVar []SysType

func (p *SysVar) Set(s string) error {
	*p = []SysType{}
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if len(a) != 1 || !slices.Contains(selectableSys, SysType(a[0])) {
			return fmt.Errorf("unknown satellite system %q", a)
		}
		if !slices.Contains(*p, SysType(a[0])) {
			*p = append(*p, SysType(a[0]))
		}
	}
	return nil
}

func (p *SysVar) String() string {
	if p == nil {
		return ""
	}
	s := make([]string, 0, len(*p))
	for _, v := range *p {
		s = append(s, string(v))
	}
	return strings.Join(s, ",")
}

func (p SysVar) Contains(s SysType) bool {
	return slices.Contains(p, s)
}

// Satellite name like "G10"
type SatType string

// Extract satellite system from satellite name
func (p SatType) Sys() SysType {
	return SysType(p[0])
}

// Extract satellite number from satellite name
func (p SatType) Num() int {
	i, err := strconv.Atoi(string(p[1:]))
	if err != nil {
		return 0
	}
	return i
}

// Satellites to exclude, comma-separated like C02,E14
type SatVar []SatType

func (p *SatVar) Set(s string) error {
	*p = []SatType{}
	for _, a := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		sat := SatType(strings.ToUpper(a))
		if len(sat) < 2 || !strings.ContainsRune("GRESJCI", rune(sat[0])) || sat.Num() == 0 {
			return fmt.Errorf("invalid satellite name %q", a)
		}
		if !slices.Contains(*p, sat) {
			*p = append(*p, sat)
		}
	}
	return nil
}

func (p *SatVar) String() string {
	if p == nil {
		return ""
	}
	s := make([]string, 0, len(*p))
	for _, v := range *p {
		s = append(s, string(v))
	}
	return strings.Join(s, ",")
}

// One of a fixed set of option words, like "kinematic" for the positioning mode
type OptWord struct {
	Value  string
	Choice []string
}

func (p *OptWord) Set(s string) error {
	if !slices.Contains(p.Choice, s) {
		return fmt.Errorf("%q is not one of %s", s, strings.Join(p.Choice, ","))
	}
	p.Value = s
	return nil
}

func (p *OptWord) String() string {
	if p == nil {
		return ""
	}
	return p.Value
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.16
//

package goppk

import (
	"encoding/csv"
	"io"
	"strconv"
)

var geotagHeader = []string{"name", "datetime", "lat", "lon", "hgt", "north_acc", "east_acc", "up_acc"}

// Same layouts as UTC timestamps written by pandas. The fraction is left
// out when no time in the column has one.
const (
	geotagTimeLayout       = "2006-01-02 15:04:05.000000-07:00"
	geotagTimeLayoutNoFrac = "2006-01-02 15:04:05-07:00"
)

// CSVRow returns the columns of the record as text.
func (r GeotagRecord) CSVRow() []string {
	return r.csvRow(geotagTimeLayout)
}

func (r GeotagRecord) csvRow(layout string) []string {
	return []string{
		r.Name,
		r.Time.UTC().Format(layout),
		strconv.FormatFloat(r.Lat, 'f', 8, 64),
		strconv.FormatFloat(r.Lon, 'f', 8, 64),
		strconv.FormatFloat(r.Hgt, 'f', 4, 64),
		strconv.FormatFloat(r.Acc[0], 'f', 4, 64),
		strconv.FormatFloat(r.Acc[1], 'f', 4, 64),
		strconv.FormatFloat(r.Acc[2], 'f', 4, 64),
	}
}

// WriteGeotagCSV writes the header and one row per record in the given order.
// Times are written to the microsecond.
func WriteGeotagCSV(w io.Writer, recs []GeotagRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(geotagHeader); err != nil {
		return err
	}
	layout := geotagTimeLayoutNoFrac
	for _, r := range recs {
		if r.Time.Nanosecond()/1000 != 0 {
			layout = geotagTimeLayout
			break
		}
	}
	for _, r := range recs {
		if err := cw.Write(r.csvRow(layout)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

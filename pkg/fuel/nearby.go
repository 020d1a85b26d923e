package fuel

import (
	"sort"

	"github.com/tkrajina/gpxgo/gpx"
)

// RecordWithDistance associates a record with its distance in meters from
// a search origin.
type RecordWithDistance struct {
	Record   Record  `json:"record"`
	Distance float64 `json:"distance"`
}

// Nearby returns the geocoded records within distance meters of lat/lng,
// closest first. Records without coordinates are skipped.
func Nearby(records []Record, lat, lng, distance float64) []RecordWithDistance {
	var nearby []RecordWithDistance
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		d := gpx.Distance2D(lat, lng, *r.Latitude, *r.Longitude, true)
		if d <= distance {
			nearby = append(nearby, RecordWithDistance{Record: r, Distance: d})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})
	return nearby
}

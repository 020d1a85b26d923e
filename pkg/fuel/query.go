package fuel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SearchMode selects the field Search filters on.
type SearchMode string

const (
	SearchByFuelType SearchMode = "fuelType"
	SearchByPrice    SearchMode = "price"
	SearchByAddress  SearchMode = "address"
)

// UniqueStations returns the first record seen for each gas station,
// preserving input order.
func UniqueStations(records []Record) []Record {
	seen := make(map[int64]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.GasStationID]; ok {
			continue
		}
		seen[r.GasStationID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// RecordsForStation returns the records of a station. stationID is
// compared against the decimal form of GasStationID, the way the station
// picker hands it over.
func RecordsForStation(records []Record, stationID string) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.StationKey() == stationID {
			out = append(out, r)
		}
	}
	return out
}

// FindFuel returns the first record of a station with the given fuel type.
func FindFuel(records []Record, stationID, fuelType string) (Record, bool) {
	for _, r := range records {
		if r.StationKey() == stationID && r.FuelType == fuelType {
			return r, true
		}
	}
	return Record{}, false
}

// Cheapest returns the record with the lowest price. Ties keep the first
// record found.
func Cheapest(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	cheapest := records[0]
	for _, r := range records[1:] {
		if r.Price < cheapest.Price {
			cheapest = r
		}
	}
	return cheapest, true
}

// MostRecent returns the record with the latest CreatedAt. Records with
// equal timestamps keep their input order; unparseable timestamps sort last.
func MostRecent(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := sorted[i].CreatedTime()
		tj, okJ := sorted[j].CreatedTime()
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
	return sorted[0], true
}

// Search filters records by mode. Unknown modes return every record.
// A price query that is empty or not a number also returns every record.
func Search(records []Record, mode SearchMode, query string) []Record {
	lower := strings.ToLower(query)

	var keep func(Record) bool
	switch mode {
	case SearchByFuelType:
		keep = func(r Record) bool {
			return strings.Contains(strings.ToLower(r.TypeName()), lower)
		}
	case SearchByPrice:
		limit, err := parseDecimal(query)
		if err != nil {
			keep = func(Record) bool { return true }
			break
		}
		keep = func(r Record) bool {
			return r.Price <= limit
		}
	case SearchByAddress:
		keep = func(r Record) bool {
			if r.Station.Address == "" {
				return lower == ""
			}
			return strings.Contains(strings.TrimSpace(strings.ToLower(r.Station.Address)), lower)
		}
	default:
		keep = func(Record) bool { return true }
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// StationSnapshot is the canonical station data of a gas station id.
type StationSnapshot struct {
	GasStationID int64       `json:"gasStationId"`
	Station      StationInfo `json:"station"`
	// Divergent is set when records of this station disagree on the
	// station name or address.
	Divergent bool `json:"divergent"`
}

// CanonicalStations resolves one station snapshot per gas station id,
// taking the snapshot of the most recent record and flagging stations
// whose records carry different snapshots. Output follows first-seen order.
func CanonicalStations(records []Record) []StationSnapshot {
	index := make(map[int64]int)
	latest := make(map[int64]Record)
	var out []StationSnapshot

	for _, r := range records {
		i, ok := index[r.GasStationID]
		if !ok {
			index[r.GasStationID] = len(out)
			latest[r.GasStationID] = r
			out = append(out, StationSnapshot{GasStationID: r.GasStationID, Station: r.Station})
			continue
		}
		if !sameStation(out[i].Station, r.Station) {
			out[i].Divergent = true
		}
		if newer(r, latest[r.GasStationID]) {
			latest[r.GasStationID] = r
			out[i].Station = r.Station
		}
	}
	return out
}

func newer(a, b Record) bool {
	ta, okA := a.CreatedTime()
	tb, okB := b.CreatedTime()
	if !okA {
		return false
	}
	return !okB || ta.After(tb)
}

func sameStation(a, b StationInfo) bool {
	return normalize(a.Name) == normalize(b.Name) && normalize(a.Address) == normalize(b.Address)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DedupeGasStations removes stations sharing the same name and address,
// compared trimmed and case-insensitively. First occurrence wins.
func DedupeGasStations(stations []GasStation) []GasStation {
	seen := make(map[string]struct{}, len(stations))
	out := make([]GasStation, 0, len(stations))
	for _, s := range stations {
		key := normalize(s.Name) + "-" + normalize(s.Address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func parseDecimal(s string) (float64, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	v := d.InexactFloat64()
	if !finite(v) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

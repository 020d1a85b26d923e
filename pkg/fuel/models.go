// Package fuel holds the crowdsourced fuel price records and the queries
// the application runs over them: station grouping, cheapest and most
// recent price, free-text search, nearby filtering and the cost calculator.
package fuel

import (
	"strconv"
	"time"
)

// AnonymousReporter is shown when a record carries no submitter.
const AnonymousReporter = "Anônimo"

// UnknownTypeName is returned by TypeName for codes outside the table.
const UnknownTypeName = "Tipo não encontrado"

// Type is an entry of the fuel type table.
type Type struct {
	Code string `json:"id"`
	Name string `json:"name"`
}

// Types is the fixed fuel type table, ordered by code.
var Types = []Type{
	{Code: "1", Name: "Gasolina Aditivada"},
	{Code: "2", Name: "Gasolina Premium"},
	{Code: "3", Name: "Gasolina Formulada"},
	{Code: "4", Name: "Etanol"},
	{Code: "5", Name: "Etanol Aditivado"},
	{Code: "6", Name: "GNV (Gás Natural Veicular)"},
	{Code: "7", Name: "Diesel"},
	{Code: "8", Name: "Diesel S-10"},
}

// TypeName returns the human readable name for a fuel type code.
func TypeName(code string) string {
	for _, t := range Types {
		if t.Code == code {
			return t.Name
		}
	}
	return UnknownTypeName
}

// ValidType reports whether code is part of the fuel type table.
func ValidType(code string) bool {
	return TypeName(code) != UnknownTypeName
}

// StationInfo is the station snapshot denormalized into each record.
type StationInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Reporter is the user who submitted a price.
type Reporter struct {
	Name string `json:"name"`
}

// Record is a single reported price observation. Records are treated as
// immutable: helpers that change a field return a copy.
type Record struct {
	ID           int64       `json:"id"`
	FuelType     string      `json:"fuelType"`
	Price        float64     `json:"price"`
	GasStationID int64       `json:"gasStationId"`
	Station      StationInfo `json:"GasStation"`
	ReportedBy   *Reporter   `json:"User,omitempty"`
	CreatedAt    string      `json:"createdAt"`
	Latitude     *float64    `json:"latitude,omitempty"`
	Longitude    *float64    `json:"longitude,omitempty"`
}

// TypeName returns the fuel type name of the record.
func (r Record) TypeName() string {
	return TypeName(r.FuelType)
}

// ReporterName returns the submitter name or AnonymousReporter.
func (r Record) ReporterName() string {
	if r.ReportedBy == nil || r.ReportedBy.Name == "" {
		return AnonymousReporter
	}
	return r.ReportedBy.Name
}

// StationKey returns the station id as the string used by station pickers.
func (r Record) StationKey() string {
	return strconv.FormatInt(r.GasStationID, 10)
}

// HasCoordinates reports whether the record has been geocoded.
func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// WithCoordinates returns a copy of the record with the given coordinates.
func (r Record) WithCoordinates(lat, lng float64) Record {
	r.Latitude = &lat
	r.Longitude = &lng
	return r
}

// CreatedTime parses CreatedAt. The zero time and false are returned when
// the timestamp is missing or not ISO-8601.
func (r Record) CreatedTime() (time.Time, bool) {
	if r.CreatedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GasStation is the lighter projection used by the station picker when
// submitting a price.
type GasStation struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

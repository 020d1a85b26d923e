package main

import (
	"fmt"

	"github.com/rubiojr/gasprice/pkg/fuel"
)

const metersPerKm = 1000.0

func printRecord(r fuel.Record) {
	fmt.Printf("  %s (%s)\n", r.Station.Name, r.Station.Address)
	fmt.Printf("   %s: R$ %.2f\n", r.TypeName(), r.Price)
	fmt.Printf("   Station: %d  Reported by: %s", r.GasStationID, r.ReporterName())
	if t, ok := r.CreatedTime(); ok {
		fmt.Printf("  at %s", t.Local().Format("2006-01-02 15:04"))
	}
	fmt.Print("\n\n")
}

func printRecords(records []fuel.Record) {
	for i, r := range records {
		fmt.Printf("%d.", i+1)
		printRecord(r)
	}
	fmt.Printf("Found %d prices\n", len(records))
}

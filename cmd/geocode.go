package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/tablescout/internal/anchor"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/pkg/geoapify"
)

var geocodeFlags struct {
	city string
	area string
	poi  string
	zip  string
}

// geocodeCmd resolves an anchor without running a search, for debugging
// gazetteer entries and geocoder behavior.
var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve a search anchor without searching",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := geoapify.NewClient(cfg.Geoapify.Key,
			geoapify.WithBaseURL(cfg.Geoapify.BaseURL),
			geoapify.WithRateLimit(cfg.Geoapify.RatePerSec),
			geoapify.WithCache(cfg.Geoapify.CacheEntries, time.Duration(cfg.Geoapify.CacheTTLMins)*time.Minute),
		)
		resolver := anchor.NewResolver(client, nil, cfg.Search.DefaultLang)

		sp := &prefs.Spec{
			City: geocodeFlags.city,
			Area: geocodeFlags.area,
			POI:  geocodeFlags.poi,
			Zip:  geocodeFlags.zip,
		}
		if err := sp.Validate(); err != nil {
			return err
		}

		a, err := resolver.Resolve(cmd.Context(), sp)
		if err != nil {
			return err
		}

		fmt.Printf("%s %q -> lon=%.5f lat=%.5f\n", a.Type, a.Label, a.Point.Lon(), a.Point.Lat())
		return nil
	},
}

func init() {
	f := geocodeCmd.Flags()
	f.StringVar(&geocodeFlags.city, "city", "", "city")
	f.StringVar(&geocodeFlags.area, "area", "", "neighborhood")
	f.StringVar(&geocodeFlags.poi, "poi", "", "point of interest")
	f.StringVar(&geocodeFlags.zip, "zip", "", "postal code")

	rootCmd.AddCommand(geocodeCmd)
}

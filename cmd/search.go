package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/sells-group/tablescout/internal/anchor"
	"github.com/sells-group/tablescout/internal/constraint"
	"github.com/sells-group/tablescout/internal/cuisine"
	"github.com/sells-group/tablescout/internal/engine"
	"github.com/sells-group/tablescout/internal/prefs"
	"github.com/sells-group/tablescout/internal/rank"
	"github.com/sells-group/tablescout/internal/search"
	"github.com/sells-group/tablescout/pkg/geoapify"
	"github.com/sells-group/tablescout/pkg/jina"
)

var searchFlags struct {
	city       string
	area       string
	poi        string
	zip        string
	lat        float64
	lon        float64
	cuisines   []string
	require    []string
	exclude    []string
	ambiance   []string
	people     int
	budget     float64
	radiusKm   float64
	diningTime string
	diningAt   string
	duration   int
	strict     bool
	lang       string
	maxResults int
	rerank     bool
	asJSON     bool
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a recommendation query",
	RunE:  runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.city, "city", "", "city to search in")
	f.StringVar(&searchFlags.area, "area", "", "neighborhood within the city")
	f.StringVar(&searchFlags.poi, "poi", "", "point-of-interest anchor")
	f.StringVar(&searchFlags.zip, "zip", "", "postal code anchor")
	f.Float64Var(&searchFlags.lat, "lat", 0, "explicit anchor latitude")
	f.Float64Var(&searchFlags.lon, "lon", 0, "explicit anchor longitude")
	f.StringSliceVar(&searchFlags.cuisines, "cuisine", nil, "preferred cuisines")
	f.StringSliceVar(&searchFlags.require, "require", nil, "required cuisines")
	f.StringSliceVar(&searchFlags.exclude, "exclude", nil, "excluded cuisines")
	f.StringSliceVar(&searchFlags.ambiance, "ambiance", nil, "preferred ambiance keywords")
	f.IntVar(&searchFlags.people, "people", 0, "party size")
	f.Float64Var(&searchFlags.budget, "budget", 0, "budget per person in USD")
	f.Float64Var(&searchFlags.radiusKm, "radius", 0, "search radius in km")
	f.StringVar(&searchFlags.diningTime, "time", "", `dining day and time, e.g. "we 19:00"`)
	f.StringVar(&searchFlags.diningAt, "at", "", "dining time as RFC 3339 timestamp")
	f.IntVar(&searchFlags.duration, "duration", 60, "minimum stay in minutes")
	f.BoolVar(&searchFlags.strict, "strict-open", false, "drop venues with unknown opening hours")
	f.StringVar(&searchFlags.lang, "lang", "", "output language")
	f.IntVar(&searchFlags.maxResults, "max", 0, "maximum candidates to return")
	f.BoolVar(&searchFlags.rerank, "rerank", false, "enable the external rerank pass")
	f.BoolVar(&searchFlags.asJSON, "json", false, "print the full recommendation as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	sp := &prefs.Spec{
		City:            searchFlags.city,
		Area:            searchFlags.area,
		POI:             searchFlags.poi,
		Zip:             searchFlags.zip,
		Cuisines:        searchFlags.cuisines,
		MustInclude:     searchFlags.require,
		MustExclude:     searchFlags.exclude,
		Ambiance:        searchFlags.ambiance,
		People:          searchFlags.people,
		BudgetPerPerson: searchFlags.budget,
		DistanceKm:      searchFlags.radiusKm,
		DiningTime:      searchFlags.diningTime,
		DiningAt:        searchFlags.diningAt,
		MinDurationMin:  searchFlags.duration,
		StrictOpenCheck: searchFlags.strict,
		Lang:            searchFlags.lang,
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		sp.AnchorPoint = &orb.Point{searchFlags.lon, searchFlags.lat}
	}

	eng := buildEngine()
	rec, err := eng.Recommend(cmd.Context(), sp)
	if err != nil {
		return err
	}

	if searchFlags.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Anchor: %s %q (%.5f, %.5f), radius %.1f km\n",
		rec.Anchor.Type, rec.Anchor.Label, rec.Anchor.Point.Lon(), rec.Anchor.Point.Lat(), rec.RadiusKm)
	for i, c := range rec.Candidates {
		fmt.Printf("%2d. [tier %d, %.4f] %s - %.1f km", i+1, c.Tier, c.Score, c.Venue.Name, c.DistanceKm)
		if len(c.Violations) > 0 {
			fmt.Printf(" (violations: %v)", c.Violations)
		}
		fmt.Println()
	}
	return nil
}

func buildEngine() *engine.Engine {
	client := geoapify.NewClient(cfg.Geoapify.Key,
		geoapify.WithBaseURL(cfg.Geoapify.BaseURL),
		geoapify.WithRateLimit(cfg.Geoapify.RatePerSec),
		geoapify.WithCache(cfg.Geoapify.CacheEntries, time.Duration(cfg.Geoapify.CacheTTLMins)*time.Minute),
	)

	table := cuisine.Default()
	resolver := anchor.NewResolver(client, nil, cfg.Search.DefaultLang)
	expander := search.NewExpander(client, constraint.NewEvaluator(table), cfg.Search)
	scorer := rank.NewScorer(table, cfg.Scorer)

	opts := []engine.Option{
		engine.WithResultBounds(cfg.Search.MinResults, maxOrDefault()),
	}
	if searchFlags.rerank || cfg.Rerank.Enabled {
		relevance := jina.NewScorer(jina.NewClient(cfg.Jina.Key,
			jina.WithBaseURL(cfg.Jina.BaseURL),
			jina.WithModel(cfg.Jina.Model),
		))
		opts = append(opts, engine.WithReranker(rank.NewReranker(relevance, cfg.Rerank)))
	}

	return engine.New(resolver, expander, scorer, opts...)
}

func maxOrDefault() int {
	if searchFlags.maxResults > 0 {
		return searchFlags.maxResults
	}
	return cfg.Search.MaxResults
}

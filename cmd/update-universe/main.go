package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pairs-backtest/internal/analysis"
	"pairs-backtest/internal/data"
	"pairs-backtest/internal/util"
)

func main() {
	var (
		url        = flag.String("url", data.DefaultUniverseURL, "Constituents page URL")
		outputPath = flag.String("output", "", "Output file path (default: ./data/universe.json)")
		monthsBack = flag.Int("months-back", analysis.DefaultMonthsBack, "Report how many constituents were listed this many months ago")
		timeout    = flag.Duration("timeout", 30*time.Second, "Request timeout")
	)
	flag.Parse()

	log := util.NewLogger(os.Getenv("LOG_LEVEL"))
	if *outputPath == "" {
		*outputPath = data.DefaultUniversePath()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := data.NewUniverseClient(*url, log)
	fmt.Printf("Fetching constituents from %s\n", client.URL)
	list, err := client.Fetch(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch universe")
	}
	if len(list) == 0 {
		log.Fatal().Msg("no constituents found")
	}

	cutoff := time.Now().UTC().AddDate(0, -*monthsBack, 0)
	eligible := data.FilterAddedBefore(list, cutoff)
	fmt.Printf("Found %d constituents, %d listed on or before %s\n",
		len(list), len(eligible), cutoff.Format("2006-01-02"))

	u := &data.Universe{
		Source:       client.URL,
		UpdatedAt:    time.Now().Format(time.RFC3339),
		Constituents: list,
	}
	if err := data.SaveUniverse(u, *outputPath); err != nil {
		log.Fatal().Err(err).Msg("save universe")
	}
	fmt.Printf("Saved %d constituents to %s\n", len(list), *outputPath)
}

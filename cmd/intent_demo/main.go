package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tripflow/internal/enrich"
	"tripflow/internal/extract"
	"tripflow/internal/modules/intentcache"
	"tripflow/internal/predict"
	"tripflow/internal/service"
)

func main() {
	gaz, err := extract.LoadGazetteer("")
	if err != nil {
		log.Fatalf("Failed to load gazetteer: %v", err)
	}

	// Fixed clock keeps the transcript reproducible.
	demoToday := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	extractor := extract.NewWithClock(gaz, func() time.Time { return demoToday })

	resolver, err := service.NewResolver(service.Deps{
		Extractor: extractor,
		Enricher:  enrich.New(extractor),
		Completer: predict.New(gaz),
		Cache:     intentcache.NewMemory(10*time.Minute, 128),
		Now:       func() time.Time { return demoToday },
	})
	if err != nil {
		log.Fatalf("Failed to build resolver: %v", err)
	}

	script := []string{
		"I'm planning a trip to Kyoto",
		"sometime in spring, for two weeks",
		"there will be 4 of us, budget around 3000 usd",
	}

	ctx := context.Background()
	token := ""
	var last *service.Resolution
	for _, line := range script {
		fmt.Printf("User: %s\n", line)
		last = resolver.Resolve(ctx, line, token)
		fmt.Printf("Assistant: %s\n", last.Message)
		missing := make([]string, len(last.MissingFields))
		for i, f := range last.MissingFields {
			missing[i] = string(f)
		}
		fmt.Printf("  state=%s missing=[%s] canGenerate=%v\n\n",
			last.State, strings.Join(missing, " "), last.CanGenerate)
		token = last.SerializedContext
	}

	in := last.Intent
	fmt.Println("Resolved intent:")
	fmt.Printf("  Destinations: %s\n", strings.Join(in.DestinationNames(), ", "))
	window := in.Dates.Resolved()
	if window.Start != nil {
		fmt.Printf("  Start: %s\n", window.Start.Format("2006-01-02"))
	}
	if window.DurationDays > 0 {
		fmt.Printf("  Duration: %d days\n", window.DurationDays)
	}
	if in.Travelers > 0 {
		fmt.Printf("  Travelers: %d\n", in.Travelers)
	}
	if in.Budget != nil {
		fmt.Printf("  Budget: %d %s %s\n", in.Budget.Money.Amount, in.Budget.Money.Currency, in.Budget.Tier)
	}
}

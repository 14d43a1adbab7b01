package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/workflow"
)

// Batch recompute of commissions over a date range. Deletes and recreates
// each matching sale's commission; per-sale failures are reported but do not
// abort the batch.
func main() {
	from := flag.String("from", "", "Start date (YYYY-MM-DD), required")
	to := flag.String("to", "", "End date (YYYY-MM-DD), required")
	salesPersonId := flag.Int("sales-person-id", 0, "Optional: restrict to one sales person")
	flag.Parse()

	fromDate, err := time.Parse("2006-01-02", *from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from date: %v\n", err)
		os.Exit(1)
	}
	toDate, err := time.Parse("2006-01-02", *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to date: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	var spFilter *int
	if *salesPersonId > 0 {
		spFilter = salesPersonId
	}

	result, err := workflow.RecomputeCommissions(ctx, fromDate, toDate, spFilter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recompute failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("recompute finished succeeded=%d failed=%d\n", result.Succeeded, len(result.Errors))
	for _, recomputeErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "sale %d: %s\n", recomputeErr.SaleId, recomputeErr.Error)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

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

// Scheduled-job entry point for the alert scan. Run from cron; concurrent
// runs are serialized through the redis lock.
func main() {
	asOf := flag.String("as-of", "", "Optional: scan date (YYYY-MM-DD). Defaults to now.")
	skipRedis := flag.Bool("skip-redis", false, "Run without redis (no run lock, no tier cache)")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if !*skipRedis {
		config.ConnectRedisWithRetry()
	}

	now := time.Now().UTC()
	if *asOf != "" {
		parsed, err := time.Parse("2006-01-02", *asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -as-of date: %v\n", err)
			os.Exit(1)
		}
		now = parsed
	}

	created, err := workflow.GenerateAlerts(ctx, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "alert scan failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("alert scan finished, created=%d\n", created)
}
